// Package alert decides when an audible alert may fire. A Gate debounces one
// alert category with a fire-once-then-cooldown rule; a Loop binds a looping
// sound to a boolean condition so it starts and stops on transitions only.
package alert

import (
	"time"

	"github.com/banshee-data/vision.safety/internal/timeutil"
)

// Category names an independent alert stream.
type Category string

const (
	CategoryCollision           Category = "collision"
	CategorySpeedLimitHighlight Category = "speed-limit-highlight"
	CategorySpeedLimitNew       Category = "speed-limit-new"
	CategorySpeedLimitOver      Category = "speed-limit-over"
	CategoryLaneDeparture       Category = "lane-departure"
)

// Default cooldowns.
const (
	CollisionCooldown           = 3 * time.Second
	SpeedLimitHighlightCooldown = 10 * time.Second
)

// Gate suppresses repeat firings of one category until its cooldown
// elapses. Starting a cooldown while one is pending replaces it.
//
// The scheduled reset is the normal way a cooldown ends. Reading the gate
// also opens it once the clock reaches the deadline, so a refused or dropped
// timer cannot leave it suppressed. Without a scheduler the gate reads the
// wall clock. A non-positive cooldown disables suppression.
//
// Gate is not safe for concurrent use; it relies on the scheduler delivering
// callbacks on the caller's goroutine.
type Gate struct {
	category  Category
	cooldown  time.Duration
	scheduler timeutil.Scheduler
	now       func() time.Time

	suppressed bool
	deadline   time.Time
	handle     timeutil.Handle
	generation uint64
	resets     int
	onReset    func()
}

// NewGate creates an open gate.
func NewGate(category Category, cooldown time.Duration, scheduler timeutil.Scheduler) *Gate {
	g := &Gate{category: category, cooldown: cooldown, scheduler: scheduler}
	g.now = timeutil.RealClock{}.Now
	if scheduler != nil {
		g.now = scheduler.Now
	}
	return g
}

// Category returns the gate's category.
func (g *Gate) Category() Category { return g.category }

// Cooldown returns the configured cooldown.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }

// OnReset registers fn to run whenever a cooldown elapses.
func (g *Gate) OnReset(fn func()) { g.onReset = fn }

// ShouldFire reports whether a candidate alert may fire now.
func (g *Gate) ShouldFire(candidate bool) bool {
	g.expireIfDue()
	return candidate && !g.suppressed
}

// MarkFired suppresses the category and (re)starts the cooldown from now.
func (g *Gate) MarkFired() {
	g.cancel()
	if g.cooldown <= 0 {
		return
	}

	g.generation++
	gen := g.generation
	g.suppressed = true
	g.deadline = g.now().Add(g.cooldown)
	if g.scheduler == nil {
		return
	}

	// a nil handle leaves expiry to expireIfDue
	h := g.scheduler.Schedule(g.cooldown, func() { g.expire(gen) })
	if h != nil && gen == g.generation {
		g.handle = h
	}
}

// Suppressed reports whether the gate is cooling down.
func (g *Gate) Suppressed() bool {
	g.expireIfDue()
	return g.suppressed
}

// Deadline returns when the pending cooldown elapses.
func (g *Gate) Deadline() (time.Time, bool) {
	g.expireIfDue()
	if !g.suppressed {
		return time.Time{}, false
	}
	return g.deadline, true
}

// Resets returns how many cooldowns have elapsed.
func (g *Gate) Resets() int { return g.resets }

// Reset cancels any pending cooldown and opens the gate without running the
// OnReset hook.
func (g *Gate) Reset() {
	g.cancel()
}

func (g *Gate) cancel() {
	if g.handle != nil {
		g.handle.Cancel()
		g.handle = nil
	}
	g.generation++
	g.suppressed = false
	g.deadline = time.Time{}
}

func (g *Gate) expireIfDue() {
	if !g.suppressed || g.now().Before(g.deadline) {
		return
	}
	if g.handle != nil {
		g.handle.Cancel()
	}
	g.expire(g.generation)
}

func (g *Gate) expire(gen uint64) {
	if gen != g.generation {
		return
	}
	g.generation++
	g.handle = nil
	g.suppressed = false
	g.deadline = time.Time{}
	g.resets++
	if g.onReset != nil {
		g.onReset()
	}
}
