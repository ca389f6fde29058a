package timeutil

import (
	"sort"
	"sync/atomic"
	"time"
)

// Handle identifies a scheduled callback.
type Handle interface {
	// Cancel prevents the callback from running. It reports whether the
	// callback was still pending.
	Cancel() bool
}

// Scheduler runs one-shot callbacks after a delay. Implementations deliver
// callbacks on the same logical thread as frame handling, so callers never
// need to lock state touched from a callback.
type Scheduler interface {
	Now() time.Time
	Schedule(d time.Duration, fn func()) Handle
}

// Manual is a logical clock for tests and offline replay. Nothing happens
// until Advance is called; due callbacks then run synchronously in deadline
// order. Manual also satisfies Clock. It is not safe for concurrent use.
type Manual struct {
	now     time.Time
	seq     uint64
	pending []*manualTask
}

type manualTask struct {
	deadline time.Time
	seq      uint64
	fn       func()
	done     bool
}

func (t *manualTask) Cancel() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *manualTask) Stop() bool { return t.Cancel() }

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the logical time.
func (m *Manual) Now() time.Time { return m.now }

// Since returns the logical duration since t.
func (m *Manual) Since(t time.Time) time.Duration { return m.now.Sub(t) }

// Schedule queues fn to run once the logical clock reaches now+d.
func (m *Manual) Schedule(d time.Duration, fn func()) Handle {
	return m.add(d, fn)
}

// AfterFunc is Schedule exposed through the Clock interface.
func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	return m.add(d, f)
}

func (m *Manual) add(d time.Duration, fn func()) *manualTask {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTask{deadline: m.now.Add(d), seq: m.seq, fn: fn}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves the clock forward by d, running every callback whose
// deadline falls inside the window. Callbacks scheduled by other callbacks
// run in the same call if they become due. It returns the number of
// callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now.Add(d)
	ran := 0
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		next.done = true
		m.now = next.deadline
		next.fn()
		ran++
	}
	m.now = target
	m.compact()
	return ran
}

// Pending returns the number of callbacks that have not run or been cancelled.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.pending {
		if !t.done {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(target time.Time) *manualTask {
	live := m.pending[:0:0]
	for _, t := range m.pending {
		if !t.done && !t.deadline.After(target) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].deadline.Equal(live[j].deadline) {
			return live[i].seq < live[j].seq
		}
		return live[i].deadline.Before(live[j].deadline)
	})
	return live[0]
}

func (m *Manual) compact() {
	kept := m.pending[:0]
	for _, t := range m.pending {
		if !t.done {
			kept = append(kept, t)
		}
	}
	m.pending = kept
}

// LoopScheduler adapts a Clock to the single-owner event loop model: when a
// timer fires, its callback is posted to Ready() instead of being run on the
// timer goroutine. The loop owner drains Ready() and runs each callback.
type LoopScheduler struct {
	clock Clock
	ready chan func()
	done  chan struct{}
	once  atomic.Bool
}

// NewLoopScheduler creates a LoopScheduler over clock. buffer sizes the
// ready queue; fired callbacks block their timer goroutine while it is full.
func NewLoopScheduler(clock Clock, buffer int) *LoopScheduler {
	if buffer < 1 {
		buffer = 1
	}
	return &LoopScheduler{
		clock: clock,
		ready: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Now returns the underlying clock's time.
func (s *LoopScheduler) Now() time.Time { return s.clock.Now() }

// Ready delivers callbacks whose timers have fired.
func (s *LoopScheduler) Ready() <-chan func() { return s.ready }

// Schedule arms a timer that posts fn to Ready() after d.
func (s *LoopScheduler) Schedule(d time.Duration, fn func()) Handle {
	h := &loopHandle{fn: fn}
	h.timer = s.clock.AfterFunc(d, func() {
		select {
		case s.ready <- h.run:
		case <-s.done:
		}
	})
	return h
}

// Close releases timer goroutines blocked on a full ready queue. Callbacks
// posted after Close are dropped.
func (s *LoopScheduler) Close() {
	if s.once.CompareAndSwap(false, true) {
		close(s.done)
	}
}

type loopHandle struct {
	timer     Timer
	fn        func()
	cancelled atomic.Bool
}

// Cancel stops the timer. A callback already posted to the ready queue is
// still delivered but becomes a no-op.
func (h *loopHandle) Cancel() bool {
	if h.cancelled.Swap(true) {
		return false
	}
	h.timer.Stop()
	return true
}

func (h *loopHandle) run() {
	if h.cancelled.Swap(true) {
		return
	}
	h.fn()
}
