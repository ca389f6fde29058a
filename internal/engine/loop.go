package engine

import (
	"context"

	"github.com/banshee-data/vision.safety/internal/monitoring"
	"github.com/banshee-data/vision.safety/internal/perception"
)

// Loop owns an Engine and serialises everything that touches it: perception
// frames, fired timer callbacks and posted commands all run on the
// goroutine that calls Run.
type Loop struct {
	engine *Engine
	timers <-chan func()
	cmds   chan func(*Engine)
}

// NewLoop creates a loop around e. timers is the ready channel of the
// scheduler the engine was built with; it may be nil when the scheduler
// runs callbacks itself.
func NewLoop(e *Engine, timers <-chan func()) *Loop {
	return &Loop{
		engine: e,
		timers: timers,
		cmds:   make(chan func(*Engine)),
	}
}

// Run processes frames until ctx is cancelled or frames is closed.
func (l *Loop) Run(ctx context.Context, frames <-chan perception.Frame) error {
	var handled uint64
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("engine: loop stopping after %d frames", handled)
			return ctx.Err()
		case f, ok := <-frames:
			if !ok {
				monitoring.Logf("engine: frame source closed after %d frames", handled)
				return nil
			}
			l.engine.HandleFrame(f)
			handled++
		case fn := <-l.timers:
			fn()
		case cmd := <-l.cmds:
			cmd(l.engine)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*Engine)) error {
	done := make(chan struct{})
	wrapped := func(e *Engine) {
		defer close(done)
		fn(e)
	}
	select {
	case l.cmds <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
