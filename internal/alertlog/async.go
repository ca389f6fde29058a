package alertlog

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/vision.safety/internal/engine"
	"github.com/banshee-data/vision.safety/internal/monitoring"
)

// ErrQueueFull is returned when an alert is dropped because the writer has
// fallen behind.
var ErrQueueFull = errors.New("alert log queue full")

// DefaultQueueSize is how many alerts may wait for the database.
const DefaultQueueSize = 256

// AsyncRecorder queues alerts for a background writer so the engine loop
// never waits on database I/O. When the queue is full the alert is dropped
// and counted.
type AsyncRecorder struct {
	next  engine.AlertRecorder
	queue chan engine.AlertEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewAsyncRecorder starts a writer that forwards queued alerts to next.
func NewAsyncRecorder(next engine.AlertRecorder, size int) *AsyncRecorder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	r := &AsyncRecorder{
		next:  next,
		queue: make(chan engine.AlertEvent, size),
		done:  make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *AsyncRecorder) drain() {
	defer close(r.done)
	for ev := range r.queue {
		if err := r.next.RecordAlert(ev); err != nil {
			r.failed.Add(1)
			monitoring.Logf("alertlog: %v", err)
			continue
		}
		r.written.Add(1)
	}
}

// RecordAlert queues ev without blocking.
func (r *AsyncRecorder) RecordAlert(ev engine.AlertEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return ErrQueueFull
	}
	select {
	case r.queue <- ev:
		return nil
	default:
		r.dropped.Add(1)
		return ErrQueueFull
	}
}

// Close stops accepting alerts and waits for queued ones to be written.
func (r *AsyncRecorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

// Stats returns how many alerts were written, dropped on a full queue, and
// rejected by the database.
func (r *AsyncRecorder) Stats() (written, dropped, failed int64) {
	return r.written.Load(), r.dropped.Load(), r.failed.Load()
}
