package framemux

import (
	"sync"
	"sync/atomic"
)

// subscriberSet fans lines out to buffered subscriber channels. Once ended,
// every channel is closed and new subscribers receive a closed channel.
type subscriberSet struct {
	buffer int

	mu    sync.Mutex
	subs  map[string]chan string
	ended bool

	dropped atomic.Int64
}

func newSubscriberSet(buffer int) *subscriberSet {
	return &subscriberSet{buffer: buffer, subs: make(map[string]chan string)}
}

func (s *subscriberSet) add() (string, chan string) {
	id := randomID()
	ch := make(chan string, s.buffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		close(ch)
		return id, ch
	}
	s.subs[id] = ch
	return id, ch
}

func (s *subscriberSet) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

// end closes every channel. It is safe to call more than once.
func (s *subscriberSet) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// publish delivers line to every subscriber with room for it; the rest miss
// it and are counted as dropped.
func (s *subscriberSet) publish(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- line:
		default:
			s.dropped.Add(1)
		}
	}
}

func (s *subscriberSet) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
