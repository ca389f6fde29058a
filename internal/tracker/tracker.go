// Package tracker smooths a noisy per-frame classification stream into a
// stable, bounded set of recently seen values.
//
// Entries never expire by age. An entry leaves the set only when a new value
// arrives while the set is full (the least recently seen entry is evicted)
// or on Reset. A value seen once and never again therefore stays until
// capacity pressure pushes it out.
package tracker

// DefaultCapacity is the number of values tracked when none is configured.
const DefaultCapacity = 5

type entry[T comparable] struct {
	value    T
	lastSeen float64
	order    uint64
}

// Tracker is a bounded, recency-ordered set of classification values.
// It is not safe for concurrent use.
type Tracker[T comparable] struct {
	maxCapacity int
	entries     map[T]*entry[T]
	nextOrder   uint64
}

// New creates a Tracker holding at most maxCapacity values. Values below 1
// are clamped to 1.
func New[T comparable](maxCapacity int) *Tracker[T] {
	if maxCapacity < 1 {
		maxCapacity = 1
	}
	return &Tracker[T]{
		maxCapacity: maxCapacity,
		entries:     make(map[T]*entry[T], maxCapacity),
	}
}

// Capacity returns the maximum number of tracked values.
func (t *Tracker[T]) Capacity() int { return t.maxCapacity }

// Len returns the number of tracked values.
func (t *Tracker[T]) Len() int { return len(t.entries) }

// Update records every value in batch as seen at now. Already tracked values
// are refreshed in place and never cause an eviction. A new value arriving
// while the set is full evicts the entry with the oldest last-seen time.
func (t *Tracker[T]) Update(batch []T, now float64) {
	for _, v := range batch {
		if e, ok := t.entries[v]; ok {
			if now > e.lastSeen {
				e.lastSeen = now
			}
			continue
		}
		if len(t.entries) >= t.maxCapacity {
			t.evictOldest()
		}
		t.nextOrder++
		t.entries[v] = &entry[T]{value: v, lastSeen: now, order: t.nextOrder}
	}
}

// evictOldest removes the least recently seen entry. Ties go to the entry
// inserted first so eviction is deterministic.
func (t *Tracker[T]) evictOldest() {
	var oldest *entry[T]
	for _, e := range t.entries {
		if oldest == nil || e.lastSeen < oldest.lastSeen ||
			(e.lastSeen == oldest.lastSeen && e.order < oldest.order) {
			oldest = e
		}
	}
	if oldest != nil {
		delete(t.entries, oldest.value)
	}
}

// Current returns the tracked values in insertion order.
func (t *Tracker[T]) Current() []T {
	list := make([]*entry[T], 0, len(t.entries))
	for _, e := range t.entries {
		list = append(list, e)
	}
	// insertion sort: the set is tiny
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].order < list[j-1].order; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
	out := make([]T, len(list))
	for i, e := range list {
		out[i] = e.value
	}
	return out
}

// LastSeen returns when v was last seen, if it is tracked.
func (t *Tracker[T]) LastSeen(v T) (float64, bool) {
	e, ok := t.entries[v]
	if !ok {
		return 0, false
	}
	return e.lastSeen, true
}

// Reset clears all tracked values.
func (t *Tracker[T]) Reset() {
	t.entries = make(map[T]*entry[T], t.maxCapacity)
	t.nextOrder = 0
}
