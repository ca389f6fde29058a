package alert

// Loop tracks a looping sound bound to a condition. Update reports edges so
// callers start the loop once when the condition becomes true and stop it
// once when it clears, independent of frame rate.
type Loop struct {
	category Category
	active   bool
}

// NewLoop creates an inactive loop binding.
func NewLoop(category Category) *Loop {
	return &Loop{category: category}
}

// Category returns the loop's category.
func (l *Loop) Category() Category { return l.category }

// Update feeds the current condition and reports whether the loop must be
// started or stopped.
func (l *Loop) Update(active bool) (start, stop bool) {
	switch {
	case active && !l.active:
		start = true
	case !active && l.active:
		stop = true
	}
	l.active = active
	return start, stop
}

// Active reports whether the loop is currently playing.
func (l *Loop) Active() bool { return l.active }

// Reset marks the loop inactive without reporting an edge.
func (l *Loop) Reset() { l.active = false }
