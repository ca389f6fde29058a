// Package timeutil provides the clock and one-shot scheduling used by the
// alert engine. Every cooldown, highlight and publish cadence goes through a
// Scheduler so tests can drive time deterministically.
package timeutil

import (
	"time"
)

// Clock provides an abstraction over wall-clock time for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration

	// AfterFunc waits for the duration to elapse and then calls f in its own
	// goroutine (RealClock) or synchronously from Advance (Manual).
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer represents a single pending AfterFunc call.
type Timer interface {
	// Stop prevents the Timer from firing. It reports whether the call was
	// still pending.
	Stop() bool
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// AfterFunc schedules f on a runtime timer.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
