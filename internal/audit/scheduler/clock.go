package scheduler

import "time"

// Clock abstracts wall-clock time so the loop is testable without real
// waits.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// NewRealClock returns the production clock.
func NewRealClock() Clock { return realClock{} }
