package congestion

import "time"

// Clock abstracts time.Now so that epoch and round-trip timing can be
// driven deterministically from tests, the same role the teacher's
// congestion.Clock interface plays for its pacer and Cubic calculator.
type Clock interface {
	Now() time.Time
}

// realClock is the production Clock, backed by the wall clock.
type realClock struct{}

// Now returns the current wall-clock time.
func (realClock) Now() time.Time { return time.Now() }

// DefaultClock is the Clock used when none is supplied to NewSender.
var DefaultClock Clock = realClock{}
