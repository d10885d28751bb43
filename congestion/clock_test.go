package congestion

import "time"

// mockClock is a settable Clock for deterministic tests, the same shape
// the teacher's cubic_sender_test.go uses.
type mockClock time.Time

func (c *mockClock) Now() time.Time {
	return time.Time(*c)
}

func (c *mockClock) Advance(d time.Duration) {
	*c = mockClock(time.Time(*c).Add(d))
}
