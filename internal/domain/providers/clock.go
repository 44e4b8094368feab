package providers

import "time"

// Clock abstracts "now" so availability and lifecycle logic never read the
// ambient wall clock directly. Tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
