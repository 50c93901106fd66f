// Package clock wraps time access behind a local name so services can be
// tested against a fixed clock. Library layer: no configuration access, no
// knowledge of other layers.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// NewSystemClock creates a Clock backed by the system time.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same instant. Intended for tests.
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return c.Instant
}
