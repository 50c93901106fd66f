package di

import "time"

// Observer receives resolution lifecycle events. Implementations must be
// safe for concurrent use: ServiceStarted/ServiceResolved/ServiceFailed are
// called from the goroutines building independent branches.
type Observer interface {
	// ResolutionStarted fires after graph validation, before any factory runs.
	ResolutionStarted(services int)

	// ServiceStarted fires when a service's factory begins executing.
	ServiceStarted(service string)

	// ServiceResolved fires when a service's factory returns successfully.
	ServiceResolved(service string, elapsed time.Duration)

	// ServiceFailed fires when a service's factory returns an error.
	ServiceFailed(service string, elapsed time.Duration, err error)

	// ResolutionFinished fires once per run with the total duration and the
	// CompositionError, if any. It fires even when graph validation fails
	// and no factory ran.
	ResolutionFinished(elapsed time.Duration, err error)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) ResolutionStarted(int)                      {}
func (NopObserver) ServiceStarted(string)                      {}
func (NopObserver) ServiceResolved(string, time.Duration)      {}
func (NopObserver) ServiceFailed(string, time.Duration, error) {}
func (NopObserver) ResolutionFinished(time.Duration, error)    {}
