package di

import (
	"fmt"
	"strings"
)

// DuplicateNameError is returned by Registry.Register when two descriptors
// are registered under the same name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("di: service %q is already registered", e.Name)
}

// UnknownDependencyError is returned during graph validation when a
// descriptor declares a dependency that is not present in the registry. It
// names both the dependent service and the missing target.
type UnknownDependencyError struct {
	Service    string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("di: service %q depends on unknown service %q", e.Service, e.Dependency)
}

// CyclicDependencyError is returned during graph validation when the
// dependency graph contains a cycle. Path is the ordered sequence of service
// names forming the cycle; the first and last entries are the same service.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("di: dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}

// FactoryError is the failure of one specific service's factory. It carries
// the service name and the underlying cause.
type FactoryError struct {
	Service string
	Err     error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("di: factory for service %q failed: %v", e.Service, e.Err)
}

func (e *FactoryError) Unwrap() error {
	return e.Err
}

// CompositionError is the resolver's single externally visible failure type.
// It wraps the originating validation or factory error, names the service
// that failed (empty for validation failures, which happen before any
// factory runs), and lists the services that were skipped because something
// upstream of them failed.
type CompositionError struct {
	// Failed is the name of the service whose factory failed, or "" when the
	// failure happened during graph validation.
	Failed string

	// Skipped lists, in registration order, the services whose factories
	// never ran because a dependency (direct or transitive) failed or the
	// run was cancelled.
	Skipped []string

	// Err is the underlying failure.
	Err error
}

func (e *CompositionError) Error() string {
	msg := fmt.Sprintf("di: composition failed: %v", e.Err)
	if len(e.Skipped) > 0 {
		msg += fmt.Sprintf(" (skipped: %s)", strings.Join(e.Skipped, ", "))
	}
	return msg
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// MissingServiceError is returned by As when the requested name is not
// present in the resolved set.
type MissingServiceError struct {
	Name string
}

func (e *MissingServiceError) Error() string {
	return fmt.Sprintf("di: resolved service %q not found", e.Name)
}

// WrongTypeError is returned by As when the resolved instance exists but is
// not of the requested type.
type WrongTypeError struct {
	Name string
	Got  string
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("di: resolved service %q has wrong type (%s)", e.Name, e.Got)
}
