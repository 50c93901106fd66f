package di

import "reflect"

// Resolved maps every registered service name to the instance its factory
// produced. It is created fresh per resolution run and must not be mutated
// after a successful run.
type Resolved map[string]any

// Get returns the raw instance registered under name.
func (r Resolved) Get(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

// Names returns the resolved service names in unspecified order.
func (r Resolved) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// As returns the instance registered under name typed as T. It returns a
// MissingServiceError if the name is absent and a WrongTypeError if the
// instance is not a T.
func As[T any](r Resolved, name string) (T, error) {
	var zero T
	raw, ok := r[name]
	if !ok {
		return zero, &MissingServiceError{Name: name}
	}
	v, ok := raw.(T)
	if !ok {
		got := "<nil>"
		if raw != nil {
			got = reflect.TypeOf(raw).String()
		}
		return zero, &WrongTypeError{Name: name, Got: got}
	}
	return v, nil
}

// MustAs is As that panics on error. Intended for composition roots where a
// type mismatch is a programming mistake.
func MustAs[T any](r Resolved, name string) T {
	v, err := As[T](r, name)
	if err != nil {
		panic(err)
	}
	return v
}
