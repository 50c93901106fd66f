// Package di provides an explicit, graph-driven composition resolver.
//
// Services are declared as named descriptors, each listing the names of the
// services it depends on and a factory that builds it. A resolution run
// validates the whole graph up front (unknown names, cycles), then invokes
// every factory exactly once in dependency order, running independent
// branches concurrently. The run ends with either a complete set of
// instances or a single CompositionError; no partially built set is ever
// exposed.
package di

import "context"

// Dependencies carries the already-resolved instances of a service's declared
// dependencies, keyed by service name. A factory only ever sees the
// dependencies its descriptor declares, never the full service set.
type Dependencies map[string]any

// Factory builds one service instance. It receives the resolved instances of
// its declared dependencies and an opaque configuration slice scoped to this
// service. Factories may block on slow work (connection handshakes, etc.) but
// must return promptly once ctx is cancelled.
type Factory func(ctx context.Context, deps Dependencies, cfg any) (any, error)

// Descriptor declares a single service: its unique name, the names of the
// services it depends on, and the factory that constructs it.
type Descriptor struct {
	Name         string
	Dependencies []string
	Factory      Factory
}

// dedupedDependencies collapses duplicate dependency names, keeping the first
// occurrence so error messages stay deterministic.
func (d Descriptor) dedupedDependencies() []string {
	if len(d.Dependencies) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(d.Dependencies))
	deps := make([]string, 0, len(d.Dependencies))
	for _, name := range d.Dependencies {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		deps = append(deps, name)
	}
	return deps
}
