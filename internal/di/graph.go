package di

// graph is the validated dependency graph over service names. Edges point
// from a service to the services it depends on.
type graph struct {
	// nodes in registration order.
	nodes []string

	// edges[name] lists name's dependencies in declared order.
	edges map[string][]string

	// order is a topological ordering with dependencies before dependents.
	// Ties among independent services follow registration order.
	order []string
}

// dfs colors.
const (
	white = iota // unvisited
	gray         // on the current DFS path
	black        // fully explored
)

// buildGraph converts the registry into a validated dependency graph. It
// fails with an UnknownDependencyError if a descriptor references a name not
// present in the registry, and with a CyclicDependencyError if any service is
// reachable from itself. A self-dependency surfaces as a two-hop cycle.
func buildGraph(reg *Registry) (*graph, error) {
	descriptors := reg.All()

	g := &graph{
		nodes: make([]string, 0, len(descriptors)),
		edges: make(map[string][]string, len(descriptors)),
		order: make([]string, 0, len(descriptors)),
	}

	for _, d := range descriptors {
		g.nodes = append(g.nodes, d.Name)
		for _, dep := range d.Dependencies {
			if _, ok := reg.Lookup(dep); !ok {
				return nil, &UnknownDependencyError{Service: d.Name, Dependency: dep}
			}
		}
		g.edges[d.Name] = d.Dependencies
	}

	color := make(map[string]int, len(g.nodes))
	var path []string

	// Iterative DFS would obscure the path bookkeeping; the graph is a
	// startup-sized set of services, so recursion depth is not a concern.
	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		path = append(path, name)

		for _, dep := range g.edges[name] {
			switch color[dep] {
			case gray:
				// Revisited while in progress: extract the cycle from the
				// first occurrence of dep on the current path.
				start := 0
				for i, n := range path {
					if n == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), dep)
				return &CyclicDependencyError{Path: cycle}
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[name] = black
		g.order = append(g.order, name) // postorder: dependencies first
		return nil
	}

	for _, name := range g.nodes {
		if color[name] == white {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}
