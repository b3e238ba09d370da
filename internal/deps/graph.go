package deps

import "slices"

// Graph is a module dependency graph: each module maps to the modules it
// imports. Insertion order is preserved so ordering is deterministic for
// identical input.
type Graph struct {
	order []string
	deps  map[string][]string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// Add registers a module and its import list. Self-loops are dropped.
// Adding the same module twice keeps the first import list.
func (g *Graph) Add(module string, imports []string) {
	if _, ok := g.deps[module]; ok {
		return
	}
	g.order = append(g.order, module)

	var deps []string
	for _, imp := range imports {
		if imp == module || slices.Contains(deps, imp) {
			continue
		}
		deps = append(deps, imp)
	}
	g.deps[module] = deps
}

// Has reports whether the module is in the graph.
func (g *Graph) Has(module string) bool {
	_, ok := g.deps[module]
	return ok
}

// Dependencies returns the modules that module imports.
func (g *Graph) Dependencies(module string) []string {
	return slices.Clone(g.deps[module])
}

// Modules returns all modules in insertion order.
func (g *Graph) Modules() []string {
	return slices.Clone(g.order)
}

// CompileOrder returns every module exactly once, dependencies before
// dependents (Kahn's algorithm). Modules caught in import cycles cannot be
// ordered; they are appended at the end in insertion order and also returned
// separately so the caller can log a warning. Edges to modules outside the
// graph are ignored: a missing dependency is the compiler's problem, not an
// ordering constraint.
func (g *Graph) CompileOrder() (order []string, cyclic []string) {
	indegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string)

	for _, mod := range g.order {
		for _, dep := range g.deps[mod] {
			if _, ok := g.deps[dep]; !ok {
				continue
			}
			indegree[mod]++
			dependents[dep] = append(dependents[dep], mod)
		}
	}

	var queue []string
	for _, mod := range g.order {
		if indegree[mod] == 0 {
			queue = append(queue, mod)
		}
	}

	emitted := make(map[string]bool, len(g.order))
	for len(queue) > 0 {
		mod := queue[0]
		queue = queue[1:]
		order = append(order, mod)
		emitted[mod] = true

		for _, dep := range dependents[mod] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	for _, mod := range g.order {
		if !emitted[mod] {
			cyclic = append(cyclic, mod)
			order = append(order, mod)
		}
	}

	return order, cyclic
}
