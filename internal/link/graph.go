package link

// Graph maps each defined symbol to the set of symbol names its definition
// body references. Built once per link; reachability queries do not mutate.
type Graph struct {
	Edges map[string]map[string]struct{}
}

// BuildGraph scans every definition across all tables and records an edge
// from -> to when the body references a name known to any table (or itself).
// References to names never declared anywhere — bare C library calls and the
// like — are filtered out here and left for the external link step.
func BuildGraph(tables []*SymbolTable) *Graph {
	known := make(map[string]struct{})
	for _, t := range tables {
		for _, name := range t.Names {
			if _, ok := known[name]; !ok {
				known[name] = struct{}{}
			}
		}
	}

	g := &Graph{Edges: make(map[string]map[string]struct{})}
	defSeen := make(map[string]struct{})
	for _, t := range tables {
		for _, name := range t.Names {
			sym := t.Symbols[name]
			if sym == nil || !sym.IsDefinition {
				continue
			}
			// First definition wins for edge extraction; later duplicates
			// reference the same code anyway.
			if _, dup := defSeen[name]; dup {
				continue
			}
			defSeen[name] = struct{}{}
			edges := make(map[string]struct{})
			for _, ref := range References(sym.Text) {
				if _, ok := known[ref]; ok || ref == name {
					edges[ref] = struct{}{}
				}
			}
			g.Edges[name] = edges
		}
	}
	return g
}

// ReachableFrom computes the closure of symbols transitively referenced from
// the root set. Only symbols in the closure survive linking; everything else
// is dead code.
func (g *Graph) ReachableFrom(roots []string) map[string]struct{} {
	reachable := make(map[string]struct{}, len(roots))
	queue := make([]string, 0, len(roots))
	for _, r := range roots {
		if _, ok := reachable[r]; !ok {
			reachable[r] = struct{}{}
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for to := range g.Edges[cur] {
			if _, ok := reachable[to]; !ok {
				reachable[to] = struct{}{}
				queue = append(queue, to)
			}
		}
	}
	return reachable
}
