// Package toposort implements the dispatcher's scheduling algorithm
// (spec §4.5): Kahn's algorithm over a before/after graph. Among nodes
// with no remaining predecessors, the greatest hook name by lexicographic
// order runs next -- verified against spec §8's worked example (A
// after={C}, B before={A}, C no deps orders as C, B, A: B and C are both
// ready first, and C, the lexicographically greater of the two, goes
// ahead of B). Both the live dispatcher (ordering matched hooks) and the
// offline wphookctl tool (ordering a whole manifest) build on this.
package toposort

import "sort"

// Edge is a directed constraint: Before must run before After.
type Edge struct {
	Before string
	After  string
}

// Order topologically sorts names given edges. Edges naming a node not
// present in names are ignored, matching §4.5's "hook names appearing
// in before/after that are not in M are ignored silently".
//
// It returns the order of every node that could be scheduled, and
// separately the names left over once no more nodes have zero
// in-degree -- the cyclic remainder. A non-nil cyclic slice means a
// cycle was found; callers decide how to report or skip it.
func Order(names []string, edges []Edge) (ordered, cyclic []string) {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	adj := make(map[string]map[string]bool, len(names))
	indeg := make(map[string]int, len(names))
	for _, n := range names {
		adj[n] = map[string]bool{}
		indeg[n] = 0
	}

	for _, e := range edges {
		if e.Before == e.After || !known[e.Before] || !known[e.After] {
			continue
		}
		if adj[e.Before][e.After] {
			continue
		}
		adj[e.Before][e.After] = true
		indeg[e.After]++
	}

	sortedNames := make([]string, len(names))
	copy(sortedNames, names)
	sort.Strings(sortedNames)

	ready := make([]string, 0, len(sortedNames))
	remaining := make(map[string]bool, len(sortedNames))
	for _, n := range sortedNames {
		remaining[n] = true
		if indeg[n] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	for len(ready) > 0 {
		n := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		ordered = append(ordered, n)
		delete(remaining, n)

		var newlyReady []string
		for next := range adj[n] {
			indeg[next]--
			if indeg[next] == 0 {
				newlyReady = append(newlyReady, next)
			}
		}
		if len(newlyReady) > 0 {
			ready = append(ready, newlyReady...)
			sort.Strings(ready)
		}
	}

	if len(remaining) > 0 {
		cyclic = make([]string, 0, len(remaining))
		for n := range remaining {
			cyclic = append(cyclic, n)
		}
		sort.Strings(cyclic)
	}

	return ordered, cyclic
}
