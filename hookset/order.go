package hookset

import (
	"wireplumber/internal/toposort"
	"wireplumber/internal/werror"
)

// Order computes the dispatcher's topological order (spec §4.5) over
// every hook in docs, as if all of them matched the same event. It is
// the offline counterpart to the dispatcher's per-event scheduler,
// letting cmd/wphookctl report a manifest's execution order and flag
// cycles without running anything.
func Order(docs []HookDoc) (ordered []string, cyclic []string, err error) {
	names := make([]string, 0, len(docs))
	byName := make(map[string]HookDoc, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
		byName[d.Name] = d
	}

	var edges []toposort.Edge
	for _, n := range names {
		d := byName[n]
		for _, b := range d.Before {
			edges = append(edges, toposort.Edge{Before: n, After: b})
		}
		for _, a := range d.After {
			edges = append(edges, toposort.Edge{Before: a, After: n})
		}
	}

	ordered, cyclic = toposort.Order(names, edges)
	if len(cyclic) > 0 {
		return ordered, cyclic, &werror.CycleError{Hooks: cyclic}
	}
	return ordered, nil, nil
}
