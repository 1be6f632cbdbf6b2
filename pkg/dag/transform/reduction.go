package transform

import (
	"github.com/matzehuels/nativemerge/pkg/dag"
	"github.com/matzehuels/nativemerge/pkg/dag/traverse"
)

// TransitiveReduction removes redundant edges from the graph and returns the
// number of edges removed.
//
// TransitiveReduction removes any edge (u, v) where there exists an alternate
// path from u to v through at least one intermediate node. For example, if
// edges A→B, B→C, and A→C all exist, then A→C is redundant and is removed
// because A reaches C via B.
//
// # Algorithm
//
// Reachability is computed per node with a non-recursive post-order walk,
// then any edge (u, v) where some other child w of u reaches v is dropped.
// The graph must be acyclic; on a cycle the graph is left untouched and the
// traversal error is returned.
//
// # Performance
//
// Time complexity is O(V·(V+E)) and space O(V²) for the reachability sets,
// which is comfortable for library graphs (tens to hundreds of nodes).
//
// # Edge Metadata
//
// TransitiveReduction preserves edge metadata for all non-redundant edges.
// Metadata on removed edges is discarded.
func TransitiveReduction(g *dag.DAG) (int, error) {
	ids := g.IDs()
	if len(ids) == 0 {
		return 0, nil
	}

	reach := make(map[string]map[string]bool, len(ids))
	for _, id := range ids {
		below, err := traverse.PostOrder(g.Children(id), g.Children)
		if err != nil {
			return 0, err
		}
		set := make(map[string]bool, len(below))
		for _, n := range below {
			if n == id {
				return 0, &traverse.CycleError[string]{Path: []string{id, id}}
			}
			set[n] = true
		}
		reach[id] = set
	}

	var redundant []dag.Edge
	for _, e := range g.Edges() {
		for _, via := range g.Children(e.From) {
			if via != e.To && reach[via][e.To] {
				redundant = append(redundant, e)
				break
			}
		}
	}
	for _, e := range redundant {
		g.RemoveEdge(e.From, e.To)
	}
	return len(redundant), nil
}
