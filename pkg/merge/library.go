package merge

import (
	"fmt"
	"path"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/nativemerge/pkg/dag"
	"github.com/matzehuels/nativemerge/pkg/errors"
	"github.com/matzehuels/nativemerge/pkg/linkgraph"
	"github.com/matzehuels/nativemerge/pkg/mergespec"
)

// Library is one output library of a merge.
type Library struct {
	Key        FinalLibraryKey
	Name       string
	MergeGroup int
	Module     string
	Excluded   bool
	Members    []linkgraph.Target // In resolution order
}

// namer assigns library names. Each stem has its own occurrence counter: the
// first library with a stem keeps it, later ones get "_1", "_2" and so on.
// A candidate already in use bumps the counter again.
type namer struct {
	used   map[string]bool
	counts map[string]int
}

func newNamer() *namer {
	return &namer{used: make(map[string]bool), counts: make(map[string]int)}
}

// reserve claims name outright. It reports false if name is taken.
func (n *namer) reserve(name string) bool {
	if n.used[name] {
		return false
	}
	n.used[name] = true
	return true
}

func (n *namer) next(stem, ext string) string {
	for {
		c := n.counts[stem]
		n.counts[stem]++
		name := stem
		if c > 0 {
			name = fmt.Sprintf("%s_%d", stem, c)
		}
		name += ext
		if n.reserve(name) {
			return name
		}
	}
}

// nameLibraries walks the library graph consumer-first and names every
// library. It returns the libraries in that order together with a graph
// whose node IDs are the library names.
func (a *assigner) nameLibraries(seq mergespec.Sequence) ([]*Library, *dag.DAG, error) {
	order, err := a.keys.TopoSort()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeCycleInLibraries, err, "final library graph is cyclic")
	}

	// Modules of the non-excluded members of each merge group.
	spans := make(map[int]mapset.Set[string])
	for _, t := range a.order {
		nd := a.nodes[t]
		if nd.Excluded {
			continue
		}
		if spans[nd.MergeGroup] == nil {
			spans[nd.MergeGroup] = mapset.NewThreadUnsafeSet[string]()
		}
		spans[nd.MergeGroup].Add(nd.Module)
	}

	names := newNamer()
	libs := make([]*Library, 0, len(order))
	for _, id := range order {
		lib := a.libs[a.libKeys[id]]
		if lib.Excluded {
			raw := a.nodes[lib.Members[0]].BaseName
			if !names.reserve(raw) {
				return nil, nil, errors.New(errors.ErrCodeInconsistentGraph, "excluded target %s has raw name %q which is already in use", lib.Members[0], raw)
			}
			lib.Name = raw
		}
		libs = append(libs, lib)
	}

	for _, lib := range libs {
		if lib.Excluded {
			continue
		}
		if lib.MergeGroup >= len(seq) {
			return nil, nil, errors.New(errors.ErrCodeInternal, "library %s of the implicit group is not excluded", lib.Key)
		}
		full := seq[lib.MergeGroup].Name
		ext := path.Ext(full)
		stem := strings.TrimSuffix(full, ext)
		if spans[lib.MergeGroup].Cardinality() > 1 && !a.modules.IsRoot(lib.Module) {
			stem += "_" + lib.Module
		}
		lib.Name = names.next(stem, ext)
	}

	g := dag.New(nil)
	for _, lib := range libs {
		_ = g.AddNode(dag.Node{ID: lib.Name, Meta: dag.Metadata{
			"key":         lib.Key.String(),
			"module":      lib.Module,
			"merge_group": lib.MergeGroup,
			"excluded":    lib.Excluded,
			"members":     len(lib.Members),
		}})
	}
	for _, e := range a.keys.Edges() {
		from := a.libs[a.libKeys[e.From]].Name
		to := a.libs[a.libKeys[e.To]].Name
		if err := g.AddEdge(dag.Edge{From: from, To: to}); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "library edge %s -> %s", from, to)
		}
	}
	return libs, g, nil
}
