package merge

import (
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/nativemerge/pkg/dag"
	"github.com/matzehuels/nativemerge/pkg/errors"
	"github.com/matzehuels/nativemerge/pkg/linkgraph"
)

// NodeData is everything computed for one target. It is written once, when
// the target's merge group is assigned, and never changed afterwards.
type NodeData struct {
	Target     linkgraph.Target
	BaseName   string // Raw name of the target
	Module     string
	MergeGroup int
	Excluded   bool
	RootSets   string // Canonical root-set key, empty for single-root-set groups
	SplitGroup int
	Key        FinalLibraryKey
	Closure    mapset.Set[string] // Transitive module closure, own module included
	Reentries  ReentryCounts
}

// ClosureKey returns the canonical form of the module closure.
func (n *NodeData) ClosureKey() string { return closureKey(n.Closure) }

func closureKey(s mapset.Set[string]) string {
	mods := s.ToSlice()
	slices.Sort(mods)
	return strings.Join(mods, ",")
}

// assigner holds the state of one merge run: every target resolved so far,
// the split-group registry, and the graph of final library keys. It is owned
// by a single Compute call.
type assigner struct {
	graph     *linkgraph.Graph
	modules   *linkgraph.ModuleGraph
	blocklist *linkgraph.Blocklist

	nodes  map[linkgraph.Target]*NodeData
	order  []linkgraph.Target
	splits *registry[SplitGroupKey]

	keys    *dag.DAG
	libKeys map[string]FinalLibraryKey
	libs    map[FinalLibraryKey]*Library
}

func newAssigner(g *linkgraph.Graph, modules *linkgraph.ModuleGraph, bl *linkgraph.Blocklist) *assigner {
	return &assigner{
		graph:     g,
		modules:   modules,
		blocklist: bl,
		nodes:     make(map[linkgraph.Target]*NodeData, g.Len()),
		splits:    newRegistry[SplitGroupKey](),
		keys:      dag.New(nil),
		libKeys:   make(map[string]FinalLibraryKey),
		libs:      make(map[FinalLibraryKey]*Library),
	}
}

// assign resolves the targets newly claimed by merge group mg. post lists
// them dependencies first. rootSets holds the root-set key per target for
// groups split by root set, and is nil otherwise. When forceExcluded is set
// every target is treated as excluded.
func (a *assigner) assign(mg int, post []linkgraph.Target, rootSets map[linkgraph.Target]string, forceExcluded bool) error {
	for _, t := range post {
		if _, done := a.nodes[t]; done {
			return errors.New(errors.ErrCodeInconsistentGraph, "target %s claimed by merge group %d was already assigned to merge group %d", t, mg, a.nodes[t].MergeGroup)
		}
		n, ok := a.graph.Node(t)
		if !ok {
			return errors.New(errors.ErrCodeInconsistentGraph, "target %s is not in the linkable graph", t)
		}

		module := a.modules.Module(t)

		closure := mapset.NewThreadUnsafeSet(module)
		for _, d := range n.Deps {
			dep, ok := a.nodes[d]
			if !ok {
				return errors.New(errors.ErrCodeInconsistentGraph, "dependency %s of %s was not resolved before its dependent", d, t)
			}
			closure = closure.Union(dep.Closure)
		}

		excluded := forceExcluded || a.blocklist.Excludes(n)

		key := SplitGroupKey{Module: module, MergeGroup: mg, RootSets: rootSets[t]}
		if excluded {
			key.Excluded = t
		}
		if a.modules.IsRoot(module) {
			key.Closure = closureKey(closure)
		}
		split := a.splits.id(key)

		reentries := make(ReentryCounts)
		for _, d := range n.Deps {
			dep := a.nodes[d]
			if dep.MergeGroup != mg {
				continue
			}
			g := dep.SplitGroup
			crosses := g != split
			if _, seen := reentries[g]; crosses && !dep.Excluded && !seen {
				reentries[g] = 1
			}
			for grp, c := range dep.Reentries {
				if grp == g && crosses {
					c++
				}
				reentries.record(grp, c)
			}
		}

		var layer Layer
		if a.modules.IsRoot(module) {
			layer.Signature = reentries.String()
		} else {
			layer.Count = reentries[split]
		}

		nd := &NodeData{
			Target:     t,
			BaseName:   n.RawName,
			Module:     module,
			MergeGroup: mg,
			Excluded:   excluded,
			RootSets:   rootSets[t],
			SplitGroup: split,
			Key:        FinalLibraryKey{SplitGroup: split, Layer: layer},
			Closure:    closure,
			Reentries:  reentries,
		}
		a.nodes[t] = nd
		a.order = append(a.order, t)

		if err := a.addLibraryNode(nd, n.Deps); err != nil {
			return err
		}
	}
	return nil
}

// addLibraryNode registers nd's final library and its edges to the libraries
// of its dependencies. Edges within one library are dropped.
func (a *assigner) addLibraryNode(nd *NodeData, deps []linkgraph.Target) error {
	lib, ok := a.libs[nd.Key]
	if !ok {
		lib = &Library{
			Key:        nd.Key,
			MergeGroup: nd.MergeGroup,
			Module:     nd.Module,
			Excluded:   nd.Excluded,
		}
		a.libs[nd.Key] = lib
		id := nd.Key.String()
		a.libKeys[id] = nd.Key
		if err := a.keys.AddNode(dag.Node{ID: id}); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "library key %s", id)
		}
	}
	lib.Members = append(lib.Members, nd.Target)

	from := nd.Key.String()
	for _, d := range deps {
		to := a.nodes[d].Key
		if to == nd.Key {
			continue
		}
		if err := a.keys.AddEdge(dag.Edge{From: from, To: to.String()}); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "library edge %s -> %s", from, to)
		}
	}
	return nil
}
