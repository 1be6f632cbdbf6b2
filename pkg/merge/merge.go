package merge

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nativemerge/pkg/dag"
	"github.com/matzehuels/nativemerge/pkg/dag/traverse"
	"github.com/matzehuels/nativemerge/pkg/errors"
	"github.com/matzehuels/nativemerge/pkg/linkgraph"
	"github.com/matzehuels/nativemerge/pkg/mergespec"
)

// Options configures a merge.
type Options struct {
	// Sequence is the ordered list of merge groups.
	Sequence mergespec.Sequence

	// Blocklist excludes targets from merging. Nil excludes only targets
	// that are not mergeable.
	Blocklist *linkgraph.Blocklist

	// Modules assigns targets to feature modules. Nil puts every target in
	// the default root module.
	Modules *linkgraph.ModuleGraph

	// Logger receives per-group debug output. Nil discards it.
	Logger *log.Logger
}

// Result is the outcome of a merge for one platform. It is read-only.
type Result struct {
	// Sequence is the merge sequence the result was computed with.
	Sequence mergespec.Sequence

	// Order lists every target in the order it was resolved.
	Order []linkgraph.Target

	// Nodes holds the computed attributes of every target.
	Nodes map[linkgraph.Target]*NodeData

	// Libraries lists every output library consumer-first, the order names
	// were assigned in.
	Libraries []*Library

	// Graph is the library dependency graph keyed by library name.
	Graph *dag.DAG

	// SplitGroups lists split-group keys by id.
	SplitGroups []SplitGroupKey

	byKey map[FinalLibraryKey]*Library
}

// Library returns the output library of t.
func (r *Result) Library(t linkgraph.Target) (*Library, bool) {
	nd, ok := r.Nodes[t]
	if !ok {
		return nil, false
	}
	lib, ok := r.byKey[nd.Key]
	return lib, ok
}

// LibraryFor returns the merged library name of t. merged is false for
// excluded targets, which keep their own identity, and for unknown targets.
func (r *Result) LibraryFor(t linkgraph.Target) (name string, merged bool) {
	lib, ok := r.Library(t)
	if !ok || lib.Excluded {
		return "", false
	}
	return lib.Name, true
}

// Mapping returns the total target → library name map. Excluded targets map
// to the empty string.
func (r *Result) Mapping() map[linkgraph.Target]string {
	m := make(map[linkgraph.Target]string, len(r.Order))
	for _, t := range r.Order {
		name, _ := r.LibraryFor(t)
		m[t] = name
	}
	return m
}

// Compute runs the merge: merge groups claim targets in order, each group's
// targets are assigned split groups and layers, and the resulting libraries
// are checked for cycles and named.
//
// Targets no merge group reaches are claimed by an implicit trailing group
// and treated as excluded, so every target of g appears in the result.
func Compute(g *linkgraph.Graph, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	modules := opts.Modules
	if modules == nil {
		modules = linkgraph.NewModuleGraph("", nil)
	}

	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInconsistentGraph, err, "invalid linkable graph")
	}

	a := newAssigner(g, modules, opts.Blocklist)
	claimed := make(map[linkgraph.Target]int, g.Len())
	isClaimed := func(t linkgraph.Target) bool {
		_, ok := claimed[t]
		return ok
	}
	unclaimedDeps := func(t linkgraph.Target) []linkgraph.Target {
		var out []linkgraph.Target
		for _, d := range g.Deps(t) {
			if !isClaimed(d) {
				out = append(out, d)
			}
		}
		return out
	}

	claim := func(mg int, post []linkgraph.Target) error {
		for _, t := range post {
			if prev, ok := claimed[t]; ok {
				return errors.New(errors.ErrCodeInconsistentGraph, "target %s claimed by merge groups %d and %d", t, prev, mg)
			}
			claimed[t] = mg
		}
		return nil
	}

	for mg, grp := range opts.Sequence {
		roots := grp.FindRoots(g, isClaimed)
		post, err := traverse.PostOrder(roots, unclaimedDeps)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCycleInInput, err, "merge group %q", grp.Name)
		}
		if err := claim(mg, post); err != nil {
			return nil, err
		}
		member := func(t linkgraph.Target) bool {
			owner, ok := claimed[t]
			return ok && owner == mg
		}
		rootSets := grp.ReachingRootSets(g, post, member)

		before := a.splits.len()
		if err := a.assign(mg, post, rootSets, false); err != nil {
			return nil, err
		}
		logger.Debug("merge group assigned",
			"group", grp.Name,
			"index", mg,
			"roots", len(roots),
			"claimed", len(post),
			"split_groups", a.splits.len()-before,
		)
	}

	var rest []linkgraph.Target
	for _, t := range g.Targets() {
		if !isClaimed(t) {
			rest = append(rest, t)
		}
	}
	if len(rest) > 0 {
		implicit := len(opts.Sequence)
		post, err := traverse.PostOrder(rest, unclaimedDeps)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCycleInInput, err, "targets outside every merge group")
		}
		if err := claim(implicit, post); err != nil {
			return nil, err
		}
		if err := a.assign(implicit, post, nil, true); err != nil {
			return nil, err
		}
		logger.Debug("unmerged targets kept as-is", "count", len(post))
	}

	libs, graph, err := a.nameLibraries(opts.Sequence)
	if err != nil {
		return nil, err
	}

	return &Result{
		Sequence:    opts.Sequence,
		Order:       a.order,
		Nodes:       a.nodes,
		Libraries:   libs,
		Graph:       graph,
		SplitGroups: a.splits.keys,
		byKey:       a.libs,
	}, nil
}
