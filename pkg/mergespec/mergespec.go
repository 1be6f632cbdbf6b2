// Package mergespec describes merge groups and decides which targets root
// them.
//
// A merge [Sequence] is an ordered list of [Group] values. Each group has an
// output name and one or more root-matching patterns; a target roots the
// group when its raw name matches any pattern. Groups are processed in
// order and claim targets first-come-first-claimed, so a target reachable
// from two groups belongs to the earlier one.
//
// # Root Sets (experimental)
//
// A group may instead bundle several named root sets. Targets of such a
// group are further split by which root sets reach them (see
// [Group.ReachingRootSets]). Splitting by sets of mutually dependent root
// sets is not supported, and libraries produced from different root-set
// combinations of one group share the group's name and are told apart only
// by the collision suffix.
package mergespec

import (
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/matzehuels/nativemerge/pkg/linkgraph"
)

// RootSet is a named list of root patterns. The single root set of an
// ordinary group has an empty name.
type RootSet struct {
	Name     string
	Patterns []linkgraph.Pattern
}

// Group is one merge group.
type Group struct {
	Name     string
	RootSets []RootSet
}

// Sequence is the ordered list of merge groups.
type Sequence []*Group

// NewGroup returns an ordinary merge group rooted at targets matching any of
// patterns.
func NewGroup(name string, patterns []string) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("merge group name must not be empty")
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("merge group %q: no root patterns", name)
	}
	ps, err := linkgraph.CompilePatterns(patterns)
	if err != nil {
		return nil, fmt.Errorf("merge group %q: %w", name, err)
	}
	return &Group{Name: name, RootSets: []RootSet{{Patterns: ps}}}, nil
}

// NewMultiGroup returns a merge group with named root sets. Set names are
// kept in the order given and must be unique and non-empty.
func NewMultiGroup(name string, setNames []string, patterns map[string][]string) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("merge group name must not be empty")
	}
	if len(setNames) == 0 {
		return nil, fmt.Errorf("merge group %q: no root sets", name)
	}
	g := &Group{Name: name}
	seen := make(map[string]bool, len(setNames))
	for _, set := range setNames {
		if set == "" {
			return nil, fmt.Errorf("merge group %q: root set name must not be empty", name)
		}
		if seen[set] {
			return nil, fmt.Errorf("merge group %q: duplicate root set %q", name, set)
		}
		seen[set] = true
		if len(patterns[set]) == 0 {
			return nil, fmt.Errorf("merge group %q: root set %q has no patterns", name, set)
		}
		ps, err := linkgraph.CompilePatterns(patterns[set])
		if err != nil {
			return nil, fmt.Errorf("merge group %q, root set %q: %w", name, set, err)
		}
		g.RootSets = append(g.RootSets, RootSet{Name: set, Patterns: ps})
	}
	return g, nil
}

// Multi reports whether targets of the group are split by root set.
func (g *Group) Multi() bool { return len(g.RootSets) > 1 }

// Matches reports whether rawName roots the group.
func (g *Group) Matches(rawName string) bool {
	for _, rs := range g.RootSets {
		if linkgraph.MatchAny(rs.Patterns, rawName) {
			return true
		}
	}
	return false
}

// FindRoots returns, in graph order, every target whose raw name roots the
// group and that claimed does not report as taken.
func (g *Group) FindRoots(graph *linkgraph.Graph, claimed func(linkgraph.Target) bool) []linkgraph.Target {
	var roots []linkgraph.Target
	for _, t := range graph.Targets() {
		if claimed != nil && claimed(t) {
			continue
		}
		n, _ := graph.Node(t)
		if g.Matches(n.RawName) {
			roots = append(roots, t)
		}
	}
	return roots
}

// ReachingRootSets computes, for every target of postOrder, the canonical key
// of the root sets it is transitively reachable from. postOrder must list
// the group's claimed targets with dependencies first; only dependency edges
// between members (as reported by member) propagate.
//
// Groups with a single root set return nil: none of their targets is split.
func (g *Group) ReachingRootSets(graph *linkgraph.Graph, postOrder []linkgraph.Target, member func(linkgraph.Target) bool) map[linkgraph.Target]string {
	if !g.Multi() {
		return nil
	}

	reach := make(map[linkgraph.Target]mapset.Set[string], len(postOrder))
	for _, t := range postOrder {
		reach[t] = mapset.NewThreadUnsafeSet[string]()
	}

	// Dependents before dependencies, so each target has its final set
	// before handing it down.
	for i := len(postOrder) - 1; i >= 0; i-- {
		t := postOrder[i]
		n, _ := graph.Node(t)
		for _, rs := range g.RootSets {
			if linkgraph.MatchAny(rs.Patterns, n.RawName) {
				reach[t].Add(rs.Name)
			}
		}
		for _, d := range n.Deps {
			if dep, ok := reach[d]; ok && member(d) {
				dep.Append(reach[t].ToSlice()...)
			}
		}
	}

	keys := make(map[linkgraph.Target]string, len(reach))
	for t, sets := range reach {
		keys[t] = RootSetKey(sets)
	}
	return keys
}

// RootSetKey returns the canonical form of a set of root-set names: the
// sorted names joined by "+".
func RootSetKey(sets mapset.Set[string]) string {
	names := sets.ToSlice()
	slices.Sort(names)
	return strings.Join(names, "+")
}
