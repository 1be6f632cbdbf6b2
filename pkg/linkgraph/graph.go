package linkgraph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrEmptyTarget is returned by [Graph.Add] for a node without a target.
	ErrEmptyTarget = errors.New("target must not be empty")

	// ErrDuplicateTarget is returned by [Graph.Add] when the target is
	// already present.
	ErrDuplicateTarget = errors.New("duplicate target")

	// ErrMissingDependency is returned by [Graph.Validate] when a node lists
	// a dependency that is not in the graph.
	ErrMissingDependency = errors.New("dependency missing from graph")
)

// Target identifies a build artifact. It is opaque; equality is the only
// operation the merge relies on.
type Target string

// LinkableNode is one native target of the linkable graph.
type LinkableNode struct {
	Target     Target
	RawName    string   // Human-readable path matched against patterns
	OutputName string   // Name of the output if the target is left unmerged
	Deps       []Target // Ordered direct dependencies
	Mergeable  bool     // False forces the target to stay its own library
	Tags       []string
}

// Graph is an insertion-ordered set of linkable nodes.
//
// The zero value is not usable - use NewGraph.
type Graph struct {
	nodes map[Target]*LinkableNode
	order []Target
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[Target]*LinkableNode)}
}

// Add inserts a node. The node's Deps and Tags are copied.
func (g *Graph) Add(n LinkableNode) error {
	if n.Target == "" {
		return ErrEmptyTarget
	}
	if _, ok := g.nodes[n.Target]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTarget, n.Target)
	}
	if n.RawName == "" {
		n.RawName = string(n.Target)
	}
	n.Deps = slices.Clone(n.Deps)
	n.Tags = slices.Clone(n.Tags)
	g.nodes[n.Target] = &n
	g.order = append(g.order, n.Target)
	return nil
}

// Node returns the node for t.
func (g *Graph) Node(t Target) (*LinkableNode, bool) {
	n, ok := g.nodes[t]
	return n, ok
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t Target) bool {
	_, ok := g.nodes[t]
	return ok
}

// Targets returns every target in insertion order.
func (g *Graph) Targets() []Target { return slices.Clone(g.order) }

// Deps returns the direct dependencies of t in declaration order, or nil if
// t is unknown. The returned slice must not be modified.
func (g *Graph) Deps(t Target) []Target {
	if n, ok := g.nodes[t]; ok {
		return n.Deps
	}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Validate checks that every dependency refers to a node of the graph.
func (g *Graph) Validate() error {
	for _, t := range g.order {
		for _, d := range g.nodes[t].Deps {
			if _, ok := g.nodes[d]; !ok {
				return fmt.Errorf("%w: %s depends on %s", ErrMissingDependency, t, d)
			}
		}
	}
	return nil
}
