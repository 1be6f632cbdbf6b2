// Package traverse provides non-recursive depth-first traversals over
// arbitrary directed graphs.
//
// Dependency graphs of native targets can be thousands of levels deep, so
// every walk here keeps its own work stack instead of recursing on the Go
// call stack. Graphs are described by a list of start nodes and a successor
// function, which lets callers restrict a walk to a subgraph (for example,
// targets not yet claimed by an earlier merge group) without copying it.
package traverse

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is wrapped by every [CycleError].
var ErrCycle = errors.New("dependency cycle")

// CycleError reports a cycle found during a walk. Path lists the open
// ancestor chain starting at the node that was re-entered and ends with
// that same node again, so a self-loop on "a" is reported as [a a].
type CycleError[T comparable] struct {
	Path []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, len(e.Path))
	for i, n := range e.Path {
		parts[i] = fmt.Sprint(n)
	}
	return fmt.Sprintf("%v: %s", ErrCycle, strings.Join(parts, " -> "))
}

// Unwrap returns ErrCycle.
func (e *CycleError[T]) Unwrap() error { return ErrCycle }

// frame is one entry of the work stack. An unexpanded frame asks for the
// node to be visited; an expanded frame is the output sentinel pushed
// underneath the node's successors.
type frame[T comparable] struct {
	node     T
	expanded bool
}

// PostOrder returns every node reachable from roots exactly once, each
// appearing after all of its successors that had not been visited yet.
// Roots and successors are explored in the order given, so the result is
// the same as a recursive depth-first walk would produce.
//
// If a successor is an open ancestor on the active path, PostOrder stops
// and returns a *CycleError describing the chain.
func PostOrder[T comparable](roots []T, successors func(T) []T) ([]T, error) {
	var (
		out   []T
		stack []frame[T]
		path  []T
		done  = make(map[T]bool)
		open  = make(map[T]int) // node -> position in path
	)

	for _, root := range roots {
		if done[root] {
			continue
		}
		stack = append(stack, frame[T]{node: root})

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if f.expanded {
				delete(open, f.node)
				path = path[:len(path)-1]
				done[f.node] = true
				out = append(out, f.node)
				continue
			}
			if done[f.node] {
				continue
			}
			if at, ok := open[f.node]; ok {
				return nil, cycleFrom(path, at, f.node)
			}

			open[f.node] = len(path)
			path = append(path, f.node)
			stack = append(stack, frame[T]{node: f.node, expanded: true})

			next := successors(f.node)
			for i := len(next) - 1; i >= 0; i-- {
				s := next[i]
				if done[s] {
					continue
				}
				if at, ok := open[s]; ok {
					return nil, cycleFrom(path, at, s)
				}
				stack = append(stack, frame[T]{node: s})
			}
		}
	}
	return out, nil
}

func cycleFrom[T comparable](path []T, at int, node T) *CycleError[T] {
	chain := slices.Clone(path[at:])
	return &CycleError[T]{Path: append(chain, node)}
}

// TopoSort orders nodes so that every node comes before all of its
// successors. The in-degree of each node is counted over the edges given
// by successors; the zero in-degree nodes (in the order they appear in
// nodes) seed a [PostOrder] walk whose result is then reversed.
//
// Successors that are not listed in nodes are still ordered. A cycle is
// reported as a *CycleError even when no zero in-degree node reaches it.
func TopoSort[T comparable](nodes []T, successors func(T) []T) ([]T, error) {
	inDegree := make(map[T]int, len(nodes))
	for _, n := range nodes {
		if _, ok := inDegree[n]; !ok {
			inDegree[n] = 0
		}
		for _, s := range successors(n) {
			inDegree[s]++
		}
	}

	var roots []T
	for _, n := range nodes {
		if inDegree[n] == 0 {
			roots = append(roots, n)
		}
	}

	order, err := PostOrder(roots, successors)
	if err != nil {
		return nil, err
	}
	if len(order) < len(inDegree) {
		// Every remaining node sits on or below a cycle; walking from all
		// nodes is guaranteed to hit it.
		if _, err := PostOrder(nodes, successors); err != nil {
			return nil, err
		}
		return nil, ErrCycle
	}

	slices.Reverse(order)
	return order, nil
}
