// Package dag provides an insertion-ordered directed graph with string node
// IDs.
//
// # Overview
//
// Nativemerge uses this package for the final-library graph: one node per
// output shared library, one edge per "links against" relation between two
// libraries. That graph must be acyclic, and every walk over it must be
// reproducible from run to run, so the graph remembers the order in which
// nodes and edges were added and never iterates a Go map.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]. Nodes must have unique IDs, edges can only connect existing
// nodes, and self edges are rejected:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "libapp.so"})
//	g.AddNode(dag.Node{ID: "libbase.so"})
//	g.AddEdge(dag.Edge{From: "libapp.so", To: "libbase.so"})
//
// Query the graph structure with [DAG.Children], [DAG.Parents], [DAG.Sources]
// and related methods. Use [DAG.Validate] to verify structural integrity and
// [DAG.TopoSort] to obtain a dependents-first order.
//
// # Cycles
//
// Cycle detection is delegated to the [traverse] subpackage, which walks the
// graph with an explicit stack. A cycle error wraps [ErrGraphHasCycle] and a
// *traverse.CycleError[string] whose Path names the offending chain.
//
// # Metadata
//
// Both nodes and the graph itself support arbitrary metadata via [Metadata] maps.
// Metadata maps are never nil after creation - empty maps are automatically
// initialized.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize access
// if multiple goroutines read or modify the same graph.
//
// # Related Packages
//
// The [transform] subpackage provides transitive reduction for readable
// diagnostic output.
//
// [traverse]: github.com/matzehuels/nativemerge/pkg/dag/traverse
// [transform]: github.com/matzehuels/nativemerge/pkg/dag/transform
package dag
