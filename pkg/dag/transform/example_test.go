package transform_test

import (
	"fmt"

	"github.com/matzehuels/nativemerge/pkg/dag"
	"github.com/matzehuels/nativemerge/pkg/dag/transform"
)

func ExampleTransitiveReduction() {
	// A → B → C with transitive edge A → C
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "A"})
	_ = g.AddNode(dag.Node{ID: "B"})
	_ = g.AddNode(dag.Node{ID: "C"})
	_ = g.AddEdge(dag.Edge{From: "A", To: "B"})
	_ = g.AddEdge(dag.Edge{From: "B", To: "C"})
	_ = g.AddEdge(dag.Edge{From: "A", To: "C"}) // Redundant

	fmt.Println("Before reduction:", g.EdgeCount(), "edges")
	removed, _ := transform.TransitiveReduction(g)
	fmt.Println("Removed:", removed)
	fmt.Println("After reduction:", g.EdgeCount(), "edges")
	// Output:
	// Before reduction: 3 edges
	// Removed: 1
	// After reduction: 2 edges
}
