// Package transform provides graph transformations over a [dag.DAG].
//
// # Transitive Reduction
//
// [TransitiveReduction] removes redundant edges that can be inferred through
// other paths. If A→B and B→C exist, then A→C is redundant and removed.
//
// Library graphs produced by a merge are usually dense: a library that links
// against a base library directly and through three intermediate libraries
// draws four edges where one carries the information. The reduced graph is
// what the diagnostic DOT and SVG output draws when asked to.
//
// Reductions never change reachability, so a reduced graph has exactly the
// same topological orders as the original.
//
// [dag.DAG]: github.com/matzehuels/nativemerge/pkg/dag.DAG
package transform
