// Package pkg provides the libraries behind nativemerge, which merges native
// library targets into fewer shared libraries.
//
// # Overview
//
// A build graph lists native targets and the targets they link against. A
// merge configuration names an ordered sequence of merge groups, each with
// root patterns. nativemerge decides, for every target, which output library
// it becomes part of:
//
//	Graph document + merge configuration
//	         ↓
//	    [linkgraph] + [config] (typed graph, modules, blocklist)
//	         ↓
//	    [mergespec] (which roots start each merge group)
//	         ↓
//	    [merge] (claim targets, split groups, layers, names)
//	         ↓
//	    [io] mapping and diagnostic documents, [render/nodelink] DOT/SVG
//
// # Quick Start
//
//	g := linkgraph.NewGraph()
//	_ = g.Add(linkgraph.LinkableNode{Target: "//app", RawName: "app", OutputName: "libapp.so", Deps: []linkgraph.Target{"//log"}, Mergeable: true})
//	_ = g.Add(linkgraph.LinkableNode{Target: "//log", RawName: "log", OutputName: "liblog.so", Mergeable: true})
//
//	grp, _ := mergespec.NewGroup("libapp.so", []string{"//app"})
//	res, err := merge.Compute(g, merge.Options{Sequence: mergespec.Sequence{grp}})
//	name, merged := res.LibraryFor("//log") // "libapp.so", true
//
// # Main Packages
//
// [dag/traverse] - Non-recursive post-order walks and topological sorting
// with cycle paths.
//
// [dag] - Insertion-ordered directed graph used for the final-library graph.
// [dag/transform] removes transitive edges for readable diagrams.
//
// [linkgraph] - Targets, linkable nodes, module assignment, name patterns and
// the blocklist.
//
// [mergespec] - Merge groups, their root patterns and named root sets.
//
// [merge] - The merge itself: group membership, split groups, reentry
// layering and final library naming.
//
// [config] - Merge configuration files in YAML, TOML or JSON.
//
// [io] - Graph documents in, mapping and diagnostic documents out.
//
// [pipeline] - Multi-platform runs with result caching, used by the CLI and
// the HTTP server.
//
// [cache] - Result caches (file, memory, Redis) and hashing.
//
// [render/nodelink] - Graphviz diagrams of the final-library graph.
//
// [observability] - Hooks for metrics and tracing.
//
// [errors] - Structured errors with stable codes.
package pkg
