// Package linkgraph models the input of a merge: the linkable graph of native
// build targets for one platform, the feature module each target ships in,
// and the blocklist of targets that must never be merged.
//
// # Linkable Graph
//
// A [Graph] holds one [LinkableNode] per [Target]. Each node carries the raw
// name used for pattern matching (usually a build label such as
// "//native/net:http"), the name the target would have as an unmerged output
// ("libhttp.so"), its ordered dependency list, and a Mergeable flag. Nodes
// are kept in insertion order, which is the fixed iteration order every
// deterministic result depends on.
//
// # Modules
//
// A [ModuleGraph] assigns targets to feature modules. Targets without an
// assignment belong to the root module, which always exists.
//
// # Blocklist
//
// A [Blocklist] is a list of [Pattern] values. A target is excluded from
// merging when its raw name matches any blocklist pattern, or when its
// Mergeable flag is false.
//
// Every type in this package is read-only once built and safe to share
// between goroutines.
package linkgraph
