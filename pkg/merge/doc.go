// Package merge decides which native targets are combined into which output
// shared libraries, and names the outputs.
//
// # Overview
//
// [Compute] takes a linkable graph, a merge sequence, a blocklist and a
// module map, and returns a [Result] assigning every target to exactly one
// output library. Merge groups are processed in sequence order. Each group
// claims the targets reachable from its roots that no earlier group has
// claimed, and those targets are resolved dependencies first.
//
// # Split Groups
//
// Within a merge group, targets are partitioned into split groups by a
// [SplitGroupKey]: targets of different modules never share a split group,
// root-module targets with different transitive module closures never share
// one, and an excluded target is always alone in its own.
//
// # Layers
//
// A dependency path can leave a split group and come back to it. Merging the
// whole split group would then make the library depend on itself. Each
// target therefore records, per split group below it, how many times the
// deepest path re-enters that group ([ReentryCounts]). The [Layer] derived
// from those counts is part of the [FinalLibraryKey], so the two ends of a
// re-entering path land in different libraries. Most targets have no
// reentries at all and merge with the head of any re-entering chain.
//
// # Naming
//
// The library graph is sorted consumer-first. Excluded libraries keep the
// raw name of their target. Every other library takes the merge group name,
// gets "_<module>" appended when the group spans several modules and the
// library is not in the root module, and gets "_1", "_2" and so on when the
// name was already handed out. The first library reached with a name,
// usually the head of its merge group, keeps it unsuffixed.
//
// A cycle in the library graph is reported as CYCLE_IN_LIBRARIES and never
// expected; a cycle in the input is reported as CYCLE_IN_INPUT.
//
// Compute is a pure function of its input and performs no I/O.
package merge
