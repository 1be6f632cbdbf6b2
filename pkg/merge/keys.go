package merge

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/nativemerge/pkg/linkgraph"
)

// SplitGroupKey identifies a split group within one merge group. Two targets
// share a split group exactly when their keys are equal.
//
// Every field is a comparable value with a fixed canonical form, so the
// struct can be used as a map key and compared with ==.
type SplitGroupKey struct {
	Excluded   linkgraph.Target // The target itself when excluded, otherwise empty
	Module     string
	MergeGroup int
	RootSets   string // Canonical root-set key, empty unless the group is split by root set
	Closure    string // Canonical module closure, root-module targets only
}

func (k SplitGroupKey) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mg%d/%s", k.MergeGroup, k.Module)
	if k.Excluded != "" {
		fmt.Fprintf(&b, "/excluded=%s", k.Excluded)
	}
	if k.RootSets != "" {
		fmt.Fprintf(&b, "/sets=%s", k.RootSets)
	}
	if k.Closure != "" {
		fmt.Fprintf(&b, "/closure=%s", k.Closure)
	}
	return b.String()
}

// Reentry is one entry of a reentry-count map.
type Reentry struct {
	SplitGroup int
	Count      int
}

// ReentryCounts maps a split group id to the deepest number of times a
// dependency path starting at a target re-enters that split group.
type ReentryCounts map[int]int

// Pairs returns the entries ordered by split group id.
func (r ReentryCounts) Pairs() []Reentry {
	out := make([]Reentry, 0, len(r))
	for _, g := range slices.Sorted(maps.Keys(r)) {
		out = append(out, Reentry{SplitGroup: g, Count: r[g]})
	}
	return out
}

// String returns the canonical form, e.g. "{0:1,3:2}".
func (r ReentryCounts) String() string {
	parts := make([]string, 0, len(r))
	for _, p := range r.Pairs() {
		parts = append(parts, strconv.Itoa(p.SplitGroup)+":"+strconv.Itoa(p.Count))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// record keeps the maximum count seen for group.
func (r ReentryCounts) record(group, count int) {
	if cur, ok := r[group]; !ok || count > cur {
		r[group] = count
	}
}

// Layer is the cycle-breaking component of a [FinalLibraryKey].
//
// Root-module targets carry their whole reentry signature; targets of other
// modules carry only the count for their own split group.
type Layer struct {
	Signature string // Canonical ReentryCounts, set for root-module targets
	Count     int    // Own split group count, other modules
}

func (l Layer) String() string {
	if l.Signature != "" {
		return l.Signature
	}
	return strconv.Itoa(l.Count)
}

// FinalLibraryKey identifies an output library. Targets with equal keys are
// merged into the same library.
type FinalLibraryKey struct {
	SplitGroup int
	Layer      Layer
}

func (k FinalLibraryKey) String() string {
	return fmt.Sprintf("sg%d@%s", k.SplitGroup, k.Layer)
}

// registry hands out dense ids in first-seen order.
type registry[K comparable] struct {
	ids  map[K]int
	keys []K
}

func newRegistry[K comparable]() *registry[K] {
	return &registry[K]{ids: make(map[K]int)}
}

// id returns the id of k, registering it if unseen.
func (r *registry[K]) id(k K) int {
	if id, ok := r.ids[k]; ok {
		return id
	}
	id := len(r.keys)
	r.ids[k] = id
	r.keys = append(r.keys, k)
	return id
}

func (r *registry[K]) key(id int) K { return r.keys[id] }

func (r *registry[K]) len() int { return len(r.keys) }
