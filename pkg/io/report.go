package io

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/nativemerge/pkg/dag"
	"github.com/matzehuels/nativemerge/pkg/merge"
)

// PlatformReport is the serializable outcome of a merge for one platform.
// It carries both the mapping and the diagnostic view, so a cached report
// serves every output.
type PlatformReport struct {
	Platform    string             `json:"platform"`
	Mapping     map[string]*string `json:"mapping"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	Groups      []string           `json:"merge_groups"`
	Targets     []TargetInfo       `json:"targets"`
	Libraries   []LibraryInfo      `json:"libraries"`
	SplitGroups []SplitGroupInfo   `json:"split_groups"`
}

// TargetInfo holds the computed attributes of one target.
//
// Layer is the cycle-breaking part of the target's library key, ordered by
// split group. Root-module targets list every reentry count they carry;
// other targets list the single count for their own split group.
type TargetInfo struct {
	Target     string        `json:"target"`
	Module     string        `json:"module"`
	MergeGroup int           `json:"merge_group"`
	SplitGroup int           `json:"split_group"`
	Layer      []ReentryInfo `json:"layer"`
	Reentries  []ReentryInfo `json:"reentries"`
	Closure    []string      `json:"closure"`
	RootSets   string        `json:"root_sets,omitempty"`
	Excluded   bool          `json:"excluded"`
	Library    string        `json:"library"`
}

// ReentryInfo is one reentry count.
type ReentryInfo struct {
	SplitGroup int `json:"split_group"`
	Count      int `json:"count"`
}

// LibraryInfo describes one output library.
type LibraryInfo struct {
	Name       string   `json:"name"`
	Key        string   `json:"key"`
	Module     string   `json:"module"`
	MergeGroup int      `json:"merge_group"`
	Excluded   bool     `json:"excluded"`
	Members    []string `json:"members"`
	Deps       []string `json:"deps"`
}

// SplitGroupInfo describes one split group.
type SplitGroupInfo struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

// NewPlatformReport converts a merge result. Targets are listed in
// resolution order and libraries consumer-first.
func NewPlatformReport(platform string, r *merge.Result) *PlatformReport {
	rep := &PlatformReport{
		Platform: platform,
		Mapping:  make(map[string]*string, len(r.Order)),
	}
	for _, grp := range r.Sequence {
		rep.Groups = append(rep.Groups, grp.Name)
	}

	for _, t := range r.Order {
		nd := r.Nodes[t]
		lib, _ := r.Library(t)

		if name, merged := r.LibraryFor(t); merged {
			rep.Mapping[string(t)] = &name
		} else {
			rep.Mapping[string(t)] = nil
		}

		info := TargetInfo{
			Target:     string(t),
			Module:     nd.Module,
			MergeGroup: nd.MergeGroup,
			SplitGroup: nd.SplitGroup,
			Layer:      layerInfo(nd),
			Reentries:  []ReentryInfo{},
			Closure:    nd.Closure.ToSlice(),
			RootSets:   nd.RootSets,
			Excluded:   nd.Excluded,
			Library:    lib.Name,
		}
		slices.Sort(info.Closure)
		for _, p := range nd.Reentries.Pairs() {
			info.Reentries = append(info.Reentries, ReentryInfo{SplitGroup: p.SplitGroup, Count: p.Count})
		}
		rep.Targets = append(rep.Targets, info)
	}

	for _, lib := range r.Libraries {
		info := LibraryInfo{
			Name:       lib.Name,
			Key:        lib.Key.String(),
			Module:     lib.Module,
			MergeGroup: lib.MergeGroup,
			Excluded:   lib.Excluded,
			Members:    make([]string, len(lib.Members)),
			Deps:       slices.Clone(r.Graph.Children(lib.Name)),
		}
		for i, m := range lib.Members {
			info.Members[i] = string(m)
		}
		slices.Sort(info.Members)
		slices.Sort(info.Deps)
		if info.Deps == nil {
			info.Deps = []string{}
		}
		rep.Libraries = append(rep.Libraries, info)
	}

	for id, key := range r.SplitGroups {
		rep.SplitGroups = append(rep.SplitGroups, SplitGroupInfo{ID: id, Key: key.String()})
	}
	return rep
}

func layerInfo(nd *merge.NodeData) []ReentryInfo {
	if nd.Key.Layer.Signature == "" {
		return []ReentryInfo{{SplitGroup: nd.SplitGroup, Count: nd.Key.Layer.Count}}
	}
	out := []ReentryInfo{}
	for _, p := range nd.Reentries.Pairs() {
		out = append(out, ReentryInfo{SplitGroup: p.SplitGroup, Count: p.Count})
	}
	return out
}

// CanonicalMapping returns the JSON encoding of the mapping with sorted keys.
func (p *PlatformReport) CanonicalMapping() []byte {
	data, _ := json.Marshal(p.Mapping)
	return data
}

// LibraryGraph rebuilds the library dependency graph, consumer-first.
// Library metadata carries module, merge group, exclusion and member count.
func (p *PlatformReport) LibraryGraph() *dag.DAG {
	g := dag.New(dag.Metadata{"platform": p.Platform})
	for _, lib := range p.Libraries {
		_ = g.AddNode(dag.Node{ID: lib.Name, Meta: dag.Metadata{
			"key":         lib.Key,
			"module":      lib.Module,
			"merge_group": lib.MergeGroup,
			"excluded":    lib.Excluded,
			"members":     len(lib.Members),
		}})
	}
	for _, lib := range p.Libraries {
		for _, d := range lib.Deps {
			_ = g.AddEdge(dag.Edge{From: lib.Name, To: d})
		}
	}
	return g
}

// Summary returns counts for status output.
func (p *PlatformReport) Summary() (targets, libraries, merged int) {
	for _, lib := range p.Libraries {
		if !lib.Excluded {
			merged++
		}
	}
	return len(p.Targets), len(p.Libraries), merged
}
