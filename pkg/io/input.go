package io

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/matzehuels/nativemerge/pkg/errors"
	"github.com/matzehuels/nativemerge/pkg/linkgraph"
)

// DefaultPlatform names the platform of a single-platform document.
const DefaultPlatform = "default"

// Document is a decoded graph document.
type Document struct {
	Platforms map[string]*PlatformGraph `json:"platforms"`
}

// PlatformGraph is the linkable graph of one platform.
type PlatformGraph struct {
	Nodes   []Node            `json:"nodes"`
	Modules map[string]string `json:"modules,omitempty"`
}

// Node is one linkable node as written in a document.
type Node struct {
	Target     string   `json:"target"`
	RawName    string   `json:"raw_name,omitempty"`
	OutputName string   `json:"output_name,omitempty"`
	Deps       []string `json:"deps,omitempty"`
	Mergeable  *bool    `json:"mergeable,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type rawDocument struct {
	Platforms map[string]*PlatformGraph `json:"platforms"`
	Nodes     []Node                    `json:"nodes"`
	Modules   map[string]string         `json:"modules"`
}

// ReadDocument decodes a graph document from r. It returns an INVALID_INPUT
// error for malformed JSON, an invalid platform name, or a document without
// platforms. ReadDocument does not close r.
func ReadDocument(r io.Reader) (*Document, error) {
	var raw rawDocument
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode graph document")
	}

	doc := &Document{Platforms: raw.Platforms}
	if len(doc.Platforms) == 0 && raw.Nodes != nil {
		doc.Platforms = map[string]*PlatformGraph{
			DefaultPlatform: {Nodes: raw.Nodes, Modules: raw.Modules},
		}
	}
	if len(doc.Platforms) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "graph document has no platforms")
	}
	for name, p := range doc.Platforms {
		if err := errors.ValidatePlatformName(name); err != nil {
			return nil, err
		}
		if p == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "platform %q is null", name)
		}
	}
	return doc, nil
}

// ImportDocument reads the graph document at path. A path of "-" reads
// standard input.
func ImportDocument(path string) (*Document, error) {
	if path == "-" {
		return ReadDocument(os.Stdin)
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph document %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadDocument(f)
}

// PlatformNames returns the platform names in sorted order.
func (d *Document) PlatformNames() []string {
	return slices.Sorted(maps.Keys(d.Platforms))
}

// Platform returns the graph of the named platform, or a NOT_FOUND error.
func (d *Document) Platform(name string) (*PlatformGraph, error) {
	p, ok := d.Platforms[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "platform %q not in graph document", name)
	}
	return p, nil
}

// Canonical returns the JSON encoding of the platform graph. It is used as
// part of cache keys.
func (p *PlatformGraph) Canonical() []byte {
	data, _ := json.Marshal(p)
	return data
}

// Build converts the platform graph into a linkable graph and module graph.
// Duplicate or empty targets are INVALID_INPUT errors; unknown dependencies
// are left for the merge to report.
func (p *PlatformGraph) Build(rootModule string) (*linkgraph.Graph, *linkgraph.ModuleGraph, error) {
	g := linkgraph.NewGraph()
	for i, n := range p.Nodes {
		deps := make([]linkgraph.Target, len(n.Deps))
		for j, d := range n.Deps {
			deps[j] = linkgraph.Target(d)
		}
		mergeable := n.Mergeable == nil || *n.Mergeable
		err := g.Add(linkgraph.LinkableNode{
			Target:     linkgraph.Target(n.Target),
			RawName:    n.RawName,
			OutputName: n.OutputName,
			Deps:       deps,
			Mergeable:  mergeable,
			Tags:       n.Tags,
		})
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %d", i)
		}
	}

	assign := make(map[linkgraph.Target]string, len(p.Modules))
	for t, m := range p.Modules {
		if err := errors.ValidateModuleName(m); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "module of %s", t)
		}
		assign[linkgraph.Target(t)] = m
	}
	return g, linkgraph.NewModuleGraph(rootModule, assign), nil
}
