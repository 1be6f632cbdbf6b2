package io_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nativemerge/pkg/errors"
	nmio "github.com/matzehuels/nativemerge/pkg/io"
	"github.com/matzehuels/nativemerge/pkg/linkgraph"
	"github.com/matzehuels/nativemerge/pkg/merge"
	"github.com/matzehuels/nativemerge/pkg/mergespec"
)

var twoPlatforms = dedent.Dedent(`
	{
	  "platforms": {
	    "android-arm64": {
	      "nodes": [
	        {"target": "//a:root", "output_name": "libroot.so", "deps": ["//a:left", "//a:right"]},
	        {"target": "//a:left"},
	        {"target": "//a:right", "mergeable": false}
	      ]
	    },
	    "android-x86_64": {
	      "nodes": [{"target": "//a:root", "tags": ["x86"]}],
	      "modules": {"//a:root": "base"}
	    }
	  }
	}
`)

func TestReadDocument(t *testing.T) {
	r := require.New(t)

	doc, err := nmio.ReadDocument(strings.NewReader(twoPlatforms))
	r.NoError(err)
	r.Equal([]string{"android-arm64", "android-x86_64"}, doc.PlatformNames())

	p, err := doc.Platform("android-arm64")
	r.NoError(err)
	g, modules, err := p.Build("")
	r.NoError(err)
	r.Equal(3, g.Len())

	root, _ := g.Node("//a:root")
	r.Equal("//a:root", root.RawName)
	r.Equal("libroot.so", root.OutputName)
	r.True(root.Mergeable)
	right, _ := g.Node("//a:right")
	r.False(right.Mergeable)
	r.Equal(linkgraph.DefaultRootModule, modules.Root())

	_, err = doc.Platform("ios")
	r.True(errors.Is(err, errors.ErrCodeNotFound))
}

func TestReadDocument_SinglePlatform(t *testing.T) {
	r := require.New(t)

	doc, err := nmio.ReadDocument(strings.NewReader(`{"nodes": [{"target": "//a"}], "modules": {"//a": "cam"}}`))
	r.NoError(err)
	r.Equal([]string{nmio.DefaultPlatform}, doc.PlatformNames())

	p, _ := doc.Platform(nmio.DefaultPlatform)
	_, modules, err := p.Build("base")
	r.NoError(err)
	r.Equal("cam", modules.Module("//a"))
	r.Equal("base", modules.Module("//b"))
}

func TestReadDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed", `{"platforms": `},
		{"unknown field", `{"platforms": {}, "extra": 1}`},
		{"no platforms", `{}`},
		{"bad platform name", `{"platforms": {"bad name": {"nodes": []}}}`},
		{"null platform", `{"platforms": {"arm": null}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := nmio.ReadDocument(strings.NewReader(tt.raw))
			require.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
		})
	}
}

func TestBuild_DuplicateTarget(t *testing.T) {
	p := &nmio.PlatformGraph{Nodes: []nmio.Node{{Target: "//a"}, {Target: "//a"}}}
	_, _, err := p.Build("")
	require.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func report(t *testing.T) *nmio.PlatformReport {
	t.Helper()
	r := require.New(t)

	doc, err := nmio.ReadDocument(strings.NewReader(twoPlatforms))
	r.NoError(err)
	p, _ := doc.Platform("android-arm64")
	g, modules, err := p.Build("")
	r.NoError(err)

	grp, err := mergespec.NewGroup("libfoo.so", []string{"//a:root"})
	r.NoError(err)
	res, err := merge.Compute(g, merge.Options{Sequence: mergespec.Sequence{grp}, Modules: modules})
	r.NoError(err)
	return nmio.NewPlatformReport("android-arm64", res)
}

func TestNewPlatformReport(t *testing.T) {
	r := require.New(t)
	rep := report(t)

	r.Equal("libfoo.so", *rep.Mapping["//a:root"])
	r.Equal("libfoo.so", *rep.Mapping["//a:left"])
	r.Nil(rep.Mapping["//a:right"])
	r.Equal([]string{"libfoo.so"}, rep.Groups)

	r.Len(rep.Libraries, 2)
	r.Equal("libfoo.so", rep.Libraries[0].Name)
	r.Equal([]string{"//a:left", "//a:root"}, rep.Libraries[0].Members)
	r.Equal([]string{"//a:right"}, rep.Libraries[0].Deps)
	r.True(rep.Libraries[1].Excluded)

	targets, libraries, merged := rep.Summary()
	r.Equal(3, targets)
	r.Equal(2, libraries)
	r.Equal(1, merged)

	g := rep.LibraryGraph()
	r.True(g.HasEdge("libfoo.so", "//a:right"))
	r.NoError(g.Validate())
}

func TestNewPlatformReport_Layers(t *testing.T) {
	r := require.New(t)

	// camera → root → camera re-enters the camera split group.
	g := linkgraph.NewGraph()
	r.NoError(g.Add(linkgraph.LinkableNode{Target: "//cam:ui", RawName: "//cam:ui", Deps: []linkgraph.Target{"//base:util"}, Mergeable: true}))
	r.NoError(g.Add(linkgraph.LinkableNode{Target: "//base:util", RawName: "//base:util", Deps: []linkgraph.Target{"//cam:codec"}, Mergeable: true}))
	r.NoError(g.Add(linkgraph.LinkableNode{Target: "//cam:codec", RawName: "//cam:codec", Mergeable: true}))
	modules := linkgraph.NewModuleGraph("", map[linkgraph.Target]string{
		"//cam:ui":    "camera",
		"//cam:codec": "camera",
	})
	grp, err := mergespec.NewGroup("libfoo.so", []string{"^//cam:ui$"})
	r.NoError(err)
	res, err := merge.Compute(g, merge.Options{Sequence: mergespec.Sequence{grp}, Modules: modules})
	r.NoError(err)
	rep := nmio.NewPlatformReport("arm64", res)

	layers := make(map[string][]nmio.ReentryInfo)
	for _, ti := range rep.Targets {
		layers[ti.Target] = ti.Layer
	}
	cam := res.Nodes["//cam:codec"].SplitGroup
	r.Equal([]nmio.ReentryInfo{{SplitGroup: cam, Count: 0}}, layers["//cam:codec"])
	r.Equal([]nmio.ReentryInfo{{SplitGroup: cam, Count: 1}}, layers["//base:util"])
	r.Equal([]nmio.ReentryInfo{{SplitGroup: cam, Count: 1}}, layers["//cam:ui"])

	var buf bytes.Buffer
	r.NoError(nmio.WriteInspection(&buf, []*nmio.PlatformReport{rep}))
	r.NotContains(buf.String(), `"layer": "`)
}

func TestWriteMapping(t *testing.T) {
	r := require.New(t)
	rep := report(t)
	rep.Fingerprint = "0123456789abcdef"

	var buf bytes.Buffer
	r.NoError(nmio.WriteMapping(&buf, []*nmio.PlatformReport{rep}))

	var out struct {
		Platforms map[string]struct {
			Mapping     map[string]*string `json:"mapping"`
			Fingerprint string             `json:"fingerprint"`
		} `json:"platforms"`
	}
	r.NoError(json.Unmarshal(buf.Bytes(), &out))
	arm := out.Platforms["android-arm64"]
	r.Equal("0123456789abcdef", arm.Fingerprint)
	r.Contains(arm.Mapping, "//a:right")
	r.Nil(arm.Mapping["//a:right"])

	var again bytes.Buffer
	r.NoError(nmio.WriteMapping(&again, []*nmio.PlatformReport{report(t)}))
	r.NotEqual(buf.String(), again.String(), "fingerprint should be the only difference")
	rep2 := report(t)
	rep2.Fingerprint = rep.Fingerprint
	again.Reset()
	r.NoError(nmio.WriteMapping(&again, []*nmio.PlatformReport{rep2}))
	r.Equal(buf.String(), again.String())
}

func TestWriteInspection(t *testing.T) {
	r := require.New(t)

	var buf bytes.Buffer
	r.NoError(nmio.WriteInspection(&buf, []*nmio.PlatformReport{report(t)}))
	r.Contains(buf.String(), `"split_groups"`)
	r.Contains(buf.String(), `"closure": [`)
}
