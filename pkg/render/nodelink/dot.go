package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/nativemerge/pkg/dag"
	"github.com/matzehuels/nativemerge/pkg/dag/transform"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes metadata in node labels.
	// When false, only the library name is shown.
	Detailed bool

	// Reduce removes transitive edges from a copy of the graph first.
	Reduce bool

	// ClusterModules groups libraries of the same module into a cluster
	// when the graph has more than one module.
	ClusterModules bool
}

// ToDOT converts a library graph to Graphviz DOT. Nodes keep the graph's
// order, so equal graphs produce identical DOT.
func ToDOT(g *dag.DAG, opts Options) (string, error) {
	if opts.Reduce {
		g = g.Clone()
		if _, err := transform.TransitiveReduction(g); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	clusters := modules(g)
	if !opts.ClusterModules || len(clusters) < 2 {
		for _, n := range g.Nodes() {
			writeNode(&buf, "  ", *n, opts.Detailed)
		}
	} else {
		for i, mod := range slices.Sorted(maps.Keys(clusters)) {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
			fmt.Fprintf(&buf, "    label=%q;\n", mod)
			buf.WriteString("    style=\"rounded,dashed\";\n")
			for _, n := range clusters[mod] {
				writeNode(&buf, "    ", *n, opts.Detailed)
			}
			buf.WriteString("  }\n")
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func modules(g *dag.DAG) map[string][]*dag.Node {
	out := make(map[string][]*dag.Node)
	for _, n := range g.Nodes() {
		mod, _ := n.Meta["module"].(string)
		out[mod] = append(out[mod], n)
	}
	return out
}

func writeNode(buf *bytes.Buffer, indent string, n dag.Node, detailed bool) {
	label := fmtLabel(n, detailed)
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(fmtAttrs(n, label), ", "))
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if k == "excluded" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	if len(parts) == 0 {
		return n.ID
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if excluded, _ := n.Meta["excluded"].(bool); excluded {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz build.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root element so the SVG scales from a
// zero origin with explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
