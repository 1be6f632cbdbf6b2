// Package nodelink renders the final-library graph as a node-link diagram.
//
// # Usage
//
// Convert a library graph to DOT, then render to SVG:
//
//	dot, err := nodelink.ToDOT(report.LibraryGraph(), nodelink.Options{Reduce: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Detailed: node labels list the library metadata (module, merge group,
//     member count) below the name
//   - Reduce: drop edges implied by longer paths before drawing
//   - ClusterModules: draw each feature module in its own box
//
// Excluded libraries, the targets kept under their own name, are drawn with
// dashed outlines and grey fill.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, so no Graphviz installation is needed.
package nodelink
