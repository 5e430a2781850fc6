// Package nodelink renders family trees as traditional node-link diagrams.
//
// # Overview
//
// This package draws the relationship graph with Graphviz: persons are
// boxes, every relationship is a point joining its parents to its
// children. It ignores the grid entirely and is useful for checking a grid
// layout against the plain topology.
//
// # Usage
//
// Convert a tree to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(s, nodelink.Options{Layers: l})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Detailed: person labels include the lifespan and custom info fields
//   - Layers: persons of one generation share a rank
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
