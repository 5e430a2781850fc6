// Package render turns family-tree grids into pictures.
//
// # Overview
//
// Renderers read a [grid.Grid] cell by cell; none of them re-derives the
// family topology. The subpackages cover one output each:
//
//   - [text]: box-drawing characters for terminals, styled with lipgloss
//   - [svg]: a scalable vector drawing with one colour per link group
//   - [nodelink]: the relationship graph drawn by Graphviz, independent of
//     the grid
//
// # Colours
//
// [ConnectionColor] maps a connection index to a colour. Indices are
// numbered left to right within a row, so neighbouring groups get
// different hues: hue = (index mod 6) × 60°, saturation 70%, lightness 50%.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	data := svg.Render(g)
//	pdf, err := render.ToPDF(ctx, data)
//	png, err := render.ToPNG(ctx, data, 2.0)
//
// [text]: github.com/matzehuels/familygrid/pkg/render/text
// [svg]: github.com/matzehuels/familygrid/pkg/render/svg
// [nodelink]: github.com/matzehuels/familygrid/pkg/render/nodelink
// [grid.Grid]: github.com/matzehuels/familygrid/pkg/grid.Grid
package render
