package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/render"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the lifespan and every non-reserved info field in
	// person labels. When false, only the display name is shown.
	Detailed bool
	// Layers, when set, pins the persons of each generation to one rank.
	Layers layers.Layers
}

// ToDOT converts a family tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Persons are rounded boxes. Each relationship is a small point node with
// edges from its parents and to its children, coloured like its index in
// the tree's relationship list. Relationships without parents are left
// out; their children simply have no incoming edge.
func ToDOT(s *tree.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowhead=none, penwidth=2];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, p := range s.Persons() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", string(p.ID), fmtLabel(p, opts.Detailed))
	}

	buf.WriteString("\n")
	for i, r := range s.Relationships() {
		parents := r.ParentIDs()
		if len(parents) == 0 {
			continue
		}
		color := render.ConnectionColor(i).Hex()
		fmt.Fprintf(&buf, "  %q [shape=point, width=0.12, color=%q];\n", relNode(r.ID), color)
		for _, p := range parents {
			fmt.Fprintf(&buf, "  %q -> %q [color=%q];\n", string(p), relNode(r.ID), color)
		}
		for _, c := range r.Children {
			fmt.Fprintf(&buf, "  %q -> %q [color=%q];\n", relNode(r.ID), string(c), color)
		}
	}

	if len(opts.Layers) > 0 {
		buf.WriteString("\n")
		for _, layer := range opts.Layers {
			ids := make([]string, len(layer))
			for i, pid := range layer {
				ids[i] = strconv.Quote(string(pid))
			}
			fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(ids, "; "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func relNode(rid tree.RelationshipID) string { return "rel:" + string(rid) }

func fmtLabel(p tree.Person, detailed bool) string {
	name := p.Name()
	if !detailed {
		return name
	}

	parts := []string{name}
	if span := p.Info.Lifespan(); span != "" {
		parts = append(parts, span)
	}
	for _, f := range p.Info {
		if strings.HasPrefix(f.Key, "@") {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Key, f.Value))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
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

// normalizeViewBox replaces the Graphviz root element, which sizes the
// image in points, with one sized in user units.
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

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
