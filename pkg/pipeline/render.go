package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/render"
	"github.com/matzehuels/familygrid/pkg/render/nodelink"
	"github.com/matzehuels/familygrid/pkg/render/svg"
	"github.com/matzehuels/familygrid/pkg/render/text"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Render generates output artifacts in the requested formats.
//
// PNG and PDF are converted from the SVG output and need rsvg-convert on
// the PATH; see [render.Available].
func Render(ctx context.Context, s *tree.Snapshot, g *grid.Grid, bands [][]grid.Range, l layers.Layers, opts Options) (map[string][]byte, error) {
	var labels render.Labels
	if !opts.NoLabels {
		labels = render.LabelsOf(s)
	}
	if opts.NoDrops {
		bands = nil
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var svgData []byte
	renderSVG := func() []byte {
		if svgData == nil {
			svgData = svg.Render(g, buildSVGOptions(labels, bands, opts)...)
		}
		return svgData
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = json.MarshalIndent(g, "", "  ")
		case FormatText:
			data = []byte(text.Render(g, text.Options{
				CellWidth: opts.CellWidth,
				Labels:    labels,
				Bands:     bands,
				Color:     opts.Color,
			}))
		case FormatSVG:
			data = renderSVG()
		case FormatDOT:
			data = []byte(nodelink.ToDOT(s, nodelink.Options{Detailed: !opts.NoLabels, Layers: l}))
		case FormatPNG:
			data, err = render.ToPNG(ctx, renderSVG(), DefaultPNGScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, renderSVG())
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions creates SVG render options from pipeline options.
func buildSVGOptions(labels render.Labels, bands [][]grid.Range, opts Options) []svg.Option {
	svgOpts := []svg.Option{
		svg.WithCellSize(opts.CellSize),
		svg.WithTheme(svg.Theme(opts.Theme)),
	}
	if labels != nil {
		svgOpts = append(svgOpts, svg.WithLabels(labels))
	}
	if bands != nil {
		svgOpts = append(svgOpts, svg.WithBands(bands))
	}
	return svgOpts
}
