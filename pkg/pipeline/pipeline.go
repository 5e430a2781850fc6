// Package pipeline provides the layout pipeline for familygrid.
//
// This package implements the complete load → layers → grid → render
// pipeline used by the CLI and the HTTP API. By centralizing this logic,
// both entry points cache, log and validate the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Read a tree file, or a tree from a [store.Store]
//  2. Layers: Assign every person a generation
//  3. Grid: Build the family-tree grid from the tree and its layers
//  4. Render: Generate output in various formats (text, SVG, DOT, PNG, PDF, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
// Layers, grids and artifacts are cached under the tree's content hash, so
// an edited tree never hits a stale entry.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "family.json",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	l, err := runner.ComputeLayers(ctx, s, opts)
//	g, bands, err := runner.BuildGrid(ctx, s, l, opts)
//	artifacts, err := runner.Render(ctx, s, g, bands, l, opts)
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familygrid/pkg/cache"
	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/render/svg"
	"github.com/matzehuels/familygrid/pkg/render/text"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultProvider names the built-in layer assignment.
	DefaultProvider = "longest-path"

	// DefaultCellWidth is the text renderer's column width in characters.
	DefaultCellWidth = text.DefaultCellWidth

	// DefaultCellSize is the SVG renderer's column width in user units.
	DefaultCellSize = svg.DefaultCellSize

	// DefaultTheme is the SVG colour theme.
	DefaultTheme = string(svg.ThemeLight)

	// DefaultPNGScale is the resolution multiplier for PNG output.
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatText: true,
	FormatSVG:  true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ContentTypes maps each format to its MIME type.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatText: "text/plain; charset=utf-8",
	FormatSVG:  "image/svg+xml",
	FormatDOT:  "text/vnd.graphviz",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options: exactly one of Path and TreeID.
	Path   string `json:"path,omitempty"`
	TreeID string `json:"tree_id,omitempty"`

	// Layer options
	Layers  layers.Layers `json:"layers,omitempty"` // Caller-supplied generations (skip the provider)
	Refresh bool          `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	CellWidth int      `json:"cell_width,omitempty"`
	CellSize  float64  `json:"cell_size,omitempty"`
	Theme     string   `json:"theme,omitempty"`
	NoLabels  bool     `json:"no_labels,omitempty"` // Show short ids instead of names
	NoDrops   bool     `json:"no_drops,omitempty"`  // Skip lines between layers
	Color     bool     `json:"color,omitempty"`     // Colour text output

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Snapshot is the loaded tree.
	Snapshot *tree.Snapshot

	// TreeHash is the content hash of the tree.
	TreeHash string

	// Layers are the generations the grid was built from.
	Layers layers.Layers

	// Grid is the laid out tree.
	Grid *grid.Grid

	// Bands are the resolved ranges per grid row.
	Bands [][]grid.Range

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PersonCount       int
	RelationshipCount int
	Rows              int
	Columns           int
	Connections       int
	LoadTime          time.Duration
	LayersTime        time.Duration
	GridTime          time.Duration
	RenderTime        time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayersHit bool // Whether layers came from cache
	GridHit   bool // Whether the grid came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, text, svg, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTheme checks that a theme is valid.
func ValidateTheme(theme string) error {
	if !svg.ValidThemes[svg.Theme(theme)] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid theme: %q (must be one of: light, dark)", theme)
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks.
// An empty string yields the text format.
func ParseFormats(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{FormatText}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that exactly one tree source is set.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.Path == "" && o.TreeID == "":
		return errors.New(errors.ErrCodeInvalidInput, "path or tree_id is required")
	case o.Path != "" && o.TreeID != "":
		return errors.New(errors.ErrCodeInvalidInput, "path and tree_id are mutually exclusive")
	case o.TreeID != "":
		if err := errors.ValidateTreeID(o.TreeID); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatText}
	}
	if o.CellWidth == 0 {
		o.CellWidth = DefaultCellWidth
	}
	if o.CellSize == 0 {
		o.CellSize = DefaultCellSize
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.CellWidth < 3 {
		return errors.New(errors.ErrCodeInvalidInput, "cell_width must be at least 3, got %d", o.CellWidth)
	}
	if o.CellSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cell_size must be positive, got %g", o.CellSize)
	}
	return ValidateTheme(o.Theme)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Provider returns the name of the layer source for cache keys.
func (o *Options) Provider() string {
	if len(o.Layers) > 0 {
		return "explicit"
	}
	return DefaultProvider
}

// GridKeyOpts returns cache key options for grid construction.
func (o *Options) GridKeyOpts(l layers.Layers) cache.GridKeyOpts {
	opts := cache.GridKeyOpts{Provider: o.Provider()}
	if len(o.Layers) > 0 {
		opts.LayersHash = hashLayers(l)
	}
	return opts
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Labels: !o.NoLabels}
	switch format {
	case FormatText:
		opts.Width = o.CellWidth
		opts.Theme = fmt.Sprintf("color=%t,drops=%t", o.Color, !o.NoDrops)
	case FormatSVG, FormatPNG, FormatPDF:
		opts.CellSize = o.CellSize
		opts.Theme = fmt.Sprintf("%s,drops=%t", o.Theme, !o.NoDrops)
	}
	return opts
}
