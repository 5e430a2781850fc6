package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/pipeline"
)

// fileExtensions maps output formats to file extensions. The grid JSON gets
// a double extension so it never overwrites a JSON tree file.
var fileExtensions = map[string]string{
	pipeline.FormatJSON: "grid.json",
	pipeline.FormatText: "txt",
	pipeline.FormatSVG:  "svg",
	pipeline.FormatDOT:  "dot",
	pipeline.FormatPNG:  "png",
	pipeline.FormatPDF:  "pdf",
}

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	output     string
	formats    string
	cellWidth  int
	cellSize   float64
	theme      string
	color      bool
	noLabels   bool
	noDrops    bool
	layersPath string
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command for generating output files.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		src   treeSource
		flags renderFlags
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a tree to text, SVG, DOT, PNG, PDF or JSON",
		Long: `Render a tree through the full layout pipeline.

Each requested format is written next to the input file (or to the base path
given with --output) using the format's extension. PNG and PDF need
rsvg-convert on the PATH.`,
		Example: `  familygrid render family.json -f svg,png
  familygrid render --tree smiths -f pdf -o out/smiths
  familygrid render family.json -f svg --theme dark --cell-size 120`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.fromArgs(args); err != nil {
				return err
			}
			opts, err := c.renderOptions(cmd, src, flags)
			if err != nil {
				return err
			}
			return c.runRender(cmd, src, opts, flags)
		},
	}

	src.addTreeFlag(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output base path (default: input path without extension)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): json, text, svg, dot, png, pdf (comma-separated)")
	cmd.Flags().IntVar(&flags.cellWidth, "cell-width", 0, "characters per column in text output")
	cmd.Flags().Float64Var(&flags.cellSize, "cell-size", 0, "column width of SVG output")
	cmd.Flags().StringVar(&flags.theme, "theme", "", "SVG theme: light, dark")
	cmd.Flags().BoolVar(&flags.color, "color", false, "colour connections in text output")
	cmd.Flags().BoolVar(&flags.noLabels, "no-labels", false, "show short ids instead of names")
	cmd.Flags().BoolVar(&flags.noDrops, "no-drops", false, "omit the lines between generations")
	cmd.Flags().StringVar(&flags.layersPath, "layers", "", "JSON file with the generations to use")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached results")

	return cmd
}

// renderOptions merges flags over the configured render defaults. Only
// flags set on the command line override the config file.
func (c *CLI) renderOptions(cmd *cobra.Command, src treeSource, flags renderFlags) (pipeline.Options, error) {
	opts := src.options(c.renderDefaults())
	opts.Logger = c.Logger
	opts.Color = flags.color
	opts.NoLabels = flags.noLabels
	opts.NoDrops = flags.noDrops
	opts.Refresh = flags.refresh

	f := cmd.Flags()
	if f.Changed("format") {
		opts.Formats = pipeline.ParseFormats(flags.formats)
	}
	if f.Changed("cell-width") {
		opts.CellWidth = flags.cellWidth
	}
	if f.Changed("cell-size") {
		opts.CellSize = flags.cellSize
	}
	if f.Changed("theme") {
		opts.Theme = flags.theme
	}

	l, err := readLayers(flags.layersPath)
	if err != nil {
		return opts, err
	}
	opts.Layers = l

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(cmd *cobra.Command, src treeSource, opts pipeline.Options, flags renderFlags) error {
	ctx := cmd.Context()
	runner, err := c.runnerFor(ctx, src, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), "Rendering "+src.String()+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	base := basePath(flags.output, src)
	paths, err := writeArtifacts(result.Artifacts, opts.Formats, base)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(paths)))

	cached := result.CacheInfo.LayersHit && result.CacheInfo.GridHit && result.CacheInfo.RenderHit
	printSuccess("Rendered %s", src)
	printStats(result.Stats.PersonCount, result.Stats.RelationshipCount, cached)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// basePath derives the base output path. Without --output it is the input
// path without its extension, or the tree id for stored trees. A known
// format extension on output is stripped.
func basePath(output string, src treeSource) string {
	if output == "" {
		if src.id != "" {
			return src.id
		}
		return strings.TrimSuffix(src.path, filepath.Ext(src.path))
	}
	for _, ext := range fileExtensions {
		if strings.HasSuffix(output, "."+ext) {
			return strings.TrimSuffix(output, "."+ext)
		}
	}
	return output
}

// writeArtifacts writes each format to base plus the format's extension,
// in the order requested, and returns the written paths.
func writeArtifacts(artifacts map[string][]byte, formats []string, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	var paths []string
	seen := make(map[string]bool, len(formats))
	for _, format := range formats {
		if seen[format] {
			continue
		}
		seen[format] = true
		data, ok := artifacts[format]
		if !ok {
			return paths, fmt.Errorf("no %s output produced", format)
		}
		path := base + "." + fileExtensions[format]
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
