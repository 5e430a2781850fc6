package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/render"
	"github.com/matzehuels/familygrid/pkg/render/text"
)

// gridCommand creates the grid command, which prints the laid out tree.
func (c *CLI) gridCommand() *cobra.Command {
	var (
		src        treeSource
		asJSON     bool
		cellWidth  int
		color      bool
		noLabels   bool
		noDrops    bool
		compact    bool
		layersPath string
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "grid [file]",
		Short: "Lay out a tree and print the grid",
		Long: `Lay out a tree and print the grid.

Every generation takes three rows: persons, the connector row below them
joining siblings, and the connector row joining parents. Lines between
generations show which relationship each child descends from.`,
		Example: `  familygrid grid family.json
  familygrid grid --tree smiths --color
  familygrid grid family.json --layers order.json --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.fromArgs(args); err != nil {
				return err
			}
			ctx := cmd.Context()

			opts := src.options(c.renderDefaults())
			opts.Logger = c.Logger
			opts.Refresh = refresh
			if cmd.Flags().Changed("cell-width") {
				opts.CellWidth = cellWidth
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			l, err := readLayers(layersPath)
			if err != nil {
				return err
			}
			opts.Layers = l

			runner, err := c.runnerFor(ctx, src, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			s, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}
			if l, err = runner.ComputeLayers(ctx, s, opts); err != nil {
				return err
			}
			g, bands, err := runner.BuildGrid(ctx, s, l, opts)
			if err != nil {
				return err
			}
			c.Logger.Debug("built grid", "rows", g.Height(), "columns", g.Width)

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(g, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal grid: %w", err)
				}
				_, err = fmt.Fprintf(out, "%s\n", data)
				return err
			}

			topts := text.Options{CellWidth: opts.CellWidth, Color: color, Compact: compact}
			if !noLabels {
				topts.Labels = render.LabelsOf(s)
			}
			if !noDrops {
				topts.Bands = bands
			}
			_, err = fmt.Fprint(out, text.Render(g, topts))
			return err
		},
	}

	src.addTreeFlag(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the grid as JSON")
	cmd.Flags().IntVar(&cellWidth, "cell-width", 0, "characters per column (default from config)")
	cmd.Flags().BoolVar(&color, "color", false, "colour connections")
	cmd.Flags().BoolVar(&noLabels, "no-labels", false, "show short ids instead of names")
	cmd.Flags().BoolVar(&noDrops, "no-drops", false, "omit the lines between generations")
	cmd.Flags().BoolVar(&compact, "compact", false, "skip empty connector rows")
	cmd.Flags().StringVar(&layersPath, "layers", "", "JSON file with the generations to use (see \"layers -o\")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute cached layers and grids")

	return cmd
}
