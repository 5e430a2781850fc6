package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// viewCommand creates the view command, an interactive grid browser.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		src       treeSource
		cellWidth int
	)

	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Browse the grid of a tree interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.fromArgs(args); err != nil {
				return err
			}
			ctx := cmd.Context()

			opts := src.options(c.renderDefaults())
			opts.Logger = c.Logger
			if cmd.Flags().Changed("cell-width") {
				opts.CellWidth = cellWidth
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			runner, err := c.runnerFor(ctx, src, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			s, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}
			l, err := runner.ComputeLayers(ctx, s, opts)
			if err != nil {
				return err
			}
			g, bands, err := runner.BuildGrid(ctx, s, l, opts)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewGridViewModel(s, g, bands, opts.CellWidth),
				tea.WithContext(ctx), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	src.addTreeFlag(cmd)
	cmd.Flags().IntVar(&cellWidth, "cell-width", 0, "characters per column (default from config)")

	return cmd
}
