package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/render"
)

// layersCommand creates the layers command, which prints the generation
// of every person.
func (c *CLI) layersCommand() *cobra.Command {
	var (
		src     treeSource
		asJSON  bool
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layers [file]",
		Short: "Print the generations of a tree",
		Long: `Print the generations of a tree, oldest first.

With --output the generations are written as a JSON array of person id
arrays. Edit the order within a generation and pass the file to
"familygrid grid --layers" to lay the tree out in that order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.fromArgs(args); err != nil {
				return err
			}
			ctx := cmd.Context()
			runner, err := c.runnerFor(ctx, src, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := src.options(c.renderDefaults())
			opts.Logger = c.Logger
			s, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}
			l, err := runner.ComputeLayers(ctx, s, opts)
			if err != nil {
				return err
			}

			if asJSON || output != "" {
				data, err := json.MarshalIndent(l, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal layers: %w", err)
				}
				data = append(data, '\n')
				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write layers: %w", err)
				}
				printSuccess("Wrote %d generations", len(l))
				printFile(output)
				return nil
			}

			labels := render.LabelsOf(s)
			out := cmd.OutOrStdout()
			for i, layer := range l {
				names := make([]string, len(layer))
				for j, pid := range layer {
					names[j] = labels.Label(pid)
				}
				fmt.Fprintf(out, "%s  %s\n", styleNumber.Render(fmt.Sprintf("%2d", i)), strings.Join(names, styleDim.Render(" · ")))
			}
			return nil
		},
	}

	src.addTreeFlag(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the generations as JSON")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the generations as JSON to a file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
