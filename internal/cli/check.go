package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// checkCommand creates the check command. Loading a tree already runs the
// consistency checks, so a tree that loads is valid.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		src     treeSource
		persons bool
	)

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a tree and print its statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.fromArgs(args); err != nil {
				return err
			}
			s, err := c.loadTree(cmd.Context(), src)
			if err != nil {
				printError("%s is not a valid tree", src)
				return err
			}

			printSuccess("%s is valid", src)
			printKeyValue("Persons", strconv.Itoa(s.Len()))
			printKeyValue("Relationships", strconv.Itoa(len(s.Relationships())))
			printKeyValue("Generations", strconv.Itoa(layers.Assign(s).Len()))
			printKeyValue("Version", strconv.Itoa(s.Version()))

			if persons {
				printNewline()
				fmt.Fprintln(cmd.OutOrStdout(), personTable(s))
			}
			return nil
		},
	}

	src.addTreeFlag(cmd)
	cmd.Flags().BoolVar(&persons, "persons", false, "list every person")

	return cmd
}

// personTable renders the persons of s as a table.
func personTable(s *tree.Snapshot) string {
	rows := make([][]string, 0, s.Len())
	for _, p := range s.Persons() {
		rows = append(rows, []string{string(p.ID), p.Name(), p.Info.Lifespan(), strconv.Itoa(len(s.ParentOf(p.ID)))})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Lifespan", "Families").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return styleDim
			}
			return styleValue
		}).
		Render()
}
