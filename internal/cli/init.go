package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// initCommand creates the init command, which starts a new tree.
func (c *CLI) initCommand() *cobra.Command {
	var (
		src                 treeSource
		firstName, lastName string
		force               bool
	)

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Create a tree with a single person",
		Long: `Create a tree with one person and an empty relationship above them.

The tree is written to the given file (.json or .yaml) or, with --tree, saved
to the configured store under that id.`,
		Example: `  familygrid init family.json --first-name Anna --last-name Smith
  familygrid init --tree smiths`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := src.fromArgs(args); err != nil {
				return err
			}
			if src.path != "" {
				if _, err := os.Stat(src.path); err == nil {
					if !force {
						return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", src.path)
					}
					printWarning("Overwriting %s", src.path)
				}
			}

			s := tree.New()
			root := s.Persons()[0].ID
			var err error
			for _, kv := range [][2]string{{tree.KeyFirstName, firstName}, {tree.KeyLastName, lastName}} {
				if kv[1] == "" {
					continue
				}
				if s, err = s.InsertInfo(root, kv[0], kv[1]); err != nil {
					return err
				}
			}

			if err := c.saveTree(cmd.Context(), src, s, 0); err != nil {
				return err
			}
			c.Logger.Debug("created tree", "source", src.String(), "version", s.Version())

			printSuccess("Created %s", src)
			printKeyValue("Person", string(root))
			printKeyValue("Relationship", string(s.Relationships()[0].ID))
			printNewline()
			printNextStep("Add a parent", fmt.Sprintf("familygrid person add-parent %s %s", src.flag(), s.Relationships()[0].ID))
			return nil
		},
	}

	src.addTreeFlag(cmd)
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name of the first person")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name of the first person")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
