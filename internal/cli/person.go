package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// personCommand creates the person command group, which edits a tree.
// Every edit loads the tree, applies one operation and saves the result
// with its version increased by one.
func (c *CLI) personCommand() *cobra.Command {
	src := &treeSource{}

	cmd := &cobra.Command{
		Use:   "person",
		Short: "Add, remove and annotate persons",
		Long: `Edit the persons and relationships of a tree.

The tree is read from --file or, with --tree, from the configured store.
Stored trees are saved against the version that was read, so a concurrent
edit fails with a version conflict instead of being overwritten.`,
		Example: `  familygrid person add-parent -f family.json <relationship-id>
  familygrid person add-child --tree smiths <relationship-id>
  familygrid person info set -f family.json <person-id> @firstName Anna`,
	}
	src.addFileFlag(cmd)

	cmd.AddCommand(c.personAddChildCommand(src))
	cmd.AddCommand(c.personAddParentCommand(src))
	cmd.AddCommand(c.personAddRelationshipCommand(src))
	cmd.AddCommand(c.personRemoveCommand(src))
	cmd.AddCommand(c.personInfoCommand(src))

	return cmd
}

// editFunc applies one edit and returns the new snapshot.
type editFunc func(s *tree.Snapshot) (*tree.Snapshot, error)

// edit loads src, applies fn and saves the result.
func (c *CLI) edit(cmd *cobra.Command, src *treeSource, fn editFunc) (*tree.Snapshot, error) {
	if err := src.fromArgs(nil); err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	s, err := c.loadTree(ctx, *src)
	if err != nil {
		return nil, err
	}
	next, err := fn(s)
	if err != nil {
		return nil, err
	}
	if err := c.saveTree(ctx, *src, next, s.Version()); err != nil {
		return nil, err
	}
	c.Logger.Debug("saved tree", "source", src.String(), "version", next.Version())
	return next, nil
}

func (c *CLI) personAddChildCommand(src *treeSource) *cobra.Command {
	return &cobra.Command{
		Use:   "add-child <relationship-id>",
		Short: "Add a child to a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pid tree.PersonID
			_, err := c.edit(cmd, src, func(s *tree.Snapshot) (next *tree.Snapshot, err error) {
				next, pid, err = s.AddChild(tree.RelationshipID(args[0]))
				return next, err
			})
			if err != nil {
				return err
			}
			printSuccess("Added child")
			printKeyValue("Person", string(pid))
			return nil
		},
	}
}

func (c *CLI) personAddParentCommand(src *treeSource) *cobra.Command {
	return &cobra.Command{
		Use:   "add-parent <relationship-id>",
		Short: "Add a parent to a relationship",
		Long: `Add a parent to a relationship that has an empty parent slot. The new
parent gets an empty relationship of their own above them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				pid tree.PersonID
				rid tree.RelationshipID
			)
			_, err := c.edit(cmd, src, func(s *tree.Snapshot) (next *tree.Snapshot, err error) {
				next, pid, rid, err = s.AddParent(tree.RelationshipID(args[0]))
				return next, err
			})
			if err != nil {
				return err
			}
			printSuccess("Added parent")
			printKeyValue("Person", string(pid))
			printKeyValue("Relationship", string(rid))
			return nil
		},
	}
}

func (c *CLI) personAddRelationshipCommand(src *treeSource) *cobra.Command {
	var partner string

	cmd := &cobra.Command{
		Use:   "add-relationship <person-id>",
		Short: "Start a new family with a person as parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid := tree.PersonID(args[0])
			var rid tree.RelationshipID
			_, err := c.edit(cmd, src, func(s *tree.Snapshot) (next *tree.Snapshot, err error) {
				if partner != "" {
					next, rid, err = s.AddRelationshipWithPartner(pid, tree.PersonID(partner))
				} else {
					next, rid, err = s.AddRelationship(pid)
				}
				return next, err
			})
			if err != nil {
				return err
			}
			printSuccess("Added relationship")
			printKeyValue("Relationship", string(rid))
			printNewline()
			printNextStep("Add a child", fmt.Sprintf("familygrid person add-child %s %s", src.flag(), rid))
			return nil
		},
	}
	cmd.Flags().StringVar(&partner, "partner", "", "id of the second parent")

	return cmd
}

func (c *CLI) personRemoveCommand(src *treeSource) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <person-id>",
		Short: "Remove a person and the relationships left empty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid := tree.PersonID(args[0])
			next, err := c.edit(cmd, src, func(s *tree.Snapshot) (*tree.Snapshot, error) {
				return s.RemovePerson(pid)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", pid)
			printDetail("%d persons left", next.Len())
			return nil
		},
	}
}

// personInfoCommand creates the "person info" group for key/value data.
func (c *CLI) personInfoCommand(src *treeSource) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Set and remove person info",
		Long: `Set and remove info fields of a person.

Keys starting with @ are reserved for display: @firstName, @middleName,
@lastName, @dateOfBirth, @dateOfDeath and @image.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <person-id> <key> <value>",
		Short: "Set an info field",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, key, value := tree.PersonID(args[0]), args[1], args[2]
			if err := errors.ValidateInfoKey(key); err != nil {
				return err
			}
			_, err := c.edit(cmd, src, func(s *tree.Snapshot) (*tree.Snapshot, error) {
				return s.InsertInfo(pid, key, value)
			})
			if err != nil {
				return err
			}
			printSuccess("Set %s", key)
			printKeyValue(key, value)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <person-id> <key>",
		Aliases: []string{"remove"},
		Short:   "Remove an info field",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, key := tree.PersonID(args[0]), args[1]
			var old string
			_, err := c.edit(cmd, src, func(s *tree.Snapshot) (next *tree.Snapshot, err error) {
				next, old, err = s.RemoveInfo(pid, key)
				return next, err
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", key)
			printDetail("was %q", old)
			return nil
		},
	})

	return cmd
}
