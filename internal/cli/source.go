package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/pipeline"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// treeSource names the tree a command works on: a tree file or the id of a
// tree in the configured store.
type treeSource struct {
	path string
	id   string
}

// addTreeFlag registers --tree on cmd.
func (src *treeSource) addTreeFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&src.id, "tree", "", "id of a stored tree (instead of a file)")
}

// addFileFlag registers --file and --tree as persistent flags, for commands
// whose positional arguments are ids.
func (src *treeSource) addFileFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&src.path, "file", "f", "", "tree file (.json or .yaml)")
	cmd.PersistentFlags().StringVar(&src.id, "tree", "", "id of a stored tree (instead of a file)")
}

// fromArgs takes the file from the first positional argument, if any, and
// checks that exactly one of file and --tree is set.
func (src *treeSource) fromArgs(args []string) error {
	if len(args) > 0 {
		if src.path != "" {
			return errors.New(errors.ErrCodeInvalidInput, "tree file given twice")
		}
		src.path = args[0]
	}
	switch {
	case src.id != "" && src.path != "":
		return errors.New(errors.ErrCodeInvalidInput, "give either a file or --tree, not both")
	case src.id != "":
		return errors.ValidateTreeID(src.id)
	case src.path == "":
		return errors.New(errors.ErrCodeInvalidInput, "a tree file or --tree is required")
	}
	return nil
}

// flag renders src as command-line flags for printed next steps.
func (src treeSource) flag() string {
	if src.id != "" {
		return "--tree " + src.id
	}
	return "-f " + src.path
}

func (src treeSource) String() string {
	if src.id != "" {
		return "tree " + src.id
	}
	return src.path
}

// options returns pipeline options loading this source.
func (src treeSource) options(opts pipeline.Options) pipeline.Options {
	opts.Path, opts.TreeID = src.path, src.id
	return opts
}

// loadTree reads the tree named by src.
func (c *CLI) loadTree(ctx context.Context, src treeSource) (*tree.Snapshot, error) {
	if src.id == "" {
		return tree.Read(src.path)
	}
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, src.id)
}

// saveTree writes s as the new state of src. Stored trees are saved
// against base; see [store.Store.Save].
func (c *CLI) saveTree(ctx context.Context, src treeSource, s *tree.Snapshot, base int) error {
	if src.id == "" {
		return tree.Write(src.path, s)
	}
	st, err := c.newStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Save(ctx, src.id, s, base)
}

// runnerFor creates a pipeline runner that can also load stored trees.
func (c *CLI) runnerFor(ctx context.Context, src treeSource, noCache bool) (*pipeline.Runner, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	if src.id != "" {
		st, err := c.newStore(ctx)
		if err != nil {
			runner.Close()
			return nil, err
		}
		runner.Store = st
	}
	return runner, nil
}

// readLayers reads caller-supplied generations from a JSON file holding an
// array of person id arrays.
func readLayers(path string) (layers.Layers, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "layers file not found: %s", path)
		}
		return nil, fmt.Errorf("read layers: %w", err)
	}
	var l layers.Layers
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLayers, err, "parse %s", path)
	}
	return l, nil
}
