package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/buildinfo"
	"github.com/matzehuels/familygrid/pkg/cache"
	"github.com/matzehuels/familygrid/pkg/config"
	"github.com/matzehuels/familygrid/pkg/pipeline"
	"github.com/matzehuels/familygrid/pkg/store"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before every command runs. Until then it holds the
	// defaults.
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Familygrid lays out family trees on a grid",
		Long: `Familygrid is a CLI tool for editing family trees and laying them out as
grids of persons and link rows, ready for terminal, SVG or Graphviz output.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/familygrid/config.toml)")

	// Register all subcommands
	root.AddCommand(c.initCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.layersCommand())
	root.AddCommand(c.gridCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.personCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// newCache opens the configured cache backend. An unreachable Redis falls
// back to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == "redis" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   config.AppName + ":",
		})
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens the configured tree store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	cfg := c.Config.Store
	if cfg.Backend == store.BackendMongo {
		return store.NewMongoStore(ctx, store.MongoOptions{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := config.DataDir()
		if err != nil {
			return nil, fmt.Errorf("get data dir: %w", err)
		}
		dir = d
	}
	return store.NewFileStore(dir)
}

// cacheDir returns the configured file cache directory.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return config.CacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderDefaults returns pipeline options preset from the config file.
func (c *CLI) renderDefaults() pipeline.Options {
	r := c.Config.Render
	opts := pipeline.Options{
		Formats:   []string{r.Format},
		CellWidth: r.CellWidth,
		CellSize:  r.CellSize,
		Theme:     r.Theme,
	}
	opts.SetRenderDefaults()
	return opts
}
