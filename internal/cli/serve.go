package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familygrid/pkg/api"
	"github.com/matzehuels/familygrid/pkg/observability"
	"github.com/matzehuels/familygrid/pkg/pipeline"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored trees over HTTP",
		Long: `Serve the trees of the configured store over a JSON HTTP API.

Edits are optimistic: every response carries the tree version as its ETag,
and an If-Match header makes an edit fail with 409 when the tree changed in
the meantime. Prometheus metrics are exposed at /metrics.`,
		Example: `  familygrid serve --addr :9090
  curl -X PUT localhost:9090/api/v1/trees/smiths`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			cc, err := c.newCache(ctx, noCache)
			if err != nil {
				st.Close()
				return err
			}
			runner := pipeline.NewRunner(cc, nil, c.Logger)
			runner.Store = st
			defer runner.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := observability.NewPrometheus(reg)
			observability.SetPipelineHooks(metrics)
			observability.SetCacheHooks(metrics)
			observability.SetStoreHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			srv, err := api.New(api.Options{
				Store:       st,
				Runner:      runner,
				Logger:      c.Logger,
				CORSOrigins: c.Config.Server.CORSOrigins,
				Metrics:     reg,
			})
			if err != nil {
				return err
			}

			printInfo("Serving on %s", c.Config.Server.Addr)
			return api.ListenAndServe(ctx, c.Config.Server.Addr, srv.Handler(), c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
