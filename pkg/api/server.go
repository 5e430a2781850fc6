// Package api serves family trees over HTTP.
//
// Trees live in a [store.Store] and are edited one operation per request.
// Every edit is saved against the version it was loaded at, so two clients
// racing on the same tree see a 409 instead of losing an update. Clients
// that want to pin the version they last saw send it in an If-Match header.
//
// Layout requests go through a [pipeline.Runner] and share its cache.
//
//	srv, err := api.New(api.Options{Store: st, Runner: runner, Logger: logger})
//	if err != nil {
//	    return err
//	}
//	err = api.ListenAndServe(ctx, ":8080", srv.Handler(), logger)
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/pipeline"
	"github.com/matzehuels/familygrid/pkg/store"
)

// Options configures a [Server].
type Options struct {
	// Store holds the trees. Required.
	Store store.Store
	// Runner computes layouts. Nil uses an uncached runner.
	Runner *pipeline.Runner
	// Logger receives request logs. Nil uses log.Default().
	Logger *log.Logger
	// CORSOrigins lists the browser origins allowed to call the API.
	// Empty allows any origin.
	CORSOrigins []string
	// Metrics is served on /metrics when set.
	Metrics prometheus.Gatherer
}

// Server routes API requests to the store and the pipeline.
type Server struct {
	store   store.Store
	runner  *pipeline.Runner
	logger  *log.Logger
	origins []string
	metrics prometheus.Gatherer
}

// New creates a server. It fails with CONFIGURATION_ERROR without a store.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "api: store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Server{
		store:   opts.Store,
		runner:  runner,
		logger:  logger,
		origins: opts.CORSOrigins,
		metrics: opts.Metrics,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(s.logger))

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-Match", "X-Request-ID"},
		ExposedHeaders: []string{"ETag", "X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/health", s.health)
	if s.metrics != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1/trees", func(r chi.Router) {
		r.Get("/", s.listTrees)
		r.Route("/{treeID}", func(r chi.Router) {
			r.Get("/", s.getTree)
			r.Put("/", s.putTree)
			r.Delete("/", s.deleteTree)
			r.Get("/grid", s.getGrid)
			r.Get("/render", s.renderTree)

			r.Post("/relationships/{relID}/children", s.addChild)
			r.Post("/relationships/{relID}/parents", s.addParent)
			r.Post("/persons/{personID}/relationships", s.addRelationship)
			r.Delete("/persons/{personID}", s.removePerson)
			r.Put("/persons/{personID}/info/{key}", s.setInfo)
			r.Delete("/persons/{personID}/info/{key}", s.removeInfo)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return router
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != http.ErrServerClosed {
		return err
	}
	return nil
}
