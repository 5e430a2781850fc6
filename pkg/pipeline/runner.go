package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/familygrid/pkg/cache"
	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/grid"
	"github.com/matzehuels/familygrid/pkg/layers"
	"github.com/matzehuels/familygrid/pkg/observability"
	"github.com/matzehuels/familygrid/pkg/store"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache, store and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// Store serves Options.TreeID. Nil restricts the runner to files.
	Store store.Store
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layers → grid → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	s, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return result, r.run(ctx, s, opts, result, loadStart)
}

// ExecuteSnapshot runs the layers → grid → render stages on a tree that is
// already in memory. Options.Path and Options.TreeID are ignored.
func (r *Runner) ExecuteSnapshot(ctx context.Context, s *tree.Snapshot, opts Options) (*Result, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{}
	return result, r.run(ctx, s, opts, result, time.Now())
}

func (r *Runner) run(ctx context.Context, s *tree.Snapshot, opts Options, result *Result, loadStart time.Time) error {
	result.Snapshot = s
	result.TreeHash = tree.Hash(s)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.PersonCount = s.Len()
	result.Stats.RelationshipCount = len(s.Relationships())

	r.Logger.Info("loaded tree",
		"persons", result.Stats.PersonCount,
		"relationships", result.Stats.RelationshipCount,
		"version", s.Version(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layers
	layersStart := time.Now()
	l, layersHit, err := r.ComputeLayersWithCacheInfo(ctx, s, opts)
	if err != nil {
		return fmt.Errorf("layers: %w", err)
	}
	result.Layers = l
	result.Stats.LayersTime = time.Since(layersStart)
	result.CacheInfo.LayersHit = layersHit

	r.Logger.Info("assigned layers",
		"layers", len(l),
		"width", l.Width(),
		"duration", result.Stats.LayersTime)

	// Stage 3: Grid
	gridStart := time.Now()
	g, bands, gridHit, err := r.BuildGridWithCacheInfo(ctx, s, l, opts)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	result.Grid = g
	result.Bands = bands
	result.Stats.GridTime = time.Since(gridStart)
	result.Stats.Rows = g.Height()
	result.Stats.Columns = g.Width
	result.Stats.Connections = countConnections(bands)
	result.CacheInfo.GridHit = gridHit

	r.Logger.Info("built grid",
		"rows", result.Stats.Rows,
		"columns", result.Stats.Columns,
		"connections", result.Stats.Connections,
		"duration", result.Stats.GridTime)

	// Stage 4: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, s, g, bands, l, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return nil
}

// Load reads the tree named by opts from the store or from a file.
func (r *Runner) Load(ctx context.Context, opts Options) (s *tree.Snapshot, err error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	done := r.stage(ctx, observability.StageLoad, 0)
	defer func() { done(err) }()

	if opts.TreeID != "" {
		if r.Store == nil {
			return nil, errors.New(errors.ErrCodeConfiguration, "tree %q: no store configured", opts.TreeID)
		}
		return r.Store.Load(ctx, opts.TreeID)
	}
	return tree.Read(opts.Path)
}

// ComputeLayersWithCacheInfo assigns generations with caching and returns cache hit info.
// Caller-supplied layers are validated against s and used as they are.
func (r *Runner) ComputeLayersWithCacheInfo(ctx context.Context, s *tree.Snapshot, opts Options) (l layers.Layers, hit bool, err error) {
	done := r.stage(ctx, observability.StageLayers, s.Len())
	defer func() { done(err) }()

	if len(opts.Layers) > 0 {
		if err := layers.Validate(opts.Layers, s); err != nil {
			return nil, false, err
		}
		return opts.Layers, false, nil
	}

	cacheKey := r.Keyer.LayersKey(tree.Hash(s), cache.LayersKeyOpts{Provider: DefaultProvider})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		var cached layers.Layers
		if r.getJSON(ctx, "layers", cacheKey, &cached) && layers.Validate(cached, s) == nil {
			return cached, true, nil
		}
	}

	l = layers.Assign(s)
	r.setJSON(ctx, "layers", cacheKey, l, cache.TTLLayers)
	return l, false, nil
}

// ComputeLayers is a convenience wrapper that calls ComputeLayersWithCacheInfo and discards the cache hit info.
func (r *Runner) ComputeLayers(ctx context.Context, s *tree.Snapshot, opts Options) (layers.Layers, error) {
	l, _, err := r.ComputeLayersWithCacheInfo(ctx, s, opts)
	return l, err
}

type gridEntry struct {
	Grid  *grid.Grid     `json:"grid"`
	Bands [][]grid.Range `json:"bands"`
}

// BuildGridWithCacheInfo builds the grid with caching and returns cache hit info.
func (r *Runner) BuildGridWithCacheInfo(ctx context.Context, s *tree.Snapshot, l layers.Layers, opts Options) (g *grid.Grid, bands [][]grid.Range, hit bool, err error) {
	done := r.stage(ctx, observability.StageGrid, s.Len())
	defer func() {
		done(err)
		if err == nil {
			observability.Pipeline().OnGrid(ctx, g.Height(), g.Width, countConnections(bands))
		}
	}()

	cacheKey := r.Keyer.GridKey(tree.Hash(s), opts.GridKeyOpts(l))

	if !opts.Refresh {
		var cached gridEntry
		if r.getJSON(ctx, "grid", cacheKey, &cached) && cached.Grid != nil && len(cached.Bands) == cached.Grid.Height() {
			return cached.Grid, cached.Bands, true, nil
		}
	}

	rels := s.Relationships()
	g, err = grid.Assemble(rels, l)
	if err != nil {
		return nil, nil, false, err
	}
	bands, err = grid.Bands(rels, l)
	if err != nil {
		return nil, nil, false, err
	}

	r.setJSON(ctx, "grid", cacheKey, gridEntry{Grid: g, Bands: bands}, cache.TTLGrid)
	return g, bands, false, nil
}

// BuildGrid is a convenience wrapper that calls BuildGridWithCacheInfo and discards the cache hit info.
func (r *Runner) BuildGrid(ctx context.Context, s *tree.Snapshot, l layers.Layers, opts Options) (*grid.Grid, [][]grid.Range, error) {
	g, bands, _, err := r.BuildGridWithCacheInfo(ctx, s, l, opts)
	return g, bands, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *tree.Snapshot, g *grid.Grid, bands [][]grid.Range, l layers.Layers, opts Options) (artifacts map[string][]byte, hit bool, err error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	done := r.stage(ctx, observability.StageRender, s.Len())
	defer func() { done(err) }()

	// Labels and the DOT output depend on the tree beyond the grid.
	gridData, err := json.Marshal(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize grid for cache key: %w", err)
	}
	contentHash := cache.Hash(append(gridData, tree.Hash(s)...))

	// Try to get all formats from cache
	artifacts = make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(contentHash, opts.ArtifactKeyOpts(format))
			data, ok := r.get(ctx, "artifact", cacheKey)
			if !ok {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := Render(ctx, s, g, bands, l, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(contentHash, opts.ArtifactKeyOpts(format))
		r.set(ctx, "artifact", cacheKey, data, cache.TTLArtifact)
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, s *tree.Snapshot, g *grid.Grid, bands [][]grid.Range, l layers.Layers, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, s, g, bands, l, opts)
	return artifacts, err
}

// Scoped returns a copy of r whose cache keys start with prefix. The copy
// shares the cache and store of r; close only the original.
func (r *Runner) Scoped(prefix string) *Runner {
	scoped := *r
	scoped.Keyer = cache.NewScopedKeyer(r.Keyer, prefix)
	return &scoped
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// stage reports the start of a stage and returns the completion callback.
func (r *Runner) stage(ctx context.Context, st observability.Stage, persons int) func(error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, st, persons)
	start := time.Now()
	return func(err error) {
		hooks.OnStageComplete(ctx, st, time.Since(start), err)
		if err != nil {
			r.Logger.Debug("stage failed", "stage", st, "err", err)
		}
	}
}

// get reads a cache entry. Backend errors count as misses.
func (r *Runner) get(ctx context.Context, kind, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "kind", kind, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, kind)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return data, true
}

func (r *Runner) set(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "kind", kind, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

func (r *Runner) getJSON(ctx context.Context, kind, key string, v any) bool {
	data, ok := r.get(ctx, kind, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		r.Logger.Debug("discarding corrupt cache entry", "kind", kind, "err", err)
		return false
	}
	return true
}

func (r *Runner) setJSON(ctx context.Context, kind, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	r.set(ctx, kind, key, data, ttl)
}

func countConnections(bands [][]grid.Range) int {
	n := 0
	for _, row := range bands {
		n += len(row)
	}
	return n
}

func hashLayers(l layers.Layers) string {
	data, _ := json.Marshal(l)
	return cache.Hash(data)
}
