// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through package-level hook registries that default
// to no-ops. Binaries register real implementations at startup, so library
// packages never import a metrics backend themselves.
//
// # Usage
//
// Register hooks at startup:
//
//	func main() {
//	    m := observability.NewPrometheus(prometheus.NewRegistry())
//	    observability.SetPipelineHooks(m)
//	    observability.SetCacheHooks(m)
//	    // ...
//	}
//
// Libraries emit events:
//
//	observability.Pipeline().OnStageStart(ctx, observability.StageGrid, persons)
//	// ... build the grid ...
//	observability.Pipeline().OnStageComplete(ctx, observability.StageGrid, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names the steps of the layout pipeline.
type Stage string

const (
	StageLoad   Stage = "load"
	StageLayers Stage = "layers"
	StageGrid   Stage = "grid"
	StageRender Stage = "render"
)

// PipelineHooks receives events from the layout pipeline.
type PipelineHooks interface {
	// OnStageStart is called before a stage runs on a tree of the given size.
	OnStageStart(ctx context.Context, stage Stage, persons int)
	OnStageComplete(ctx context.Context, stage Stage, duration time.Duration, err error)
	// OnGrid reports the shape of every grid built.
	OnGrid(ctx context.Context, rows, columns, connections int)
}

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// StoreHooks receives events from tree stores.
type StoreHooks interface {
	OnLoad(ctx context.Context, backend string, duration time.Duration, err error)
	OnSave(ctx context.Context, backend string, duration time.Duration, err error)
	// OnConflict records a save rejected because its base version was stale.
	OnConflict(ctx context.Context, backend string)
}

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnStageStart(context.Context, Stage, int)                     {}
func (NoopPipelineHooks) OnStageComplete(context.Context, Stage, time.Duration, error) {}
func (NoopPipelineHooks) OnGrid(context.Context, int, int, int)                        {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, time.Duration, error) {}
func (NoopStoreHooks) OnSave(context.Context, string, time.Duration, error) {}
func (NoopStoreHooks) OnConflict(context.Context, string)                   {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetStoreHooks registers store hooks. Nil is ignored.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetHTTPHooks registers HTTP server hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	storeHooks = NoopStoreHooks{}
	httpHooks = NoopHTTPHooks{}
}
