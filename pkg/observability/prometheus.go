package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface by recording Prometheus
// metrics. Register it with all four Set*Hooks functions.
type Prometheus struct {
	StageDuration   *prometheus.HistogramVec
	StageErrors     *prometheus.CounterVec
	GridCells       prometheus.Histogram
	GridConnections prometheus.Histogram

	CacheRequests *prometheus.CounterVec
	CacheBytes    *prometheus.CounterVec

	StoreDuration  *prometheus.HistogramVec
	StoreConflicts *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewPrometheus creates the metrics and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "familygrid_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"stage"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "familygrid_stage_errors_total",
			Help: "Pipeline stages that failed",
		}, []string{"stage"}),
		GridCells: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "familygrid_grid_cells",
			Help:    "Number of cells per built grid",
			Buckets: prometheus.ExponentialBuckets(8, 4, 8),
		}),
		GridConnections: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "familygrid_grid_connections",
			Help:    "Number of link groups per built grid",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "familygrid_cache_requests_total",
			Help: "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "familygrid_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}, []string{"key_type"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "familygrid_store_operation_duration_seconds",
			Help:    "Tree store operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "operation", "status"}),
		StoreConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "familygrid_store_conflicts_total",
			Help: "Saves rejected because of a stale version",
		}, []string{"backend"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "familygrid_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "familygrid_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (p *Prometheus) OnStageStart(context.Context, Stage, int) {}

func (p *Prometheus) OnStageComplete(_ context.Context, stage Stage, d time.Duration, err error) {
	p.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	if err != nil {
		p.StageErrors.WithLabelValues(string(stage)).Inc()
	}
}

func (p *Prometheus) OnGrid(_ context.Context, rows, columns, connections int) {
	p.GridCells.Observe(float64(rows * columns))
	p.GridConnections.Observe(float64(connections))
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnLoad(_ context.Context, backend string, d time.Duration, err error) {
	p.StoreDuration.WithLabelValues(backend, "load", status(err)).Observe(d.Seconds())
}

func (p *Prometheus) OnSave(_ context.Context, backend string, d time.Duration, err error) {
	p.StoreDuration.WithLabelValues(backend, "save", status(err)).Observe(d.Seconds())
}

func (p *Prometheus) OnConflict(_ context.Context, backend string) {
	p.StoreConflicts.WithLabelValues(backend).Inc()
}

func (p *Prometheus) OnRequest(_ context.Context, method, route string, code int, d time.Duration) {
	p.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ StoreHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
