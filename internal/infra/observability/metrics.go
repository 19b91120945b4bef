package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the storefront service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	ordersTotal     *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ecm_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecm_external_errors_total",
				Help: "Total errors from external collaborators.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecm_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecm_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		ordersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecm_orders_total",
				Help: "Total order submissions by outcome.",
			},
			[]string{"status"},
		),
		guardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecm_admin_guard_total",
				Help: "Admin guard terminal states.",
			},
			[]string{"decision"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrOrder increments the order counter with an outcome label.
func (m *Metrics) IncrOrder(status string) {
	m.ordersTotal.WithLabelValues(status).Inc()
}

// IncrGuardDecision increments the admin guard decision counter.
func (m *Metrics) IncrGuardDecision(decision string) {
	m.guardDecisions.WithLabelValues(decision).Inc()
}

// Snapshot is the admin dashboard view over the service's own counters.
type Snapshot struct {
	OrdersAccepted   int64   `json:"orders_accepted"`
	OrdersRejected   int64   `json:"orders_rejected"`
	TenantCacheHits  int64   `json:"tenant_cache_hits"`
	TenantCacheMiss  int64   `json:"tenant_cache_misses"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	SupabaseErrors   int64   `json:"supabase_errors"`
	BlobErrors       int64   `json:"blob_errors"`
	GuardUnauthorized int64  `json:"guard_unauthorized"`
}

// GetSnapshot reads current counter values for the dashboard endpoint.
func (m *Metrics) GetSnapshot() *Snapshot {
	hits := getCounterValue(m.cacheHits, "tenant")
	misses := getCounterValue(m.cacheMisses, "tenant")

	rate := float64(0)
	if hits+misses > 0 {
		rate = hits / (hits + misses)
	}

	return &Snapshot{
		OrdersAccepted:  int64(getCounterValue(m.ordersTotal, "accepted")),
		OrdersRejected:  int64(getCounterValue(m.ordersTotal, "rejected")),
		TenantCacheHits: int64(hits),
		TenantCacheMiss: int64(misses),
		CacheHitRate:    rate,
		SupabaseErrors:  int64(getCounterValue(m.externalErrors, "supabase")),
		BlobErrors:      int64(getCounterValue(m.externalErrors, "blob")),
		GuardUnauthorized: int64(getCounterValue(m.guardDecisions, "unauthorized") +
			getCounterValue(m.guardDecisions, "unauthenticated")),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
