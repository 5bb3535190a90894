package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// HTTP metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	RateLimitHits *prometheus.CounterVec

	// Render metrics
	PageRenders *prometheus.CounterVec
	Alerts      *prometheus.GaugeVec

	// Warehouse metrics
	QueryDuration *prometheus.HistogramVec
	WarehouseRows *prometheus.GaugeVec
	CacheLookups  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on reg. A nil
// registerer means the process-wide default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route"},
		),
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Rate limit rejections",
			},
			[]string{"route"},
		),

		PageRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_renders_total",
				Help:      "Dashboard page renders by view and outcome",
			},
			[]string{"view", "outcome"},
		),
		Alerts: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dashboard_alerts",
				Help:      "Alerts in the latest computed alert list",
			},
			[]string{"issue", "severity"},
		),

		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "warehouse_query_duration_seconds",
				Help:      "Warehouse table load latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"table", "status"},
		),
		WarehouseRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "warehouse_rows",
				Help:      "Rows returned by the latest load of each table",
			},
			[]string{"table"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_total",
				Help:      "Snapshot cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),

		gatherer: gatherer,
	}
}

// Handler returns the Prometheus metrics HTTP handler for the registry the
// collectors were registered on.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(route string, status int, latency time.Duration) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(latency.Seconds())
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(route string) {
	m.RateLimitHits.WithLabelValues(route).Inc()
}

// RecordRender records a page render. Outcome is "ok" or "error".
func (m *Metrics) RecordRender(view, outcome string) {
	m.PageRenders.WithLabelValues(view, outcome).Inc()
}

// RecordQuery records a warehouse table load.
func (m *Metrics) RecordQuery(table string, err error, latency time.Duration, rows int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.QueryDuration.WithLabelValues(table, status).Observe(latency.Seconds())
	if err == nil {
		m.WarehouseRows.WithLabelValues(table).Set(float64(rows))
	}
}

// RecordCache records a snapshot cache lookup. Tier is "memory" or "redis".
func (m *Metrics) RecordCache(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(tier, result).Inc()
}

// SetAlertCounts replaces the alert gauge with the given counts keyed by
// issue and severity.
func (m *Metrics) SetAlertCounts(counts map[[2]string]int) {
	m.Alerts.Reset()
	for k, n := range counts {
		m.Alerts.WithLabelValues(k[0], k[1]).Set(float64(n))
	}
}
