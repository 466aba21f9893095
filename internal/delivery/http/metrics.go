package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crwatch/backend/internal/domain"
)

// Metrics holds the prometheus collectors for the API.
// It also observes the lookup service and dataset reloads.
type Metrics struct {
	gatherer prometheus.Gatherer

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	matchResults   *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
	datasetEntries *prometheus.GaugeVec
	reloads        *prometheus.CounterVec
}

// NewMetrics registers the collectors on registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crw_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crw_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		matchResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crw_match_results",
			Help:    "Number of entries returned per match call.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}, []string{"endpoint"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crw_match_cache_total",
			Help: "Match cache lookups by result.",
		}, []string{"result"}),
		datasetEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crw_dataset_entries",
			Help: "Entries in the served dataset snapshot by type.",
		}, []string{"type"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crw_dataset_reloads_total",
			Help: "Dataset reload attempts by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(m.requests, m.duration, m.matchResults, m.cacheLookups, m.datasetEntries, m.reloads)
	return m
}

// ObserveCache records a match cache lookup
func (m *Metrics) ObserveCache(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveMatches records how many entries a match call returned
func (m *Metrics) ObserveMatches(endpoint string, count int) {
	m.matchResults.WithLabelValues(endpoint).Observe(float64(count))
}

// ObserveReload records a dataset reload and the entry counts being served
func (m *Metrics) ObserveReload(outcome string, snapshot *domain.Snapshot) {
	m.reloads.WithLabelValues(outcome).Inc()
	if snapshot == nil {
		return
	}
	for entityType, count := range snapshot.Counts() {
		m.datasetEntries.WithLabelValues(string(entityType)).Set(float64(count))
	}
}

// Middleware records request counts and latency per route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the prometheus exposition format
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
