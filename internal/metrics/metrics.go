package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for pipeline runs and generation calls.
type Metrics struct {
	StagesTotal        *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	RunsTotal          *prometheus.CounterVec
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
}

// New creates and registers all collectors on reg. A nil reg registers on
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		StagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "frp_stages_total",
			Help: "Executed reasoning levels by level and outcome.",
		}, []string{"level", "status"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frp_stage_duration_seconds",
			Help:    "Wall time of one reasoning level including generation.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"level"}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "frp_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"status"}),
		GenerationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "frp_generation_requests_total",
			Help: "Generation capability calls by client and outcome.",
		}, []string{"client", "status"}),
		GenerationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frp_generation_duration_seconds",
			Help:    "Latency of generation capability calls.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"client"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "frp_generation_cache_lookups_total",
			Help: "Response cache lookups by result.",
		}, []string{"result"}),
	}
}

// ObserveStage records one level outcome. Safe on a nil receiver.
func (m *Metrics) ObserveStage(level, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StagesTotal.WithLabelValues(level, status).Inc()
	m.StageDuration.WithLabelValues(level).Observe(elapsed.Seconds())
}

// ObserveRun records one run outcome. Safe on a nil receiver.
func (m *Metrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// ObserveGeneration records one generation call. Safe on a nil receiver.
func (m *Metrics) ObserveGeneration(client, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(client, status).Inc()
	m.GenerationDuration.WithLabelValues(client).Observe(elapsed.Seconds())
}

// ObserveCache records a cache hit or miss. Safe on a nil receiver.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
