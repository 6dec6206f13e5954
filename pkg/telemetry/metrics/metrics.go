package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled enables metrics collection.
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "sentra"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "warden"
	Subsystem string `yaml:"subsystem"`

	// EvaluationDurationBuckets are histogram buckets for evaluation
	// latency in seconds.
	EvaluationDurationBuckets []float64 `yaml:"evaluation_duration_buckets"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Namespace: "sentra",
		Subsystem: "warden",
	}
}

// Collector registers and records all Prometheus metrics.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	directiveHitsTotal *prometheus.CounterVec

	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter

	semanticCallsTotal *prometheus.CounterVec

	auditAppendsTotal *prometheus.CounterVec

	anchorSubmissionsTotal *prometheus.CounterVec
	batchSize              prometheus.Histogram

	rulesetReloadsTotal *prometheus.CounterVec
}

// NewCollector creates a metrics collector registered on the given registry.
// If registry is nil, a fresh registry is created.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "sentra"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "warden"
	}
	if len(cfg.EvaluationDurationBuckets) == 0 {
		// Deterministic checks land in microseconds, semantic checks in
		// tens to hundreds of milliseconds.
		cfg.EvaluationDurationBuckets = []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of content evaluations",
			},
			[]string{"mode", "outcome"},
		),
		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of content evaluations in seconds",
				Buckets:   cfg.EvaluationDurationBuckets,
			},
			[]string{"mode"},
		),
		directiveHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "directive_hits_total",
				Help:      "Total number of directive violations by directive and tier",
			},
			[]string{"directive", "tier"},
		),
		cacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of verdict cache hits",
			},
		),
		cacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of verdict cache misses",
			},
		),
		semanticCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "semantic_calls_total",
				Help:      "Total number of embedding provider calls by status",
			},
			[]string{"status"},
		),
		auditAppendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_appends_total",
				Help:      "Total number of audit log appends by entry kind",
			},
			[]string{"kind"},
		),
		anchorSubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "anchor_submissions_total",
				Help:      "Total number of Merkle root anchor submissions by status",
			},
			[]string{"status"},
		),
		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_size_entries",
				Help:      "Number of audit entries per provenance batch",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		rulesetReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ruleset_reloads_total",
				Help:      "Total number of ruleset reload attempts by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		c.evaluationsTotal,
		c.evaluationDuration,
		c.directiveHitsTotal,
		c.cacheHitsTotal,
		c.cacheMissesTotal,
		c.semanticCallsTotal,
		c.auditAppendsTotal,
		c.anchorSubmissionsTotal,
		c.batchSize,
		c.rulesetReloadsTotal,
	)

	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordEvaluation records a completed evaluation.
// outcome is "pass", "block" or "indeterminate".
func (c *Collector) RecordEvaluation(mode, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.evaluationsTotal.WithLabelValues(mode, outcome).Inc()
	c.evaluationDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordDirectiveHit records one directive violation.
func (c *Collector) RecordDirectiveHit(directive, tier string) {
	if !c.config.Enabled {
		return
	}
	c.directiveHitsTotal.WithLabelValues(directive, tier).Inc()
}

// RecordCacheHit records a verdict cache hit.
func (c *Collector) RecordCacheHit() {
	if !c.config.Enabled {
		return
	}
	c.cacheHitsTotal.Inc()
}

// RecordCacheMiss records a verdict cache miss.
func (c *Collector) RecordCacheMiss() {
	if !c.config.Enabled {
		return
	}
	c.cacheMissesTotal.Inc()
}

// RecordSemanticCall records an embedding provider call.
// status is "ok", "error" or "timeout".
func (c *Collector) RecordSemanticCall(status string) {
	if !c.config.Enabled {
		return
	}
	c.semanticCallsTotal.WithLabelValues(status).Inc()
}

// RecordAuditAppend records an audit log append.
func (c *Collector) RecordAuditAppend(kind string) {
	if !c.config.Enabled {
		return
	}
	c.auditAppendsTotal.WithLabelValues(kind).Inc()
}

// RecordAnchorSubmission records an anchor submission attempt.
// status is "ok" or "error".
func (c *Collector) RecordAnchorSubmission(status string) {
	if !c.config.Enabled {
		return
	}
	c.anchorSubmissionsTotal.WithLabelValues(status).Inc()
}

// RecordBatch records the size of a constructed provenance batch.
func (c *Collector) RecordBatch(entries uint64) {
	if !c.config.Enabled {
		return
	}
	c.batchSize.Observe(float64(entries))
}

// RecordRulesetReload records a ruleset reload attempt.
// status is "ok", "schema_error" or "integrity_mismatch".
func (c *Collector) RecordRulesetReload(status string) {
	if !c.config.Enabled {
		return
	}
	c.rulesetReloadsTotal.WithLabelValues(status).Inc()
}
