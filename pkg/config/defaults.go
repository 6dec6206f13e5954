package config

import (
	"time"

	"sentra-hq/warden/pkg/telemetry/logging"
	"sentra-hq/warden/pkg/telemetry/metrics"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		Ruleset: RulesetConfig{
			Path:          "rules.yaml",
			Strict:        true,
			IntegrityMode: "enforce",
		},
		Runtime: RuntimeConfig{
			Mode:            "strict",
			SemanticTimeout: 2 * time.Second,
			CacheTTL:        5 * time.Minute,
			CacheMaxEntries: 4096,
		},
		Embedding: EmbeddingConfig{
			Provider:      "fake",
			Timeout:       10 * time.Second,
			MaxConcurrent: 4,
		},
		Audit: AuditConfig{
			Backend: "sqlite",
			Path:    "data/audit.db",
		},
		Provenance: ProvenanceConfig{
			Enabled:      true,
			StorePath:    "data/provenance.db",
			MaxBatchSize: 64,
			Schedule:     "@every 5m",
			Anchor:       "fake",
		},
		Logging: *logging.DefaultConfig(),
		Metrics: *metrics.DefaultConfig(),
	}
}

// applyDefaults fills zero-valued fields after a YAML load.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = defaults.Server.ListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaults.Server.IdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}
	if cfg.Ruleset.IntegrityMode == "" {
		cfg.Ruleset.IntegrityMode = defaults.Ruleset.IntegrityMode
	}
	if cfg.Runtime.Mode == "" {
		cfg.Runtime.Mode = defaults.Runtime.Mode
	}
	if cfg.Runtime.SemanticTimeout == 0 {
		cfg.Runtime.SemanticTimeout = defaults.Runtime.SemanticTimeout
	}
	if cfg.Runtime.CacheTTL == 0 {
		cfg.Runtime.CacheTTL = defaults.Runtime.CacheTTL
	}
	if cfg.Runtime.CacheMaxEntries == 0 {
		cfg.Runtime.CacheMaxEntries = defaults.Runtime.CacheMaxEntries
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = defaults.Embedding.Provider
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = defaults.Embedding.Timeout
	}
	if cfg.Embedding.MaxConcurrent == 0 {
		cfg.Embedding.MaxConcurrent = defaults.Embedding.MaxConcurrent
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = defaults.Audit.Backend
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = defaults.Audit.Path
	}
	if cfg.Provenance.StorePath == "" {
		cfg.Provenance.StorePath = defaults.Provenance.StorePath
	}
	if cfg.Provenance.MaxBatchSize == 0 {
		cfg.Provenance.MaxBatchSize = defaults.Provenance.MaxBatchSize
	}
	if cfg.Provenance.Schedule == "" {
		cfg.Provenance.Schedule = defaults.Provenance.Schedule
	}
	if cfg.Provenance.Anchor == "" {
		cfg.Provenance.Anchor = defaults.Provenance.Anchor
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = defaults.Metrics.Namespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = defaults.Metrics.Subsystem
	}
}
