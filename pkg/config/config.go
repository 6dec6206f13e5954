package config

import (
	"time"

	"sentra-hq/warden/pkg/telemetry/logging"
	"sentra-hq/warden/pkg/telemetry/metrics"
)

// Config is the top-level configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Ruleset    RulesetConfig    `yaml:"ruleset"`
	Runtime    RuntimeConfig    `yaml:"runtime"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Audit      AuditConfig      `yaml:"audit"`
	Provenance ProvenanceConfig `yaml:"provenance"`
	Logging    logging.Config   `yaml:"logging"`
	Metrics    metrics.Config   `yaml:"metrics"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the host:port to bind.
	// Default: ":8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds request reads.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout bounds idle keep-alive connections.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes bounds the request body size.
	// Default: 1 MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// RulesetConfig configures ruleset loading and integrity verification.
type RulesetConfig struct {
	// Path is the ruleset source file (YAML or JSON).
	Path string `yaml:"path"`

	// Strict rejects unknown check kinds at load time instead of
	// downgrading them to no-ops.
	Strict bool `yaml:"strict"`

	// ReferenceFingerprint is the known-good ruleset fingerprint. Empty
	// disables integrity verification.
	ReferenceFingerprint string `yaml:"reference_fingerprint"`

	// IntegrityMode is "enforce" (fail closed on mismatch) or "advisory"
	// (warn and serve).
	// Default: "enforce"
	IntegrityMode string `yaml:"integrity_mode"`

	// Watch enables hot reload on file changes.
	Watch bool `yaml:"watch"`
}

// RuntimeConfig configures the evaluation controller.
type RuntimeConfig struct {
	// Mode is "strict", "sync_light" or "regex_only".
	// Default: "strict"
	Mode string `yaml:"mode"`

	// SemanticTimeout bounds the semantic phase.
	// Default: 2s
	SemanticTimeout time.Duration `yaml:"semantic_timeout"`

	// CacheTTL is the verdict cache lifetime.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxEntries bounds the verdict cache.
	// Default: 4096
	CacheMaxEntries int `yaml:"cache_max_entries"`

	// WarmProvider preloads the embedding provider at startup.
	WarmProvider bool `yaml:"warm_provider"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "http" or "fake".
	// Default: "fake"
	Provider string `yaml:"provider"`

	// BaseURL is the embedding service endpoint for the http provider.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the embedding service.
	APIKey string `yaml:"api_key"`

	// Model names the embedding model.
	Model string `yaml:"model"`

	// Timeout bounds each embedding request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrent bounds in-flight embedding calls.
	// Default: 4
	MaxConcurrent int `yaml:"max_concurrent"`
}

// AuditConfig configures audit log storage.
type AuditConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file.
	// Default: "data/audit.db"
	Path string `yaml:"path"`
}

// ProvenanceConfig configures batching and anchoring.
type ProvenanceConfig struct {
	// Enabled enables provenance anchoring.
	Enabled bool `yaml:"enabled"`

	// StorePath is the SQLite batch store file.
	// Default: "data/provenance.db"
	StorePath string `yaml:"store_path"`

	// MaxBatchSize triggers a batch on accumulation.
	// Default: 64
	MaxBatchSize int `yaml:"max_batch_size"`

	// Schedule is a cron expression for time-triggered batching.
	// Default: "@every 5m"
	Schedule string `yaml:"schedule"`

	// Anchor is "http" or "fake".
	// Default: "fake"
	Anchor string `yaml:"anchor"`

	// AnchorURL is the anchor service endpoint for the http anchor.
	AnchorURL string `yaml:"anchor_url"`

	// AnchorAPIKey authenticates against the anchor service.
	AnchorAPIKey string `yaml:"anchor_api_key"`
}
