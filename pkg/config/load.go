package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result.
//
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies WARDEN_* environment variable overrides before validation.
//
// Supported overrides:
//
//	WARDEN_RULESET_PATH
//	WARDEN_RULESET_REFERENCE_FINGERPRINT
//	WARDEN_RULESET_INTEGRITY_MODE
//	WARDEN_RULESET_WATCH
//	WARDEN_MODE
//	WARDEN_SEMANTIC_TIMEOUT
//	WARDEN_CACHE_TTL
//	WARDEN_EMBEDDING_PROVIDER
//	WARDEN_EMBEDDING_BASE_URL
//	WARDEN_EMBEDDING_API_KEY
//	WARDEN_AUDIT_BACKEND
//	WARDEN_AUDIT_PATH
//	WARDEN_PROVENANCE_ENABLED
//	WARDEN_ANCHOR_URL
//	WARDEN_ANCHOR_API_KEY
//	WARDEN_LOG_LEVEL
//	WARDEN_LOG_FORMAT
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("WARDEN_RULESET_PATH"); val != "" {
		cfg.Ruleset.Path = val
	}
	if val := os.Getenv("WARDEN_RULESET_REFERENCE_FINGERPRINT"); val != "" {
		cfg.Ruleset.ReferenceFingerprint = val
	}
	if val := os.Getenv("WARDEN_RULESET_INTEGRITY_MODE"); val != "" {
		cfg.Ruleset.IntegrityMode = val
	}
	if val := os.Getenv("WARDEN_RULESET_WATCH"); val != "" {
		watch, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid WARDEN_RULESET_WATCH: %w", err)
		}
		cfg.Ruleset.Watch = watch
	}
	if val := os.Getenv("WARDEN_MODE"); val != "" {
		cfg.Runtime.Mode = val
	}
	if val := os.Getenv("WARDEN_SEMANTIC_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid WARDEN_SEMANTIC_TIMEOUT: %w", err)
		}
		cfg.Runtime.SemanticTimeout = d
	}
	if val := os.Getenv("WARDEN_CACHE_TTL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid WARDEN_CACHE_TTL: %w", err)
		}
		cfg.Runtime.CacheTTL = d
	}
	if val := os.Getenv("WARDEN_EMBEDDING_PROVIDER"); val != "" {
		cfg.Embedding.Provider = val
	}
	if val := os.Getenv("WARDEN_EMBEDDING_BASE_URL"); val != "" {
		cfg.Embedding.BaseURL = val
	}
	if val := os.Getenv("WARDEN_EMBEDDING_API_KEY"); val != "" {
		cfg.Embedding.APIKey = val
	}
	if val := os.Getenv("WARDEN_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("WARDEN_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}
	if val := os.Getenv("WARDEN_PROVENANCE_ENABLED"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid WARDEN_PROVENANCE_ENABLED: %w", err)
		}
		cfg.Provenance.Enabled = enabled
	}
	if val := os.Getenv("WARDEN_ANCHOR_URL"); val != "" {
		cfg.Provenance.AnchorURL = val
		cfg.Provenance.Anchor = "http"
	}
	if val := os.Getenv("WARDEN_ANCHOR_API_KEY"); val != "" {
		cfg.Provenance.AnchorAPIKey = val
	}
	if val := os.Getenv("WARDEN_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("WARDEN_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	return nil
}
