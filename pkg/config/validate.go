package config

import "fmt"

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	if c.Ruleset.Path == "" {
		return fmt.Errorf("ruleset.path is required")
	}
	switch c.Ruleset.IntegrityMode {
	case "enforce", "advisory":
	default:
		return fmt.Errorf("ruleset.integrity_mode must be \"enforce\" or \"advisory\", got %q", c.Ruleset.IntegrityMode)
	}

	switch c.Runtime.Mode {
	case "strict", "sync_light", "regex_only":
	default:
		return fmt.Errorf("runtime.mode must be \"strict\", \"sync_light\" or \"regex_only\", got %q", c.Runtime.Mode)
	}
	if c.Runtime.SemanticTimeout <= 0 {
		return fmt.Errorf("runtime.semantic_timeout must be positive")
	}
	if c.Runtime.CacheTTL <= 0 {
		return fmt.Errorf("runtime.cache_ttl must be positive")
	}

	switch c.Embedding.Provider {
	case "fake":
	case "http":
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.base_url is required for the http provider")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"http\" or \"fake\", got %q", c.Embedding.Provider)
	}
	if c.Runtime.Mode != "regex_only" && c.Embedding.Provider == "" {
		return fmt.Errorf("runtime.mode %q requires an embedding provider", c.Runtime.Mode)
	}
	if c.Embedding.MaxConcurrent < 0 {
		return fmt.Errorf("embedding.max_concurrent must be >= 0")
	}

	switch c.Audit.Backend {
	case "sqlite":
		if c.Audit.Path == "" {
			return fmt.Errorf("audit.path is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("audit.backend must be \"sqlite\" or \"memory\", got %q", c.Audit.Backend)
	}

	if c.Provenance.Enabled {
		if c.Provenance.MaxBatchSize <= 0 {
			return fmt.Errorf("provenance.max_batch_size must be positive")
		}
		switch c.Provenance.Anchor {
		case "fake":
		case "http":
			if c.Provenance.AnchorURL == "" {
				return fmt.Errorf("provenance.anchor_url is required for the http anchor")
			}
		default:
			return fmt.Errorf("provenance.anchor must be \"http\" or \"fake\", got %q", c.Provenance.Anchor)
		}
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}
