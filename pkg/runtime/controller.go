package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sentra-hq/warden/pkg/audit"
	"sentra-hq/warden/pkg/embedding"
	"sentra-hq/warden/pkg/engine"
	"sentra-hq/warden/pkg/provenance"
	"sentra-hq/warden/pkg/ruleset"
	"sentra-hq/warden/pkg/telemetry/metrics"
)

// Config contains configuration for the runtime controller.
type Config struct {
	// Mode selects the evaluation mode.
	// Default: strict
	Mode engine.Mode `yaml:"mode"`

	// SemanticTimeout bounds the synchronous semantic phase in strict mode
	// and each background re-check in sync_light mode.
	// Default: 2 seconds
	SemanticTimeout time.Duration `yaml:"semantic_timeout"`

	// CacheTTL is the verdict cache lifetime.
	// Default: 5 minutes
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxEntries bounds the verdict cache.
	// Default: 4096
	CacheMaxEntries int `yaml:"cache_max_entries"`

	// WarmProvider preloads the embedding provider at startup. Warm-up
	// failure is logged, never fatal.
	WarmProvider bool `yaml:"warm_provider"`
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode:            engine.ModeStrict,
		SemanticTimeout: 2 * time.Second,
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 4096,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.SemanticTimeout <= 0 {
		return fmt.Errorf("semantic timeout must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	return nil
}

// Controller orchestrates evaluation: it resolves the active ruleset,
// consults the verdict cache, runs the engine per the configured mode,
// appends the audit entry and notifies the provenance batcher.
type Controller struct {
	config  *Config
	manager *ruleset.Manager
	engine  *engine.Engine
	log     *audit.Log
	batcher *provenance.Batcher
	prover  *provenance.Prover
	cache   *VerdictCache
	metrics *metrics.Collector
	logger  *slog.Logger

	provider embedding.Provider

	mu   sync.RWMutex
	mode engine.Mode

	background sync.WaitGroup
}

// Deps bundles the collaborators a Controller needs. Batcher, Prover and
// Metrics are optional; Provider may be nil in regex_only mode.
type Deps struct {
	Manager  *ruleset.Manager
	Engine   *engine.Engine
	Log      *audit.Log
	Batcher  *provenance.Batcher
	Prover   *provenance.Prover
	Provider embedding.Provider
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// NewController creates a runtime controller and hooks cache invalidation
// into ruleset swaps.
func NewController(config *Config, deps Deps) (*Controller, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.Manager == nil || deps.Engine == nil || deps.Log == nil {
		return nil, fmt.Errorf("controller requires manager, engine and audit log")
	}
	if config.Mode.SemanticAllowed() && deps.Provider == nil {
		return nil, fmt.Errorf("mode %q requires an embedding provider", config.Mode)
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		config:   config,
		manager:  deps.Manager,
		engine:   deps.Engine,
		log:      deps.Log,
		batcher:  deps.Batcher,
		prover:   deps.Prover,
		cache:    NewVerdictCache(config.CacheTTL, config.CacheMaxEntries),
		metrics:  deps.Metrics,
		logger:   logger.With("component", "runtime.controller"),
		provider: deps.Provider,
		mode:     config.Mode,
	}

	deps.Manager.OnSwap(func(oldFingerprint string) {
		c.cache.InvalidateRuleset(oldFingerprint)
	})

	return c, nil
}

// Start warms the embedding provider when configured.
func (c *Controller) Start(ctx context.Context) {
	if !c.config.WarmProvider || c.provider == nil {
		return
	}
	if warmer, ok := c.provider.(embedding.Warmer); ok {
		if err := warmer.Warm(ctx); err != nil {
			c.logger.Warn("provider warm-up failed", "error", err)
		}
	}
}

// Stop waits for in-flight background semantic re-checks to finish.
func (c *Controller) Stop() {
	c.background.Wait()
}

// Mode returns the active evaluation mode.
func (c *Controller) Mode() engine.Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// SetMode switches the evaluation mode at runtime. Cached verdicts for
// other modes stay keyed under their mode and cannot leak across.
func (c *Controller) SetMode(mode engine.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %q", mode)
	}
	if mode.SemanticAllowed() && c.provider == nil {
		return fmt.Errorf("mode %q requires an embedding provider", mode)
	}
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
	c.logger.Info("mode changed", "mode", mode)
	return nil
}

// Check evaluates text under the active mode and ruleset. Every call
// appends an audit entry, cache hits included, so the log covers each
// enforcement decision.
func (c *Controller) Check(ctx context.Context, text string) (*engine.Verdict, error) {
	started := time.Now()

	rs, err := c.manager.Active()
	if err != nil {
		return nil, err
	}
	mode := c.Mode()
	contentFP := audit.ContentFingerprint(text)
	rulesetFP := rs.Fingerprint()

	verdict, hit := c.cache.Get(contentFP, rulesetFP, mode)
	needsRecheck := false
	if hit {
		if c.metrics != nil {
			c.metrics.RecordCacheHit()
		}
	} else {
		if c.metrics != nil {
			c.metrics.RecordCacheMiss()
		}
		verdict, needsRecheck = c.evaluate(ctx, text, rs, mode)
		if !verdict.Indeterminate {
			c.cache.Put(contentFP, rulesetFP, mode, verdict)
		}
	}

	kind := audit.KindEvaluation
	if verdict.Indeterminate {
		kind = audit.KindTimeout
	}
	entry := buildEntry(kind, verdict, contentFP, rulesetFP, mode, time.Since(started))
	if err := c.log.Append(ctx, entry); err != nil {
		return nil, err
	}
	c.afterAppend(entry, verdict, mode, time.Since(started))

	if needsRecheck {
		c.background.Add(1)
		go c.semanticRecheck(text, rs, contentFP, rulesetFP, mode, entry.Seq)
	}

	return verdict, nil
}

// evaluate runs the mode-specific evaluation flow and never returns an
// error: infrastructure failure maps to a fail-closed indeterminate
// verdict. needsRecheck reports that the caller must schedule the deferred
// semantic phase once the evaluation entry has a sequence number.
func (c *Controller) evaluate(ctx context.Context, text string, rs *ruleset.RuleSet, mode engine.Mode) (verdict *engine.Verdict, needsRecheck bool) {
	verdict = c.engine.EvaluateDeterministic(rs, text)

	if !mode.SemanticAllowed() || !hasSemanticChecks(rs) {
		return verdict, false
	}

	switch mode {
	case engine.ModeStrict:
		// A deterministic BLOCK already decides the outcome; skip the
		// semantic phase.
		if !verdict.Pass {
			return verdict, false
		}
		semCtx, cancel := context.WithTimeout(ctx, c.config.SemanticTimeout)
		defer cancel()

		semantic, err := c.engine.EvaluateSemantic(semCtx, rs, text)
		if err != nil {
			if c.metrics != nil {
				c.metrics.RecordSemanticCall("error")
			}
			c.logger.Warn("semantic check unavailable, failing closed", "error", err)
			// Deterministic violations collected so far stay on the
			// verdict; only the outcome flips to fail-closed.
			verdict.Pass = false
			verdict.Indeterminate = true
			verdict.IndeterminateReason = fmt.Sprintf("semantic check unavailable: %v", err)
			return verdict, false
		}
		if c.metrics != nil {
			c.metrics.RecordSemanticCall("ok")
		}
		engine.Merge(verdict, semantic)

	case engine.ModeSyncLight:
		needsRecheck = true
	}

	return verdict, needsRecheck
}

// semanticRecheck runs the deferred semantic phase for sync_light mode. A
// late violation is appended as a retro_flag entry pointing at the original
// evaluation; remediation is log-only.
func (c *Controller) semanticRecheck(text string, rs *ruleset.RuleSet, contentFP, rulesetFP string, mode engine.Mode, originalSeq uint64) {
	defer c.background.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.SemanticTimeout)
	defer cancel()

	semantic, err := c.engine.EvaluateSemantic(ctx, rs, text)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordSemanticCall("error")
		}
		c.logger.Warn("background semantic check failed", "error", err)
		return
	}
	if c.metrics != nil {
		c.metrics.RecordSemanticCall("ok")
	}
	if len(semantic) == 0 {
		return
	}

	flagged := &engine.Verdict{Pass: true}
	engine.Merge(flagged, semantic)

	entry := buildEntry(audit.KindRetroFlag, flagged, contentFP, rulesetFP, mode, 0)
	entry.RetroOf = originalSeq
	if err := c.log.Append(ctx, entry); err != nil {
		c.logger.Error("retro flag append failed", "error", err)
		return
	}
	c.afterAppend(entry, flagged, mode, 0)

	c.logger.Warn("retroactive semantic violation flagged",
		"retro_of", entry.RetroOf,
		"directives", entry.DirectiveKeys,
	)
}

func (c *Controller) afterAppend(entry *audit.LogEntry, verdict *engine.Verdict, mode engine.Mode, elapsed time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordAuditAppend(string(entry.Kind))
		if entry.Kind != audit.KindRetroFlag {
			c.metrics.RecordEvaluation(string(mode), outcome(verdict), elapsed)
		}
		for _, v := range verdict.Violations {
			c.metrics.RecordDirectiveHit(v.DirectiveKey, string(v.Tier))
		}
	}
	if c.batcher != nil {
		c.batcher.Notify(entry.Seq)
	}
}

// BatchNow forces immediate provenance batching of all unbatched entries.
func (c *Controller) BatchNow(ctx context.Context) (*provenance.Batch, error) {
	if c.batcher == nil {
		return nil, fmt.Errorf("provenance batching is not configured")
	}
	return c.batcher.BatchNow(ctx)
}

// VerifyEntry checks an audit entry's inclusion proof against its anchored
// batch root.
func (c *Controller) VerifyEntry(ctx context.Context, seq uint64) (bool, error) {
	if c.prover == nil {
		return false, fmt.Errorf("provenance verification is not configured")
	}
	return c.prover.VerifyEntry(ctx, seq)
}

// CacheLen returns the number of cached verdicts.
func (c *Controller) CacheLen() int {
	return c.cache.Len()
}

func buildEntry(kind audit.EntryKind, verdict *engine.Verdict, contentFP, rulesetFP string, mode engine.Mode, elapsed time.Duration) *audit.LogEntry {
	keys := make([]string, 0, len(verdict.Violations))
	seen := make(map[string]struct{}, len(verdict.Violations))
	for _, v := range verdict.Violations {
		if _, dup := seen[v.DirectiveKey]; dup {
			continue
		}
		seen[v.DirectiveKey] = struct{}{}
		keys = append(keys, v.DirectiveKey)
	}

	return &audit.LogEntry{
		Kind:               kind,
		ContentFingerprint: contentFP,
		RulesetFingerprint: rulesetFP,
		Mode:               string(mode),
		Pass:               verdict.Pass,
		Indeterminate:      verdict.Indeterminate,
		BlockCount:         verdict.BlockCount(),
		WarnCount:          verdict.WarnCount(),
		DirectiveKeys:      keys,
		Reason:             verdict.IndeterminateReason,
		LatencyMillis:      elapsed.Milliseconds(),
	}
}

func outcome(verdict *engine.Verdict) string {
	switch {
	case verdict.Indeterminate:
		return "indeterminate"
	case verdict.Pass:
		return "pass"
	default:
		return "block"
	}
}

func hasSemanticChecks(rs *ruleset.RuleSet) bool {
	for i := range rs.Directives {
		for j := range rs.Directives[i].Checks {
			if rs.Directives[i].Checks[j].Kind == ruleset.CheckSemanticForbid {
				return true
			}
		}
	}
	return false
}
