package ruleset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"sentra-hq/warden/pkg/telemetry/metrics"
)

// ManagerConfig configures ruleset loading, integrity verification, and hot
// reload.
type ManagerConfig struct {
	// Path is the ruleset source file.
	Path string

	// Strict controls unknown-check-kind handling at load time.
	Strict bool

	// ReferenceFingerprint is the known-good fingerprint. Empty disables
	// verification.
	ReferenceFingerprint string

	// IntegrityMode selects fail-closed (enforce) or warn-only (advisory)
	// handling of a fingerprint mismatch. Default: enforce.
	IntegrityMode IntegrityMode

	// Watch enables hot reload on file changes.
	Watch bool
}

// Validate checks the manager configuration.
func (c *ManagerConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("ruleset path cannot be empty")
	}
	if c.IntegrityMode != "" && !c.IntegrityMode.Valid() {
		return fmt.Errorf("invalid integrity mode %q", c.IntegrityMode)
	}
	return nil
}

// Manager owns the active ruleset handle. The active ruleset is an immutable
// value behind an atomically-swapped pointer: a reload loads and verifies a
// new value, then swaps the handle, so in-flight evaluations keep the
// snapshot they started with.
type Manager struct {
	config  ManagerConfig
	logger  *slog.Logger
	metrics *metrics.Collector
	active  atomic.Pointer[RuleSet]
	watcher *FileWatcher

	// quarantined is set when integrity enforcement rejected the current
	// source. While set, Active() refuses to serve.
	quarantineMu sync.RWMutex
	quarantine   error

	// onSwap callbacks run after each successful swap, with the fingerprint
	// of the replaced ruleset. The runtime controller uses this to
	// invalidate cache entries keyed on the old fingerprint.
	swapMu  sync.Mutex
	onSwap  []func(oldFingerprint string)
	stopped chan struct{}
}

// NewManager creates a ruleset manager and performs the initial load.
// A schema error or an enforced integrity mismatch at startup is fatal.
func NewManager(config ManagerConfig, logger *slog.Logger) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ruleset manager config: %w", err)
	}
	if config.IntegrityMode == "" {
		config.IntegrityMode = IntegrityEnforce
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		config:  config,
		logger:  logger.With("component", "ruleset.manager"),
		stopped: make(chan struct{}),
	}

	if err := m.Reload(); err != nil {
		return nil, err
	}

	return m, nil
}

// SetMetrics attaches a metrics collector. Reload outcomes are recorded
// once set.
func (m *Manager) SetMetrics(collector *metrics.Collector) {
	m.metrics = collector
}

func (m *Manager) recordReload(status string) {
	if m.metrics != nil {
		m.metrics.RecordRulesetReload(status)
	}
}

// Active returns the active ruleset, or an error when no servable ruleset is
// available (startup failure or enforced integrity quarantine).
func (m *Manager) Active() (*RuleSet, error) {
	m.quarantineMu.RLock()
	quarantine := m.quarantine
	m.quarantineMu.RUnlock()
	if quarantine != nil {
		return nil, quarantine
	}

	rs := m.active.Load()
	if rs == nil {
		return nil, fmt.Errorf("no ruleset loaded")
	}
	return rs, nil
}

// OnSwap registers a callback invoked after every successful swap with the
// fingerprint of the replaced ruleset (empty on the initial load).
func (m *Manager) OnSwap(fn func(oldFingerprint string)) {
	m.swapMu.Lock()
	defer m.swapMu.Unlock()
	m.onSwap = append(m.onSwap, fn)
}

// Reload loads the source file, verifies integrity, and atomically swaps the
// active handle. On an enforced mismatch the manager quarantines itself and
// keeps the handle unswapped; on an advisory mismatch the swap proceeds with
// a logged warning.
func (m *Manager) Reload() error {
	rs, err := LoadFile(m.config.Path, LoadOptions{Strict: m.config.Strict})
	if err != nil {
		m.recordReload("schema_error")
		return err
	}

	for _, w := range rs.Warnings {
		m.logger.Warn("ruleset load warning", "warning", w)
	}

	result := Verify(rs, m.config.ReferenceFingerprint)
	if !result.Match {
		m.recordReload("integrity_mismatch")
		integrityErr := NewIntegrityError(result.Local, result.Reference)
		if m.config.IntegrityMode == IntegrityEnforce {
			m.setQuarantine(integrityErr)
			m.logger.Error("ruleset integrity mismatch, refusing to serve",
				"local_fingerprint", result.Local,
				"reference_fingerprint", result.Reference,
			)
			return integrityErr
		}
		m.logger.Warn("ruleset integrity mismatch (advisory mode, serving anyway)",
			"local_fingerprint", result.Local,
			"reference_fingerprint", result.Reference,
		)
	}

	if result.Match {
		m.recordReload("ok")
	}

	m.setQuarantine(nil)

	old := m.active.Swap(rs)
	oldFingerprint := ""
	if old != nil {
		oldFingerprint = old.Fingerprint()
	}

	m.logger.Info("ruleset activated",
		"version", rs.Version,
		"directive_count", len(rs.Directives),
		"fingerprint", rs.Fingerprint(),
	)

	m.swapMu.Lock()
	callbacks := append([]func(string){}, m.onSwap...)
	m.swapMu.Unlock()
	for _, fn := range callbacks {
		fn(oldFingerprint)
	}

	return nil
}

// Start begins watching the source file for changes when Watch is enabled.
// Reload failures leave the previously active ruleset serving.
func (m *Manager) Start(ctx context.Context) error {
	if !m.config.Watch {
		return nil
	}

	watcher, err := NewFileWatcher(&FileWatcherConfig{Path: m.config.Path}, m.logger)
	if err != nil {
		return fmt.Errorf("failed to create ruleset watcher: %w", err)
	}
	m.watcher = watcher

	go func() {
		err := watcher.Watch(ctx, func() error {
			return m.Reload()
		})
		if err != nil {
			m.logger.Error("ruleset watcher exited", "error", err)
		}
	}()

	return nil
}

// Stop stops the file watcher, if running.
func (m *Manager) Stop() error {
	if m.watcher != nil {
		return m.watcher.Stop()
	}
	return nil
}

func (m *Manager) setQuarantine(err error) {
	m.quarantineMu.Lock()
	m.quarantine = err
	m.quarantineMu.Unlock()
}
