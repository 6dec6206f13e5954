package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sentra-hq/warden/pkg/audit"
	auditstorage "sentra-hq/warden/pkg/audit/storage"
	"sentra-hq/warden/pkg/cli"
	"sentra-hq/warden/pkg/config"
	"sentra-hq/warden/pkg/embedding"
	"sentra-hq/warden/pkg/engine"
	"sentra-hq/warden/pkg/provenance"
	provstore "sentra-hq/warden/pkg/provenance/store"
	"sentra-hq/warden/pkg/ruleset"
	"sentra-hq/warden/pkg/runtime"
	"sentra-hq/warden/pkg/server"
	"sentra-hq/warden/pkg/telemetry/logging"
	"sentra-hq/warden/pkg/telemetry/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the enforcement service",
	Long: `Run loads the configuration, verifies the ruleset, opens the audit
log and serves the evaluation API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cli.SetupSignalHandler())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.Setup(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Metrics, nil)
	}

	manager, err := ruleset.NewManager(ruleset.ManagerConfig{
		Path:                 cfg.Ruleset.Path,
		Strict:               cfg.Ruleset.Strict,
		ReferenceFingerprint: cfg.Ruleset.ReferenceFingerprint,
		IntegrityMode:        ruleset.IntegrityMode(cfg.Ruleset.IntegrityMode),
		Watch:                cfg.Ruleset.Watch,
	}, logger)
	if err != nil {
		return fmt.Errorf("load ruleset: %w", err)
	}
	manager.SetMetrics(collector)
	if cfg.Ruleset.Watch {
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("start ruleset watcher: %w", err)
		}
		defer manager.Stop()
	}

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return err
	}

	auditStorage, err := buildAuditStorage(cfg)
	if err != nil {
		return err
	}
	defer auditStorage.Close()

	log, err := audit.NewLog(ctx, auditStorage, logger)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}

	var (
		batcher *provenance.Batcher
		prover  *provenance.Prover
	)
	if cfg.Provenance.Enabled {
		batcher, prover, err = buildProvenance(ctx, cfg, log, logger)
		if err != nil {
			return err
		}
		batcher.SetMetrics(collector)
		if err := batcher.Start(); err != nil {
			return fmt.Errorf("start batcher: %w", err)
		}
		defer batcher.Stop()

		if err := batcher.ResubmitPending(ctx); err != nil {
			logger.Warn("anchor resubmission failed", "error", err)
		}
	}

	controller, err := runtime.NewController(&runtime.Config{
		Mode:            engine.Mode(cfg.Runtime.Mode),
		SemanticTimeout: cfg.Runtime.SemanticTimeout,
		CacheTTL:        cfg.Runtime.CacheTTL,
		CacheMaxEntries: cfg.Runtime.CacheMaxEntries,
		WarmProvider:    cfg.Runtime.WarmProvider,
	}, runtime.Deps{
		Manager:  manager,
		Engine:   engine.New(provider, logger),
		Log:      log,
		Batcher:  batcher,
		Prover:   prover,
		Provider: provider,
		Metrics:  collector,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}
	controller.Start(ctx)

	srv := server.NewServer(&cfg.Server, controller, collector, logger)
	return srv.Start(ctx)
}

func buildProvider(cfg *config.Config, logger *slog.Logger) (embedding.Provider, error) {
	var provider embedding.Provider
	switch cfg.Embedding.Provider {
	case "fake":
		provider = embedding.NewFakeProvider()
	case "http":
		httpProvider, err := embedding.NewHTTPProvider(embedding.HTTPConfig{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey,
			Model:   cfg.Embedding.Model,
			Timeout: cfg.Embedding.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create embedding provider: %w", err)
		}
		provider = httpProvider
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
	return embedding.NewPool(provider, cfg.Embedding.MaxConcurrent, logger), nil
}

func buildAuditStorage(cfg *config.Config) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "memory":
		return auditstorage.NewMemoryStorage(), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Audit.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create audit directory: %w", err)
		}
		sqliteCfg := auditstorage.DefaultSQLiteConfig()
		sqliteCfg.Path = cfg.Audit.Path
		storage, err := auditstorage.NewSQLiteStorage(sqliteCfg)
		if err != nil {
			return nil, fmt.Errorf("open audit storage: %w", err)
		}
		return storage, nil
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
	}
}

func buildProvenance(ctx context.Context, cfg *config.Config, log *audit.Log, logger *slog.Logger) (*provenance.Batcher, *provenance.Prover, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Provenance.StorePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create provenance directory: %w", err)
	}
	store, err := provstore.NewSQLiteStore(cfg.Provenance.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open provenance store: %w", err)
	}

	var anchor provenance.Anchor
	switch cfg.Provenance.Anchor {
	case "fake":
		anchor = provenance.NewFakeAnchor()
	case "http":
		anchor, err = provenance.NewHTTPAnchor(&provenance.HTTPAnchorConfig{
			BaseURL: cfg.Provenance.AnchorURL,
			APIKey:  cfg.Provenance.AnchorAPIKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create anchor: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unknown anchor %q", cfg.Provenance.Anchor)
	}

	batcher, err := provenance.NewBatcher(ctx, log, store, anchor, &provenance.BatcherConfig{
		MaxBatchSize: cfg.Provenance.MaxBatchSize,
		Schedule:     cfg.Provenance.Schedule,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create batcher: %w", err)
	}

	return batcher, provenance.NewProver(log, store, logger), nil
}
