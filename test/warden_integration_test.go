//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sentra-hq/warden/pkg/audit"
	auditstorage "sentra-hq/warden/pkg/audit/storage"
	"sentra-hq/warden/pkg/config"
	"sentra-hq/warden/pkg/embedding"
	"sentra-hq/warden/pkg/engine"
	"sentra-hq/warden/pkg/provenance"
	provstore "sentra-hq/warden/pkg/provenance/store"
	"sentra-hq/warden/pkg/ruleset"
	"sentra-hq/warden/pkg/runtime"
	"sentra-hq/warden/pkg/server"
)

const integrationRuleset = `
version: "2026.08"
directives:
  - id: 1
    title: No credentials in content
    tier: BLOCK
    checks:
      - kind: regex_forbid
        pattern: "(?i)password\\s*[:=]"
  - id: 2
    title: Disclosures must carry a confidence tag
    tier: WARN
    checks:
      - kind: regex_require
        pattern: "Confidence: (High|Medium|Low)"
`

// buildStack wires the full service over SQLite-backed audit and
// provenance stores, the way the run command does.
func buildStack(t *testing.T) (http.Handler, *audit.Log) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	rulesPath := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte(integrationRuleset), 0o644); err != nil {
		t.Fatalf("failed to write ruleset: %v", err)
	}

	manager, err := ruleset.NewManager(ruleset.ManagerConfig{Path: rulesPath, Strict: true}, nil)
	if err != nil {
		t.Fatalf("failed to create ruleset manager: %v", err)
	}

	sqliteCfg := auditstorage.DefaultSQLiteConfig()
	sqliteCfg.Path = filepath.Join(dir, "audit.db")
	storage, err := auditstorage.NewSQLiteStorage(sqliteCfg)
	if err != nil {
		t.Fatalf("failed to open audit storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	log, err := audit.NewLog(ctx, storage, nil)
	if err != nil {
		t.Fatalf("failed to open audit log: %v", err)
	}

	store, err := provstore.NewSQLiteStore(filepath.Join(dir, "provenance.db"))
	if err != nil {
		t.Fatalf("failed to open provenance store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	batcher, err := provenance.NewBatcher(ctx, log, store, provenance.NewFakeAnchor(), nil, nil)
	if err != nil {
		t.Fatalf("failed to create batcher: %v", err)
	}

	provider := embedding.NewFakeProvider()
	controller, err := runtime.NewController(&runtime.Config{
		Mode:            engine.ModeStrict,
		SemanticTimeout: 2 * time.Second,
		CacheTTL:        time.Minute,
	}, runtime.Deps{
		Manager:  manager,
		Engine:   engine.New(provider, nil),
		Log:      log,
		Batcher:  batcher,
		Prover:   provenance.NewProver(log, store, nil),
		Provider: provider,
	})
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}

	cfg := config.DefaultConfig().Server
	return server.NewServer(&cfg, controller, nil, nil).Handler(), log
}

func postCheck(t *testing.T, url, text string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"text": text})
	resp, err := http.Post(url+"/v1/check", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("check request failed: %v", err)
	}
	return resp
}

// TestWardenIntegration tests the end-to-end flow from HTTP check request
// through audit logging, batching and inclusion proof verification.
func TestWardenIntegration(t *testing.T) {
	handler, log := buildStack(t)
	testServer := httptest.NewServer(handler)
	defer testServer.Close()

	t.Run("blocking evaluation", func(t *testing.T) {
		resp := postCheck(t, testServer.URL, "the password: hunter2")
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var result struct {
			Verdict engine.Verdict `json:"verdict"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Verdict.Pass {
			t.Error("expected blocking verdict")
		}
	})

	t.Run("every check is audited", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			resp := postCheck(t, testServer.URL, fmt.Sprintf("clean message %d\nConfidence: High", i))
			resp.Body.Close()
		}

		if last := log.LastSeq(); last < 5 {
			t.Errorf("expected at least 5 audit entries, got %d", last)
		}
	})

	t.Run("batch and verify inclusion", func(t *testing.T) {
		resp, err := http.Post(testServer.URL+"/v1/batch", "application/json", nil)
		if err != nil {
			t.Fatalf("batch request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var batch provenance.Batch
		if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
			t.Fatalf("failed to decode batch: %v", err)
		}
		if batch.ReceiptRef == "" {
			t.Error("expected an anchor receipt")
		}

		for seq := batch.FromSeq; seq <= batch.ToSeq; seq++ {
			verifyResp, err := http.Get(fmt.Sprintf("%s/v1/verify/%d", testServer.URL, seq))
			if err != nil {
				t.Fatalf("verify request failed: %v", err)
			}
			var result struct {
				Verified bool `json:"verified"`
			}
			if err := json.NewDecoder(verifyResp.Body).Decode(&result); err != nil {
				t.Fatalf("failed to decode verify response: %v", err)
			}
			verifyResp.Body.Close()
			if !result.Verified {
				t.Errorf("entry %d failed verification", seq)
			}
		}
	})

	t.Run("unbatched entry conflicts", func(t *testing.T) {
		resp := postCheck(t, testServer.URL, "another clean message\nConfidence: Low")
		resp.Body.Close()

		verifyResp, err := http.Get(fmt.Sprintf("%s/v1/verify/%d", testServer.URL, log.LastSeq()))
		if err != nil {
			t.Fatalf("verify request failed: %v", err)
		}
		defer verifyResp.Body.Close()
		if verifyResp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409 for unbatched entry, got %d", verifyResp.StatusCode)
		}
	})
}

// TestWardenIntegration_Restart tests that the audit sequence and batch
// claims survive a process restart over the same database files.
func TestWardenIntegration_Restart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.db")
	storePath := filepath.Join(dir, "provenance.db")

	openLog := func() (*audit.Log, func()) {
		cfg := auditstorage.DefaultSQLiteConfig()
		cfg.Path = auditPath
		storage, err := auditstorage.NewSQLiteStorage(cfg)
		if err != nil {
			t.Fatalf("failed to open audit storage: %v", err)
		}
		log, err := audit.NewLog(ctx, storage, nil)
		if err != nil {
			t.Fatalf("failed to open audit log: %v", err)
		}
		return log, func() { storage.Close() }
	}

	log, closeLog := openLog()
	for i := 0; i < 3; i++ {
		entry := &audit.LogEntry{
			Kind:               audit.KindEvaluation,
			ContentFingerprint: audit.ContentFingerprint(fmt.Sprintf("msg %d", i)),
			RulesetFingerprint: "0000000000000000000000000000000000000000000000000000000000000000",
			Mode:               "strict",
			Pass:               true,
		}
		if err := log.Append(ctx, entry); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	store, err := provstore.NewSQLiteStore(storePath)
	if err != nil {
		t.Fatalf("failed to open provenance store: %v", err)
	}
	batcher, err := provenance.NewBatcher(ctx, log, store, provenance.NewFakeAnchor(), nil, nil)
	if err != nil {
		t.Fatalf("failed to create batcher: %v", err)
	}
	if _, err := batcher.BatchNow(ctx); err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	store.Close()
	closeLog()

	// Reopen everything and confirm recovered state.
	log, closeLog = openLog()
	defer closeLog()

	if last := log.LastSeq(); last != 3 {
		t.Fatalf("expected recovered seq 3, got %d", last)
	}

	store, err = provstore.NewSQLiteStore(storePath)
	if err != nil {
		t.Fatalf("failed to reopen provenance store: %v", err)
	}
	defer store.Close()

	batcher, err = provenance.NewBatcher(ctx, log, store, provenance.NewFakeAnchor(), nil, nil)
	if err != nil {
		t.Fatalf("failed to recreate batcher: %v", err)
	}
	if got := batcher.LastBatchedSeq(); got != 3 {
		t.Errorf("expected recovered batch claim through seq 3, got %d", got)
	}

	// A new entry after restart extends the log without gaps.
	entry := &audit.LogEntry{
		Kind:               audit.KindEvaluation,
		ContentFingerprint: audit.ContentFingerprint("post-restart"),
		RulesetFingerprint: "0000000000000000000000000000000000000000000000000000000000000000",
		Mode:               "strict",
		Pass:               true,
	}
	if err := log.Append(ctx, entry); err != nil {
		t.Fatalf("append after restart failed: %v", err)
	}
	if entry.Seq != 4 {
		t.Errorf("expected seq 4 after restart, got %d", entry.Seq)
	}
}
