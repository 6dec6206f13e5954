package ruleset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"sentra-hq/warden/pkg/telemetry/metrics"
)

func writeRuleset(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "ruleset.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write ruleset file: %v", err)
	}
	return path
}

// TestManager_LoadAndActive tests the initial load and handle access.
func TestManager_LoadAndActive(t *testing.T) {
	path := writeRuleset(t, t.TempDir(), validSource)

	m, err := NewManager(ManagerConfig{Path: path, Strict: true}, nil)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	rs, err := m.Active()
	if err != nil {
		t.Fatalf("Active() failed: %v", err)
	}
	if rs.Version != "3.2" {
		t.Errorf("Expected version '3.2', got %q", rs.Version)
	}
}

// TestManager_ReloadSwapsHandle tests that reload swaps in a new immutable
// value and notifies OnSwap with the replaced fingerprint.
func TestManager_ReloadSwapsHandle(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleset(t, dir, validSource)

	m, err := NewManager(ManagerConfig{Path: path, Strict: true}, nil)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	before, _ := m.Active()

	var swappedFrom string
	m.OnSwap(func(old string) { swappedFrom = old })

	updated := `{version: "3.3", directives: [{id: 1, title: t, tier: BLOCK, checks: [{kind: noop}]}]}`
	writeRuleset(t, dir, updated)

	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}

	after, err := m.Active()
	if err != nil {
		t.Fatalf("Active() failed after reload: %v", err)
	}
	if after.Version != "3.3" {
		t.Errorf("Expected version '3.3' after reload, got %q", after.Version)
	}
	if after.Fingerprint() == before.Fingerprint() {
		t.Error("Fingerprint unchanged after semantic reload")
	}
	if swappedFrom != before.Fingerprint() {
		t.Errorf("OnSwap got %q, expected old fingerprint %q", swappedFrom, before.Fingerprint())
	}

	// The old snapshot is still usable by in-flight holders.
	if before.Version != "3.2" {
		t.Error("Old snapshot mutated by reload")
	}
}

// TestManager_IntegrityEnforce tests fail-closed behavior on mismatch.
func TestManager_IntegrityEnforce(t *testing.T) {
	path := writeRuleset(t, t.TempDir(), validSource)

	_, err := NewManager(ManagerConfig{
		Path:                 path,
		Strict:               true,
		ReferenceFingerprint: "0000000000000000000000000000000000000000000000000000000000000000",
	}, nil)
	if err == nil {
		t.Fatal("Expected integrity error at startup, got nil")
	}
	var integrityErr *IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("Expected IntegrityError, got %T: %v", err, err)
	}
}

// TestManager_IntegrityAdvisory tests warn-only behavior on mismatch.
func TestManager_IntegrityAdvisory(t *testing.T) {
	path := writeRuleset(t, t.TempDir(), validSource)

	m, err := NewManager(ManagerConfig{
		Path:                 path,
		Strict:               true,
		ReferenceFingerprint: "0000000000000000000000000000000000000000000000000000000000000000",
		IntegrityMode:        IntegrityAdvisory,
	}, nil)
	if err != nil {
		t.Fatalf("NewManager() failed in advisory mode: %v", err)
	}

	if _, err := m.Active(); err != nil {
		t.Errorf("Active() should serve in advisory mode, got %v", err)
	}
}

// TestManager_QuarantineClearsOnGoodReload tests recovery after a reload
// that restores the reference content.
func TestManager_QuarantineClearsOnGoodReload(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleset(t, dir, validSource)

	good, err := Load([]byte(validSource), LoadOptions{Strict: true})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	m, err := NewManager(ManagerConfig{
		Path:                 path,
		Strict:               true,
		ReferenceFingerprint: good.Fingerprint(),
	}, nil)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}

	// Tampered content quarantines the manager.
	writeRuleset(t, dir, `{version: "tampered", directives: [{id: 1, title: t, tier: BLOCK, checks: [{kind: noop}]}]}`)
	if err := m.Reload(); err == nil {
		t.Fatal("Expected reload of tampered content to fail")
	}
	if _, err := m.Active(); err == nil {
		t.Fatal("Active() should refuse to serve while quarantined")
	}

	// Restoring the original content clears the quarantine.
	writeRuleset(t, dir, validSource)
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() of restored content failed: %v", err)
	}
	if _, err := m.Active(); err != nil {
		t.Errorf("Active() should serve after recovery, got %v", err)
	}
}

func reloadCount(t *testing.T, registry *prometheus.Registry, status string) float64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "sentra_warden_ruleset_reloads_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// TestManager_RecordsReloadMetrics tests the per-outcome reload counters.
func TestManager_RecordsReloadMetrics(t *testing.T) {
	dir := t.TempDir()
	path := writeRuleset(t, dir, validSource)

	good, err := Load([]byte(validSource), LoadOptions{Strict: true})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	m, err := NewManager(ManagerConfig{
		Path:                 path,
		Strict:               true,
		ReferenceFingerprint: good.Fingerprint(),
	}, nil)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	collector := metrics.NewCollector(nil, nil)
	m.SetMetrics(collector)

	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}
	if got := reloadCount(t, collector.Registry(), "ok"); got != 1 {
		t.Errorf("Expected 1 ok reload recorded, got %v", got)
	}

	// An unparseable source counts as a schema error.
	writeRuleset(t, dir, "version: [broken")
	if err := m.Reload(); err == nil {
		t.Fatal("Expected reload of broken source to fail")
	}
	if got := reloadCount(t, collector.Registry(), "schema_error"); got != 1 {
		t.Errorf("Expected 1 schema_error reload recorded, got %v", got)
	}

	// Tampered content counts as an integrity mismatch.
	writeRuleset(t, dir, `{version: "tampered", directives: [{id: 1, title: t, tier: BLOCK, checks: [{kind: noop}]}]}`)
	if err := m.Reload(); err == nil {
		t.Fatal("Expected reload of tampered content to fail")
	}
	if got := reloadCount(t, collector.Registry(), "integrity_mismatch"); got != 1 {
		t.Errorf("Expected 1 integrity_mismatch reload recorded, got %v", got)
	}
}
