package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"sentra-hq/warden/pkg/audit"
)

func testEntry(seq uint64) *audit.LogEntry {
	return &audit.LogEntry{
		Seq:                seq,
		ID:                 fmt.Sprintf("id-%d", seq),
		Kind:               audit.KindEvaluation,
		ContentFingerprint: fmt.Sprintf("content-%d", seq),
		RulesetFingerprint: "rs-fp",
		Mode:               "strict",
		Pass:               seq%2 == 0,
		BlockCount:         1,
		DirectiveKeys:      []string{"1", "6a"},
		LatencyMillis:      int64(seq),
		Timestamp:          time.Date(2026, 3, 1, 12, 0, int(seq), 0, time.UTC),
		Fingerprint:        fmt.Sprintf("fp-%d", seq),
	}
}

// runStorageConformance exercises the Storage contract against a backend.
func runStorageConformance(t *testing.T, store audit.Storage) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.LastSeq(ctx); err != nil || ok {
		t.Fatalf("Expected empty log, got ok=%v err=%v", ok, err)
	}

	for seq := uint64(1); seq <= 10; seq++ {
		if err := store.Append(ctx, testEntry(seq)); err != nil {
			t.Fatalf("Append(%d) failed: %v", seq, err)
		}
	}

	last, ok, err := store.LastSeq(ctx)
	if err != nil || !ok || last != 10 {
		t.Fatalf("Expected last seq 10, got %d ok=%v err=%v", last, ok, err)
	}

	got, err := store.Get(ctx, 3)
	if err != nil {
		t.Fatalf("Get(3) failed: %v", err)
	}
	want := testEntry(3)
	if got.ID != want.ID || got.Kind != want.Kind || got.Fingerprint != want.Fingerprint {
		t.Errorf("Get(3) mismatch: got %+v", got)
	}
	if len(got.DirectiveKeys) != 2 || got.DirectiveKeys[1] != "6a" {
		t.Errorf("Directive keys did not round-trip: %v", got.DirectiveKeys)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp did not round-trip: got %v want %v", got.Timestamp, want.Timestamp)
	}

	var notFound *audit.NotFoundError
	if _, err := store.Get(ctx, 99); !errors.As(err, &notFound) {
		t.Errorf("Expected NotFoundError for missing seq, got %v", err)
	}

	entries, err := store.Range(ctx, 4, 7)
	if err != nil {
		t.Fatalf("Range(4,7) failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != uint64(i)+4 {
			t.Errorf("Range order broken at %d: seq %d", i, entry.Seq)
		}
	}

	// Duplicate seq must be rejected.
	if err := store.Append(ctx, testEntry(5)); err == nil {
		t.Error("Expected error on duplicate seq append")
	}
}

func TestMemoryStorage_Conformance(t *testing.T) {
	store := NewMemoryStorage()
	defer store.Close()
	runStorageConformance(t, store)
}

func TestSQLiteStorage_Conformance(t *testing.T) {
	store, err := NewSQLiteStorage(&SQLiteConfig{
		Path:         filepath.Join(t.TempDir(), "audit.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer store.Close()
	runStorageConformance(t, store)
}

// TestSQLiteStorage_Reopen tests persistence across close and reopen.
func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(&SQLiteConfig{Path: path, MaxOpenConns: 2, MaxIdleConns: 1, WALMode: true, BusyTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	for seq := uint64(1); seq <= 3; seq++ {
		if err := store.Append(ctx, testEntry(seq)); err != nil {
			t.Fatalf("Append(%d) failed: %v", seq, err)
		}
	}
	store.Close()

	reopened, err := NewSQLiteStorage(&SQLiteConfig{Path: path, MaxOpenConns: 2, MaxIdleConns: 1, WALMode: true, BusyTimeout: time.Second})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	last, ok, err := reopened.LastSeq(ctx)
	if err != nil || !ok || last != 3 {
		t.Fatalf("Expected last seq 3 after reopen, got %d ok=%v err=%v", last, ok, err)
	}
}

// TestMemoryStorage_CopiesOnRead tests that callers cannot mutate stored
// entries through returned pointers.
func TestMemoryStorage_CopiesOnRead(t *testing.T) {
	store := NewMemoryStorage()
	ctx := context.Background()

	if err := store.Append(ctx, testEntry(1)); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	got, _ := store.Get(ctx, 1)
	got.Fingerprint = "tampered"

	again, _ := store.Get(ctx, 1)
	if again.Fingerprint == "tampered" {
		t.Error("Stored entry was mutated through a returned pointer")
	}
}
