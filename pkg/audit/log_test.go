package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sentra-hq/warden/pkg/audit"
	"sentra-hq/warden/pkg/audit/storage"
)

func newLog(t *testing.T) *audit.Log {
	t.Helper()
	l, err := audit.NewLog(context.Background(), storage.NewMemoryStorage(), nil)
	if err != nil {
		t.Fatalf("NewLog() failed: %v", err)
	}
	return l
}

func evaluationEntry() *audit.LogEntry {
	return &audit.LogEntry{
		Kind:               audit.KindEvaluation,
		ContentFingerprint: audit.ContentFingerprint("some text"),
		RulesetFingerprint: "rs-fp",
		Mode:               "strict",
		Pass:               true,
	}
}

// TestLog_AppendAssignsSequence tests seq, id and fingerprint assignment.
func TestLog_AppendAssignsSequence(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		entry := evaluationEntry()
		if err := l.Append(ctx, entry); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
		if entry.Seq != uint64(i) {
			t.Errorf("Expected seq %d, got %d", i, entry.Seq)
		}
		if entry.ID == "" || entry.Fingerprint == "" || entry.Timestamp.IsZero() {
			t.Error("Append must assign id, fingerprint and timestamp")
		}

		want, err := audit.EntryFingerprint(entry)
		if err != nil {
			t.Fatalf("EntryFingerprint() failed: %v", err)
		}
		if entry.Fingerprint != want {
			t.Errorf("Stored fingerprint %q does not match recomputation %q", entry.Fingerprint, want)
		}
	}
}

// TestLog_ConcurrentAppendsGapFree tests that concurrent appenders produce a
// contiguous sequence with storage order matching seq order.
func TestLog_ConcurrentAppendsGapFree(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	const writers = 16
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := l.Append(ctx, evaluationEntry()); err != nil {
					t.Errorf("Append() failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	total := uint64(writers * perWriter)
	if l.LastSeq() != total {
		t.Fatalf("Expected last seq %d, got %d", total, l.LastSeq())
	}

	entries, err := l.Range(ctx, 1, total)
	if err != nil {
		t.Fatalf("Range() failed: %v", err)
	}
	if uint64(len(entries)) != total {
		t.Fatalf("Expected %d entries, got %d", total, len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != uint64(i)+1 {
			t.Fatalf("Gap or reorder at position %d: seq %d", i, entry.Seq)
		}
	}
}

// TestLog_RecoversCounter tests that a new Log resumes after the highest
// persisted seq.
func TestLog_RecoversCounter(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()

	first, err := audit.NewLog(ctx, store, nil)
	if err != nil {
		t.Fatalf("NewLog() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := first.Append(ctx, evaluationEntry()); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	second, err := audit.NewLog(ctx, store, nil)
	if err != nil {
		t.Fatalf("NewLog() failed: %v", err)
	}
	entry := evaluationEntry()
	if err := second.Append(ctx, entry); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if entry.Seq != 6 {
		t.Errorf("Expected recovered log to continue at seq 6, got %d", entry.Seq)
	}
}

// TestLog_RetroFlagRequiresTarget tests retro_flag validation.
func TestLog_RetroFlagRequiresTarget(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	entry := &audit.LogEntry{
		Kind:               audit.KindRetroFlag,
		ContentFingerprint: "cf",
		RulesetFingerprint: "rf",
		Mode:               "sync_light",
	}
	if err := l.Append(ctx, entry); err == nil {
		t.Error("Expected error for retro_flag without retro_of")
	}

	entry.RetroOf = 1
	if err := l.Append(ctx, entry); err != nil {
		t.Errorf("Append() failed for valid retro_flag: %v", err)
	}
}

// TestLog_GetNotFound tests typed not-found errors.
func TestLog_GetNotFound(t *testing.T) {
	l := newLog(t)

	_, err := l.Get(context.Background(), 42)
	var notFound *audit.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
	if notFound.Seq != 42 {
		t.Errorf("Expected seq 42 in error, got %d", notFound.Seq)
	}
}

// TestLog_InvalidKind tests kind validation.
func TestLog_InvalidKind(t *testing.T) {
	l := newLog(t)
	entry := evaluationEntry()
	entry.Kind = "bogus"
	if err := l.Append(context.Background(), entry); err == nil {
		t.Error("Expected error for invalid entry kind")
	}
}
