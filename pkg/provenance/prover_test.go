package provenance_test

import (
	"context"
	"errors"
	"testing"

	"sentra-hq/warden/pkg/audit"
	auditstorage "sentra-hq/warden/pkg/audit/storage"
	"sentra-hq/warden/pkg/provenance"
	"sentra-hq/warden/pkg/provenance/store"
)

// tamperingStorage flips the Pass field of one entry on every read,
// simulating post-anchor mutation of a persisted record.
type tamperingStorage struct {
	audit.Storage
	tamperSeq uint64
	armed     bool
}

func (s *tamperingStorage) Get(ctx context.Context, seq uint64) (*audit.LogEntry, error) {
	entry, err := s.Storage.Get(ctx, seq)
	if err == nil && s.armed && seq == s.tamperSeq {
		entry.Pass = !entry.Pass
	}
	return entry, err
}

func (s *tamperingStorage) Range(ctx context.Context, fromSeq, toSeq uint64) ([]*audit.LogEntry, error) {
	entries, err := s.Storage.Range(ctx, fromSeq, toSeq)
	if err == nil && s.armed {
		for _, entry := range entries {
			if entry.Seq == s.tamperSeq {
				entry.Pass = !entry.Pass
			}
		}
	}
	return entries, err
}

func proverFixture(t *testing.T, entries int, tamper *tamperingStorage) (*audit.Log, *provenance.Prover, *provenance.Batcher) {
	t.Helper()
	ctx := context.Background()

	var backing audit.Storage = auditstorage.NewMemoryStorage()
	if tamper != nil {
		tamper.Storage = backing
		backing = tamper
	}

	log, err := audit.NewLog(ctx, backing, nil)
	if err != nil {
		t.Fatalf("NewLog() failed: %v", err)
	}
	appendEntries(t, log, entries)

	st := store.NewMemoryStore()
	batcher, err := provenance.NewBatcher(ctx, log, st, provenance.NewFakeAnchor(), nil, nil)
	if err != nil {
		t.Fatalf("NewBatcher() failed: %v", err)
	}
	return log, provenance.NewProver(log, st, nil), batcher
}

// TestProver_VerifyEntry tests end-to-end proof verification for every
// entry in an anchored batch.
func TestProver_VerifyEntry(t *testing.T) {
	ctx := context.Background()
	_, prover, batcher := proverFixture(t, 7, nil)

	if _, err := batcher.BatchNow(ctx); err != nil {
		t.Fatalf("BatchNow() failed: %v", err)
	}

	for seq := uint64(1); seq <= 7; seq++ {
		ok, err := prover.VerifyEntry(ctx, seq)
		if err != nil {
			t.Fatalf("VerifyEntry(%d) failed: %v", seq, err)
		}
		if !ok {
			t.Errorf("Expected entry %d to verify against the anchored root", seq)
		}
	}
}

// TestProver_DetectsTamperedEntry tests that mutating a persisted entry
// after anchoring fails verification for its whole batch.
func TestProver_DetectsTamperedEntry(t *testing.T) {
	ctx := context.Background()
	tamper := &tamperingStorage{tamperSeq: 3}
	_, prover, batcher := proverFixture(t, 5, tamper)

	if _, err := batcher.BatchNow(ctx); err != nil {
		t.Fatalf("BatchNow() failed: %v", err)
	}

	tamper.armed = true

	// The tampered entry itself fails.
	ok, err := prover.VerifyEntry(ctx, 3)
	if err != nil {
		t.Fatalf("VerifyEntry(3) failed: %v", err)
	}
	if ok {
		t.Error("Tampered entry must fail verification")
	}

	// Its batch siblings fail too, since the recomputed root moved.
	ok, err = prover.VerifyEntry(ctx, 1)
	if err != nil {
		t.Fatalf("VerifyEntry(1) failed: %v", err)
	}
	if ok {
		t.Error("Sibling of a tampered entry must fail verification")
	}
}

// TestProver_UnbatchedEntry tests the typed error for not-yet-anchored
// entries.
func TestProver_UnbatchedEntry(t *testing.T) {
	_, prover, _ := proverFixture(t, 2, nil)

	_, err := prover.ProveEntry(context.Background(), 1)
	var notBatched *provenance.NotBatchedError
	if !errors.As(err, &notBatched) {
		t.Fatalf("Expected NotBatchedError, got %T: %v", err, err)
	}
}
