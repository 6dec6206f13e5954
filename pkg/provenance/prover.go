package provenance

import (
	"context"
	"fmt"
	"log/slog"

	"sentra-hq/warden/pkg/audit"
)

// Prover generates and checks inclusion proofs for audit entries against
// their anchored batches.
type Prover struct {
	log    *audit.Log
	store  Store
	logger *slog.Logger
}

// NewProver creates a prover over the audit log and batch store.
func NewProver(log *audit.Log, store Store, logger *slog.Logger) *Prover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prover{
		log:    log,
		store:  store,
		logger: logger.With("component", "provenance.prover"),
	}
}

// ProveEntry builds the inclusion proof for an audit entry within the batch
// that covers it. The entry's fingerprint is recomputed from the stored
// fields, so a tampered entry yields a proof that fails verification.
func (p *Prover) ProveEntry(ctx context.Context, seq uint64) (*Proof, error) {
	batch, err := p.store.BatchForSeq(ctx, seq)
	if err != nil {
		return nil, err
	}

	entries, err := p.log.Range(ctx, batch.FromSeq, batch.ToSeq)
	if err != nil {
		return nil, err
	}
	if uint64(len(entries)) != batch.EntryCount() {
		return nil, fmt.Errorf("batch %s covers %d entries but log returned %d",
			batch.ID, batch.EntryCount(), len(entries))
	}

	fingerprints := make([]string, len(entries))
	for i, entry := range entries {
		fp, err := audit.EntryFingerprint(entry)
		if err != nil {
			return nil, err
		}
		fingerprints[i] = fp
	}

	proof, err := BuildProof(fingerprints, int(seq-batch.FromSeq), seq)
	if err != nil {
		return nil, err
	}
	// Bind the proof to the anchored root, not the recomputed one; a
	// mismatch must surface at verification time.
	proof.Root = batch.Root
	return proof, nil
}

// VerifyEntry recomputes an entry's inclusion proof and checks it against
// the anchored batch root. It returns false when the entry, any sibling in
// its batch, or the stored root has been altered since anchoring.
func (p *Prover) VerifyEntry(ctx context.Context, seq uint64) (bool, error) {
	proof, err := p.ProveEntry(ctx, seq)
	if err != nil {
		return false, err
	}
	return VerifyProof(proof)
}
