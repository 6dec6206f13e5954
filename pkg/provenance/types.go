package provenance

import (
	"context"
	"time"
)

// Batch records one anchored Merkle root over a contiguous, non-overlapping
// audit sequence range. Batches are never empty; FromSeq <= ToSeq always
// holds and consecutive batches tile the log without gaps.
type Batch struct {
	// ID is a unique batch identifier.
	ID string `json:"id"`

	// FromSeq and ToSeq bound the covered audit range, inclusive.
	FromSeq uint64 `json:"from_seq"`
	ToSeq   uint64 `json:"to_seq"`

	// Root is the Merkle root over the entry fingerprints in the range.
	Root string `json:"root"`

	// CreatedAt is the batch construction time in UTC.
	CreatedAt time.Time `json:"created_at"`

	// ReceiptRef is the external anchor's reference for the submitted root,
	// empty until submission succeeds.
	ReceiptRef string `json:"receipt_ref,omitempty"`

	// Confirmed is set once the anchor reports the submission settled.
	Confirmed bool `json:"confirmed"`
}

// EntryCount returns the number of audit entries the batch covers.
func (b *Batch) EntryCount() uint64 {
	return b.ToSeq - b.FromSeq + 1
}

// Store is the persistence interface for batches and anchor receipts.
type Store interface {
	// SaveBatch persists a newly built batch.
	SaveBatch(ctx context.Context, batch *Batch) error

	// UpdateReceipt records the anchor receipt and confirmation state.
	UpdateReceipt(ctx context.Context, batchID, receiptRef string, confirmed bool) error

	// GetBatch returns the batch with the given ID.
	GetBatch(ctx context.Context, id string) (*Batch, error)

	// BatchForSeq returns the batch whose range covers the sequence number,
	// or a NotBatchedError when the entry has not been batched yet.
	BatchForSeq(ctx context.Context, seq uint64) (*Batch, error)

	// LastBatchedSeq returns the highest ToSeq across all batches, or
	// ok=false when no batch exists.
	LastBatchedSeq(ctx context.Context) (seq uint64, ok bool, err error)

	// ListUnconfirmed returns batches submitted but not yet confirmed, plus
	// batches never successfully submitted, ordered by FromSeq.
	ListUnconfirmed(ctx context.Context) ([]*Batch, error)

	// Close releases storage resources.
	Close() error
}

// Anchor publishes Merkle roots to an external immutable witness.
type Anchor interface {
	// Submit publishes a root and returns the witness's receipt reference.
	// Submit must be idempotent per (batchID, root).
	Submit(ctx context.Context, batchID, root string) (receiptRef string, err error)

	// Confirm reports whether a previously submitted root has settled.
	Confirm(ctx context.Context, receiptRef string) (bool, error)
}
