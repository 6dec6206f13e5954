package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sentra-hq/warden/pkg/provenance"
)

// MemoryStore is an in-memory batch store for tests and ephemeral
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]*provenance.Batch
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{batches: make(map[string]*provenance.Batch)}
}

// SaveBatch persists a newly built batch.
func (m *MemoryStore) SaveBatch(ctx context.Context, batch *provenance.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.batches[batch.ID]; exists {
		return provenance.NewStoreError("memory", "save_batch",
			fmt.Errorf("duplicate batch id %s", batch.ID))
	}
	for _, existing := range m.batches {
		if batch.FromSeq <= existing.ToSeq && existing.FromSeq <= batch.ToSeq {
			return provenance.NewStoreError("memory", "save_batch",
				fmt.Errorf("batch [%d,%d] overlaps existing [%d,%d]",
					batch.FromSeq, batch.ToSeq, existing.FromSeq, existing.ToSeq))
		}
	}

	clone := *batch
	m.batches[batch.ID] = &clone
	return nil
}

// UpdateReceipt records the anchor receipt and confirmation state.
func (m *MemoryStore) UpdateReceipt(ctx context.Context, batchID, receiptRef string, confirmed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, ok := m.batches[batchID]
	if !ok {
		return provenance.NewStoreError("memory", "update_receipt",
			fmt.Errorf("unknown batch id %s", batchID))
	}
	batch.ReceiptRef = receiptRef
	batch.Confirmed = confirmed
	return nil
}

// GetBatch returns the batch with the given ID.
func (m *MemoryStore) GetBatch(ctx context.Context, id string) (*provenance.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	batch, ok := m.batches[id]
	if !ok {
		return nil, provenance.NewStoreError("memory", "get_batch",
			fmt.Errorf("unknown batch id %s", id))
	}
	clone := *batch
	return &clone, nil
}

// BatchForSeq returns the batch covering the sequence number.
func (m *MemoryStore) BatchForSeq(ctx context.Context, seq uint64) (*provenance.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, batch := range m.batches {
		if batch.FromSeq <= seq && seq <= batch.ToSeq {
			clone := *batch
			return &clone, nil
		}
	}
	return nil, provenance.NewNotBatchedError(seq)
}

// LastBatchedSeq returns the highest ToSeq across all batches.
func (m *MemoryStore) LastBatchedSeq(ctx context.Context) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last uint64
	found := false
	for _, batch := range m.batches {
		if batch.ToSeq > last {
			last = batch.ToSeq
			found = true
		}
	}
	return last, found, nil
}

// ListUnconfirmed returns unconfirmed batches ordered by FromSeq.
func (m *MemoryStore) ListUnconfirmed(ctx context.Context) ([]*provenance.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*provenance.Batch
	for _, batch := range m.batches {
		if !batch.Confirmed {
			clone := *batch
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromSeq < out[j].FromSeq })
	return out, nil
}

// Close releases resources. It is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
