package storage

import (
	"context"
	"fmt"
	"sync"

	"sentra-hq/warden/pkg/audit"
)

// MemoryStorage is an in-memory audit storage backend for tests and
// ephemeral deployments. Entries are copied on write and read so callers
// cannot mutate stored state.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []*audit.LogEntry
}

// NewMemoryStorage creates an empty in-memory backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Append persists an entry. Entries must arrive in strictly increasing Seq
// order.
func (m *MemoryStorage) Append(ctx context.Context, entry *audit.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := uint64(len(m.entries)) + 1
	if entry.Seq != expected {
		return audit.NewStorageError("memory", "append",
			fmt.Errorf("out-of-order seq %d, expected %d", entry.Seq, expected))
	}

	clone := *entry
	m.entries = append(m.entries, &clone)
	return nil
}

// Get returns the entry with the given sequence number.
func (m *MemoryStorage) Get(ctx context.Context, seq uint64) (*audit.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if seq == 0 || seq > uint64(len(m.entries)) {
		return nil, audit.NewNotFoundError(seq)
	}
	clone := *m.entries[seq-1]
	return &clone, nil
}

// Range returns entries with fromSeq <= Seq <= toSeq, ordered by Seq.
func (m *MemoryStorage) Range(ctx context.Context, fromSeq, toSeq uint64) ([]*audit.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if fromSeq == 0 {
		fromSeq = 1
	}
	if toSeq > uint64(len(m.entries)) {
		toSeq = uint64(len(m.entries))
	}
	if fromSeq > toSeq {
		return nil, nil
	}

	out := make([]*audit.LogEntry, 0, toSeq-fromSeq+1)
	for seq := fromSeq; seq <= toSeq; seq++ {
		clone := *m.entries[seq-1]
		out = append(out, &clone)
	}
	return out, nil
}

// LastSeq returns the highest appended sequence number.
func (m *MemoryStorage) LastSeq(ctx context.Context) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return 0, false, nil
	}
	return uint64(len(m.entries)), true, nil
}

// Close releases resources. It is a no-op for the in-memory backend.
func (m *MemoryStorage) Close() error {
	return nil
}
