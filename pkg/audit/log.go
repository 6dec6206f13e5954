package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log is the single-writer append-only audit log.
//
// All appends go through one mutex, so sequence numbers are assigned and
// persisted atomically: a failed persist does not consume a sequence number
// and the log never has gaps. Reads go straight to storage and need no
// coordination with the writer.
type Log struct {
	storage Storage
	logger  *slog.Logger

	mu      sync.Mutex
	lastSeq uint64
}

// NewLog creates an audit log over the given storage, recovering the
// sequence counter from the highest persisted entry.
func NewLog(ctx context.Context, storage Storage, logger *slog.Logger) (*Log, error) {
	if storage == nil {
		return nil, fmt.Errorf("audit log requires a storage backend")
	}
	if logger == nil {
		logger = slog.Default()
	}

	last, ok, err := storage.LastSeq(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		last = 0
	}

	l := &Log{
		storage: storage,
		logger:  logger.With("component", "audit.log"),
		lastSeq: last,
	}

	l.logger.Info("audit log initialized", "last_seq", last)

	return l, nil
}

// Append assigns the next sequence number, ID, timestamp and fingerprint to
// the entry and persists it. The entry must not be modified afterwards.
//
// Append serializes all writers; on storage failure the sequence counter is
// not advanced and the same number is reused by the next successful append.
func (l *Log) Append(ctx context.Context, entry *LogEntry) error {
	if entry == nil {
		return fmt.Errorf("nil audit entry")
	}
	if !entry.Kind.Valid() {
		return fmt.Errorf("invalid audit entry kind %q", entry.Kind)
	}
	if entry.Kind == KindRetroFlag && entry.RetroOf == 0 {
		return fmt.Errorf("retro_flag entry requires retro_of")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Seq = l.lastSeq + 1
	entry.ID = uuid.New().String()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	fp, err := EntryFingerprint(entry)
	if err != nil {
		return fmt.Errorf("fingerprint audit entry: %w", err)
	}
	entry.Fingerprint = fp

	if err := l.storage.Append(ctx, entry); err != nil {
		return err
	}
	l.lastSeq = entry.Seq

	l.logger.Debug("audit entry appended",
		"seq", entry.Seq,
		"kind", entry.Kind,
		"pass", entry.Pass,
	)

	return nil
}

// LastSeq returns the highest sequence number appended so far, zero when the
// log is empty.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Get returns the entry with the given sequence number.
func (l *Log) Get(ctx context.Context, seq uint64) (*LogEntry, error) {
	return l.storage.Get(ctx, seq)
}

// Range returns entries with fromSeq <= Seq <= toSeq, ordered by Seq.
func (l *Log) Range(ctx context.Context, fromSeq, toSeq uint64) ([]*LogEntry, error) {
	return l.storage.Range(ctx, fromSeq, toSeq)
}
