package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"sentra-hq/warden/pkg/provenance"
)

const schema = `
CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	from_seq    INTEGER NOT NULL,
	to_seq      INTEGER NOT NULL,
	root        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	receipt_ref TEXT,
	confirmed   INTEGER NOT NULL DEFAULT 0,
	CHECK (from_seq <= to_seq)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_batches_from ON batches(from_seq);
CREATE INDEX IF NOT EXISTS idx_batches_confirmed ON batches(confirmed);
`

// SQLiteStoreConfig configures the SQLite batch store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore implements the provenance Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a SQLite batch store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:      dbPath,
		BusyTimeout: 5 * time.Second,
	})
}

// NewSQLiteStoreWithConfig creates a SQLite batch store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, provenance.NewStoreError("sqlite", "open",
			fmt.Errorf("database path is required"))
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, provenance.NewStoreError("sqlite", "open", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, provenance.NewStoreError("sqlite", "enable_wal", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, provenance.NewStoreError("sqlite", "set_busy_timeout", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, provenance.NewStoreError("sqlite", "create_schema", err)
	}

	logger := slog.Default().With("component", "provenance.store.sqlite")
	logger.Info("SQLite batch store initialized", "path", cfg.DBPath)

	return &SQLiteStore{db: db, logger: logger}, nil
}

// SaveBatch persists a newly built batch. The overlap check and insert run
// in one transaction so concurrent saves cannot interleave ranges.
func (s *SQLiteStore) SaveBatch(ctx context.Context, batch *provenance.Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return provenance.NewStoreError("sqlite", "save_batch", err)
	}
	defer tx.Rollback()

	var overlaps int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM batches WHERE from_seq <= ? AND to_seq >= ?",
		int64(batch.ToSeq), int64(batch.FromSeq)).Scan(&overlaps)
	if err != nil {
		return provenance.NewStoreError("sqlite", "save_batch", err)
	}
	if overlaps > 0 {
		return provenance.NewStoreError("sqlite", "save_batch",
			fmt.Errorf("batch [%d,%d] overlaps an existing batch", batch.FromSeq, batch.ToSeq))
	}

	var receipt any
	if batch.ReceiptRef != "" {
		receipt = batch.ReceiptRef
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, from_seq, to_seq, root, created_at, receipt_ref, confirmed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, int64(batch.FromSeq), int64(batch.ToSeq), batch.Root,
		batch.CreatedAt.UTC().Format(time.RFC3339Nano), receipt, boolToInt(batch.Confirmed))
	if err != nil {
		return provenance.NewStoreError("sqlite", "save_batch", err)
	}

	if err := tx.Commit(); err != nil {
		return provenance.NewStoreError("sqlite", "save_batch", err)
	}
	return nil
}

// UpdateReceipt records the anchor receipt and confirmation state.
func (s *SQLiteStore) UpdateReceipt(ctx context.Context, batchID, receiptRef string, confirmed bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE batches SET receipt_ref = ?, confirmed = ? WHERE id = ?",
		receiptRef, boolToInt(confirmed), batchID)
	if err != nil {
		return provenance.NewStoreError("sqlite", "update_receipt", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return provenance.NewStoreError("sqlite", "update_receipt", err)
	}
	if affected == 0 {
		return provenance.NewStoreError("sqlite", "update_receipt",
			fmt.Errorf("unknown batch id %s", batchID))
	}
	return nil
}

const selectBatch = `
	SELECT id, from_seq, to_seq, root, created_at, receipt_ref, confirmed
	FROM batches
`

// GetBatch returns the batch with the given ID.
func (s *SQLiteStore) GetBatch(ctx context.Context, id string) (*provenance.Batch, error) {
	row := s.db.QueryRowContext(ctx, selectBatch+" WHERE id = ?", id)
	batch, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, provenance.NewStoreError("sqlite", "get_batch",
			fmt.Errorf("unknown batch id %s", id))
	}
	if err != nil {
		return nil, provenance.NewStoreError("sqlite", "get_batch", err)
	}
	return batch, nil
}

// BatchForSeq returns the batch covering the sequence number.
func (s *SQLiteStore) BatchForSeq(ctx context.Context, seq uint64) (*provenance.Batch, error) {
	row := s.db.QueryRowContext(ctx,
		selectBatch+" WHERE from_seq <= ? AND to_seq >= ?", int64(seq), int64(seq))
	batch, err := scanBatch(row)
	if err == sql.ErrNoRows {
		return nil, provenance.NewNotBatchedError(seq)
	}
	if err != nil {
		return nil, provenance.NewStoreError("sqlite", "batch_for_seq", err)
	}
	return batch, nil
}

// LastBatchedSeq returns the highest ToSeq across all batches.
func (s *SQLiteStore) LastBatchedSeq(ctx context.Context) (uint64, bool, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(to_seq) FROM batches").Scan(&seq)
	if err != nil {
		return 0, false, provenance.NewStoreError("sqlite", "last_batched_seq", err)
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return uint64(seq.Int64), true, nil
}

// ListUnconfirmed returns unconfirmed batches ordered by FromSeq.
func (s *SQLiteStore) ListUnconfirmed(ctx context.Context) ([]*provenance.Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		selectBatch+" WHERE confirmed = 0 ORDER BY from_seq ASC")
	if err != nil {
		return nil, provenance.NewStoreError("sqlite", "list_unconfirmed", err)
	}
	defer rows.Close()

	var out []*provenance.Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, provenance.NewStoreError("sqlite", "list_unconfirmed", err)
		}
		out = append(out, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, provenance.NewStoreError("sqlite", "list_unconfirmed", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (*provenance.Batch, error) {
	var (
		batch     provenance.Batch
		fromSeq   int64
		toSeq     int64
		createdAt string
		receipt   sql.NullString
		confirmed int
	)
	err := row.Scan(&batch.ID, &fromSeq, &toSeq, &batch.Root, &createdAt, &receipt, &confirmed)
	if err != nil {
		return nil, err
	}

	batch.FromSeq = uint64(fromSeq)
	batch.ToSeq = uint64(toSeq)
	if receipt.Valid {
		batch.ReceiptRef = receipt.String
	}
	batch.Confirmed = confirmed != 0

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	batch.CreatedAt = ts

	return &batch, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
