package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sentra-hq/warden/pkg/audit"
)

// SQLiteConfig contains configuration for the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for concurrent readers alongside
	// the single writer.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the audit Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	appendStmt *sql.Stmt
	getStmt    *sql.Stmt
}

// NewSQLiteStorage creates a new SQLite audit backend, initializing the
// schema and enabling WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "audit.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite audit storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	appendStmt, err := s.db.Prepare(`
		INSERT INTO audit_log (
			seq, id, kind, content_fingerprint, ruleset_fingerprint, mode,
			pass, indeterminate, block_count, warn_count, directive_keys,
			reason, retro_of, latency_ms, timestamp, fingerprint
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return audit.NewStorageError("sqlite", "prepare_append", err)
	}
	s.appendStmt = appendStmt

	getStmt, err := s.db.Prepare(selectColumns + " WHERE seq = ?")
	if err != nil {
		return audit.NewStorageError("sqlite", "prepare_get", err)
	}
	s.getStmt = getStmt

	return nil
}

const selectColumns = `
	SELECT seq, id, kind, content_fingerprint, ruleset_fingerprint, mode,
	       pass, indeterminate, block_count, warn_count, directive_keys,
	       reason, retro_of, latency_ms, timestamp, fingerprint
	FROM audit_log
`

// Append persists an entry. The seq primary key rejects duplicates.
func (s *SQLiteStorage) Append(ctx context.Context, entry *audit.LogEntry) error {
	var directiveKeys any
	if len(entry.DirectiveKeys) > 0 {
		encoded, err := json.Marshal(entry.DirectiveKeys)
		if err != nil {
			return audit.NewStorageError("sqlite", "encode_directive_keys", err)
		}
		directiveKeys = string(encoded)
	}

	var reason any
	if entry.Reason != "" {
		reason = entry.Reason
	}
	var retroOf any
	if entry.RetroOf != 0 {
		retroOf = int64(entry.RetroOf)
	}

	_, err := s.appendStmt.ExecContext(ctx,
		int64(entry.Seq), entry.ID, string(entry.Kind),
		entry.ContentFingerprint, entry.RulesetFingerprint, entry.Mode,
		boolToInt(entry.Pass), boolToInt(entry.Indeterminate),
		entry.BlockCount, entry.WarnCount, directiveKeys,
		reason, retroOf, entry.LatencyMillis,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Fingerprint,
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "append", err)
	}
	return nil
}

// Get returns the entry with the given sequence number.
func (s *SQLiteStorage) Get(ctx context.Context, seq uint64) (*audit.LogEntry, error) {
	row := s.getStmt.QueryRowContext(ctx, int64(seq))
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, audit.NewNotFoundError(seq)
	}
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "get", err)
	}
	return entry, nil
}

// Range returns entries with fromSeq <= Seq <= toSeq, ordered by Seq.
func (s *SQLiteStorage) Range(ctx context.Context, fromSeq, toSeq uint64) ([]*audit.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE seq >= ? AND seq <= ? ORDER BY seq ASC",
		int64(fromSeq), int64(toSeq))
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "range", err)
	}
	defer rows.Close()

	var out []*audit.LogEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "range_scan", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "range_rows", err)
	}
	return out, nil
}

// LastSeq returns the highest appended sequence number.
func (s *SQLiteStorage) LastSeq(ctx context.Context) (uint64, bool, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM audit_log").Scan(&seq)
	if err != nil {
		return 0, false, audit.NewStorageError("sqlite", "last_seq", err)
	}
	if !seq.Valid {
		return 0, false, nil
	}
	return uint64(seq.Int64), true, nil
}

// Close closes the prepared statements and the database.
func (s *SQLiteStorage) Close() error {
	if s.appendStmt != nil {
		s.appendStmt.Close()
	}
	if s.getStmt != nil {
		s.getStmt.Close()
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*audit.LogEntry, error) {
	var (
		entry         audit.LogEntry
		seq           int64
		kind          string
		pass          int
		indeterminate int
		directiveKeys sql.NullString
		reason        sql.NullString
		retroOf       sql.NullInt64
		timestamp     string
	)

	err := row.Scan(&seq, &entry.ID, &kind,
		&entry.ContentFingerprint, &entry.RulesetFingerprint, &entry.Mode,
		&pass, &indeterminate, &entry.BlockCount, &entry.WarnCount,
		&directiveKeys, &reason, &retroOf, &entry.LatencyMillis,
		&timestamp, &entry.Fingerprint)
	if err != nil {
		return nil, err
	}

	entry.Seq = uint64(seq)
	entry.Kind = audit.EntryKind(kind)
	entry.Pass = pass != 0
	entry.Indeterminate = indeterminate != 0
	if directiveKeys.Valid {
		if err := json.Unmarshal([]byte(directiveKeys.String), &entry.DirectiveKeys); err != nil {
			return nil, fmt.Errorf("decode directive_keys: %w", err)
		}
	}
	if reason.Valid {
		entry.Reason = reason.String
	}
	if retroOf.Valid {
		entry.RetroOf = uint64(retroOf.Int64)
	}
	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode timestamp: %w", err)
	}
	entry.Timestamp = ts

	return &entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
