package storage

// SchemaVersion is the current audit schema version.
const SchemaVersion = 1

// Schema is the SQLite DDL for the audit log.
//
// seq is the primary key and the sole ordering; the UNIQUE constraint on it
// is what turns an out-of-order or duplicate append into a hard error
// instead of silent corruption.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_log (
	seq                 INTEGER PRIMARY KEY,
	id                  TEXT NOT NULL UNIQUE,
	kind                TEXT NOT NULL,
	content_fingerprint TEXT NOT NULL,
	ruleset_fingerprint TEXT NOT NULL,
	mode                TEXT NOT NULL,
	pass                INTEGER NOT NULL,
	indeterminate       INTEGER NOT NULL DEFAULT 0,
	block_count         INTEGER NOT NULL DEFAULT 0,
	warn_count          INTEGER NOT NULL DEFAULT 0,
	directive_keys      TEXT,
	reason              TEXT,
	retro_of            INTEGER,
	latency_ms          INTEGER NOT NULL DEFAULT 0,
	timestamp           TEXT NOT NULL,
	fingerprint         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_kind ON audit_log(kind);
CREATE INDEX IF NOT EXISTS idx_audit_content ON audit_log(content_fingerprint);

CREATE TABLE IF NOT EXISTS schema_version (
	version    INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// InsertSchemaVersion records the applied schema version.
const InsertSchemaVersion = `
INSERT OR IGNORE INTO schema_version (version) VALUES (?);
`

// GetSchemaVersion returns the highest applied schema version.
const GetSchemaVersion = `
SELECT MAX(version) FROM schema_version;
`
