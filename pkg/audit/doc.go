// Package audit provides the tamper-evident append-only audit log.
//
// Every evaluation, retroactive flag and fail-closed timeout produces one
// LogEntry. The single-writer Log assigns gap-free monotonic sequence
// numbers and a canonical-encoding fingerprint per entry; the fingerprints
// are the leaves consumed by the provenance batcher, so any later mutation
// of a persisted entry is detectable against an anchored Merkle root.
//
// Storage backends live in the storage subpackage; the in-memory backend
// serves tests and the SQLite backend serves production.
package audit
