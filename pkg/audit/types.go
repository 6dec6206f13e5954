package audit

import (
	"context"
	"time"
)

// EntryKind distinguishes why a log entry was written.
type EntryKind string

const (
	// KindEvaluation records a completed evaluation that produced the
	// response returned to the caller.
	KindEvaluation EntryKind = "evaluation"

	// KindRetroFlag records a background semantic violation discovered after
	// the original response had already been returned. RetroOf points at the
	// evaluation entry it amends.
	KindRetroFlag EntryKind = "retro_flag"

	// KindTimeout records a fail-closed outcome caused by infrastructure
	// failure rather than a content violation.
	KindTimeout EntryKind = "timeout"
)

// Valid reports whether the kind is one of the known entry kinds.
func (k EntryKind) Valid() bool {
	return k == KindEvaluation || k == KindRetroFlag || k == KindTimeout
}

// LogEntry is one record in the append-only audit log.
//
// Seq, ID, Timestamp and Fingerprint are assigned by Log.Append; callers
// fill only the evaluation fields. Entries are immutable once appended.
type LogEntry struct {
	// Seq is the gap-free monotonic sequence number, starting at 1.
	Seq uint64 `json:"seq"`

	// ID is a unique identifier for cross-system correlation.
	ID string `json:"id"`

	// Kind distinguishes evaluations, retroactive flags and timeouts.
	Kind EntryKind `json:"kind"`

	// ContentFingerprint is the SHA-256 hex digest of the evaluated text.
	ContentFingerprint string `json:"content_fingerprint"`

	// RulesetFingerprint identifies the exact ruleset version the verdict
	// was produced under.
	RulesetFingerprint string `json:"ruleset_fingerprint"`

	// Mode is the controller mode active at evaluation time.
	Mode string `json:"mode"`

	// Pass is the verdict outcome.
	Pass bool `json:"pass"`

	// Indeterminate marks fail-closed outcomes.
	Indeterminate bool `json:"indeterminate,omitempty"`

	// BlockCount and WarnCount summarize the verdict by tier.
	BlockCount int `json:"block_count"`
	WarnCount  int `json:"warn_count"`

	// DirectiveKeys lists the directives that triggered, in ruleset order.
	DirectiveKeys []string `json:"directive_keys,omitempty"`

	// Reason carries the failure description for timeout and indeterminate
	// entries.
	Reason string `json:"reason,omitempty"`

	// RetroOf is the sequence number of the evaluation entry a retro_flag
	// amends. Zero for other kinds.
	RetroOf uint64 `json:"retro_of,omitempty"`

	// LatencyMillis is the end-to-end evaluation latency. Timing lives here
	// rather than on the verdict so verdicts stay deterministic.
	LatencyMillis int64 `json:"latency_ms"`

	// Timestamp is the append time in UTC.
	Timestamp time.Time `json:"timestamp"`

	// Fingerprint is the SHA-256 hex digest of the entry's canonical
	// encoding. It is the leaf value for provenance batching.
	Fingerprint string `json:"fingerprint"`
}

// Storage is the persistence interface for the audit log.
//
// Append is called by a single writer in strictly increasing Seq order;
// implementations must preserve that order on read. Range and Get return
// NotFoundError-free results only for sequence numbers that were appended.
type Storage interface {
	// Append persists an entry. The entry's Seq is final; implementations
	// must reject duplicates.
	Append(ctx context.Context, entry *LogEntry) error

	// Get returns the entry with the given sequence number.
	Get(ctx context.Context, seq uint64) (*LogEntry, error)

	// Range returns entries with fromSeq <= Seq <= toSeq, ordered by Seq.
	Range(ctx context.Context, fromSeq, toSeq uint64) ([]*LogEntry, error)

	// LastSeq returns the highest appended sequence number, or ok=false when
	// the log is empty. Used to recover the writer's counter on restart.
	LastSeq(ctx context.Context) (seq uint64, ok bool, err error)

	// Close releases storage resources.
	Close() error
}
