// Package ruleset provides loading, integrity verification, and hot reload
// for versioned content rulesets.
//
// A RuleSet is an ordered sequence of Directives, each carrying a severity
// tier (BLOCK or WARN) and an ordered sequence of machine-checkable Checks.
// Checks are an exhaustive tagged variant: regex_forbid, regex_require,
// checksum_forbid (Luhn), semantic_forbid, and noop. Unknown kinds are a
// load-time error in strict mode; lenient mode downgrades them to noop with
// a recorded warning.
//
// # Canonical encoding and fingerprints
//
// Canonicalize produces a deterministic byte encoding (compact JSON with
// recursively sorted keys, whitespace-normalized strings, UTF-8 preserved).
// The fingerprint is the hex SHA-256 of that encoding. Reordering fields in
// the source never changes the fingerprint; any semantic edit to a directive
// or check always does.
//
// # Integrity verification
//
// Verify compares a loaded ruleset against a known-good reference
// fingerprint. A mismatch fails closed by default (the Manager quarantines
// itself and refuses to serve); advisory mode downgrades the mismatch to a
// logged warning and must be configured explicitly.
//
// # Hot reload
//
// The Manager keeps the active ruleset behind an atomically-swapped handle.
// A reload loads and verifies a new immutable value, then swaps the pointer;
// the value is never mutated in place. With Watch enabled, an fsnotify
// watcher triggers reloads on file changes, debounced to one reload per
// change burst. OnSwap callbacks receive the replaced fingerprint so callers
// can invalidate caches keyed on it.
package ruleset
