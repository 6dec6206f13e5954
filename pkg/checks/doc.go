// Package checks implements the deterministic check primitives used by the
// evaluation engine: forbidden-pattern and required-pattern regex matching,
// and Luhn checksum detection of card-number-shaped digit runs.
//
// Each primitive is a pure function of (check, text) and reports a Result
// with bounded evidence: matched spans are truncated and digit runs masked,
// so the audit trail never re-logs the sensitive content a check fired on.
//
// Semantic checks (semantic_forbid) are declared in pkg/ruleset but need the
// embedding provider; the engine evaluates them through pkg/embedding.
package checks
