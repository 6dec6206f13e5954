// Package engine evaluates text against a ruleset and produces verdicts.
//
// Evaluation walks directives in ruleset order and checks in directive
// order. A directive is violated when any one of its checks triggers (OR
// across checks); a BLOCK-tier violation fails the verdict, WARN-tier
// violations are recorded but advisory.
//
// The determinism contract: identical (text, ruleset, mode) with no provider
// failure always yields a bit-identical Verdict. Deterministic checks are
// pure functions; semantic thresholds are expected to carry enough margin to
// absorb acceptable floating-point variance from the embedding provider.
// Anything jitter-prone (latency, timestamps) belongs on the audit log
// entry, not the verdict.
package engine
