package engine

import "sentra-hq/warden/pkg/ruleset"

// Mode selects the latency/safety trade-off for an evaluation.
type Mode string

const (
	// ModeStrict runs deterministic checks synchronously, short-circuits on
	// a BLOCK-tier deterministic violation, and otherwise waits on the
	// semantic check before responding.
	ModeStrict Mode = "strict"

	// ModeSyncLight responds from deterministic checks alone and schedules
	// the semantic check as a background task; a late semantic violation is
	// appended to the audit log as a retroactive flag.
	ModeSyncLight Mode = "sync_light"

	// ModeRegexOnly never invokes the semantic check.
	ModeRegexOnly Mode = "regex_only"
)

// Valid reports whether the mode is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeStrict || m == ModeSyncLight || m == ModeRegexOnly
}

// SemanticAllowed reports whether the mode ever invokes semantic checks.
func (m Mode) SemanticAllowed() bool {
	return m != ModeRegexOnly
}

// Violation records one triggered check within a directive.
type Violation struct {
	// DirectiveKey is the (id, sub) key, e.g. "71" or "6a".
	DirectiveKey string `json:"directive_id"`

	// Tier is the directive's severity tier.
	Tier ruleset.Tier `json:"tier"`

	// CheckKind identifies which check variant triggered.
	CheckKind ruleset.CheckKind `json:"check_kind"`

	// Evidence is the bounded description produced by the check.
	Evidence string `json:"evidence"`
}

// Verdict is the outcome of evaluating a text against a ruleset.
//
// Verdicts are deterministic: identical (text, ruleset, mode) with no
// provider failure always yields a bit-identical Verdict. Timing and other
// jitter-prone data live on the audit log entry, never here.
type Verdict struct {
	// Pass is false when any BLOCK-tier violation was recorded. WARN-tier
	// violations are always recorded but never flip Pass.
	Pass bool `json:"pass"`

	// Violations lists every triggered check in directive order.
	Violations []Violation `json:"violations,omitempty"`

	// Indeterminate marks a fail-closed outcome caused by infrastructure
	// failure (provider unavailable, timeout) rather than a genuine content
	// violation, so operators can tell the two apart.
	Indeterminate bool `json:"indeterminate,omitempty"`

	// IndeterminateReason describes the infrastructure failure when
	// Indeterminate is set.
	IndeterminateReason string `json:"indeterminate_reason,omitempty"`
}

// BlockCount returns the number of BLOCK-tier violations.
func (v *Verdict) BlockCount() int {
	n := 0
	for _, violation := range v.Violations {
		if violation.Tier == ruleset.TierBlock {
			n++
		}
	}
	return n
}

// WarnCount returns the number of WARN-tier violations.
func (v *Verdict) WarnCount() int {
	n := 0
	for _, violation := range v.Violations {
		if violation.Tier == ruleset.TierWarn {
			n++
		}
	}
	return n
}
