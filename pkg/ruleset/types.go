package ruleset

import "regexp"

// Tier is the severity tier of a directive. BLOCK-tier violations can fail an
// evaluation; WARN-tier violations are recorded but never flip pass/fail.
type Tier string

const (
	TierBlock Tier = "BLOCK"
	TierWarn  Tier = "WARN"
)

// Valid reports whether the tier is one of the known tiers.
func (t Tier) Valid() bool {
	return t == TierBlock || t == TierWarn
}

// CheckKind identifies one of the supported check variants.
type CheckKind string

const (
	// CheckNoOp never triggers. Lenient loading downgrades unknown kinds to
	// this with a recorded warning.
	CheckNoOp CheckKind = "noop"

	// CheckRegexForbid triggers when the pattern matches anywhere in the text.
	CheckRegexForbid CheckKind = "regex_forbid"

	// CheckRegexRequire triggers (as a violation) when the pattern is absent.
	CheckRegexRequire CheckKind = "regex_require"

	// CheckChecksumForbid triggers when the text contains a digit run that
	// passes the Luhn checksum (card-number shaped content).
	CheckChecksumForbid CheckKind = "checksum_forbid"

	// CheckSemanticForbid triggers when the embedding similarity between the
	// text and any intent phrase meets or exceeds the threshold.
	CheckSemanticForbid CheckKind = "semantic_forbid"
)

// Valid reports whether the kind is one of the known check kinds.
func (k CheckKind) Valid() bool {
	switch k {
	case CheckNoOp, CheckRegexForbid, CheckRegexRequire, CheckChecksumForbid, CheckSemanticForbid:
		return true
	}
	return false
}

// Deterministic reports whether the check can be evaluated without calling
// the embedding provider.
func (k CheckKind) Deterministic() bool {
	return k != CheckSemanticForbid
}

// Check is one machine-checkable condition attached to a directive. Exactly
// the fields relevant to its Kind are populated; the loader rejects missing
// or malformed parameters.
type Check struct {
	Kind CheckKind

	// Pattern is the regular expression for regex_forbid / regex_require.
	Pattern string

	// MinRunLength and MaxRunLength bound the digit-run length for
	// checksum_forbid. Defaults: 13 and 19.
	MinRunLength int
	MaxRunLength int

	// IntentPhrases and Threshold parameterize semantic_forbid.
	IntentPhrases []string
	Threshold     float64

	// compiled is set by the loader for regex kinds.
	compiled *regexp.Regexp
}

// Regexp returns the compiled pattern for regex kinds, or nil.
func (c *Check) Regexp() *regexp.Regexp {
	return c.compiled
}

// Directive is a named rule with a severity tier and an ordered sequence of
// checks. A directive is violated when any one of its checks triggers.
type Directive struct {
	// ID is the numeric directive identifier. Some directives are split into
	// micro-steps sharing an ID and distinguished by Sub ("a", "b", ...).
	ID  int
	Sub string

	Title    string
	Category string
	Tier     Tier
	Checks   []Check
}

// Key returns the unique (id, sub) key, e.g. "71" or "6a".
func (d *Directive) Key() string {
	return directiveKey(d.ID, d.Sub)
}

// RuleSet is an immutable, versioned, ordered collection of directives.
// It is never mutated after loading; reloads produce a new value that is
// swapped in atomically via a Handle.
type RuleSet struct {
	Version    string
	Directives []Directive

	// Warnings records lenient-load downgrades (unknown check kinds turned
	// into noop). Warnings are not part of the canonical encoding.
	Warnings []string

	// fingerprint is the hex SHA-256 of the canonical encoding, computed
	// once at load time.
	fingerprint string
}

// Fingerprint returns the hex digest of the ruleset's canonical encoding.
func (rs *RuleSet) Fingerprint() string {
	return rs.fingerprint
}

// Directive returns the directive with the given (id, sub) key, or nil.
func (rs *RuleSet) Directive(id int, sub string) *Directive {
	for i := range rs.Directives {
		if rs.Directives[i].ID == id && rs.Directives[i].Sub == sub {
			return &rs.Directives[i]
		}
	}
	return nil
}
