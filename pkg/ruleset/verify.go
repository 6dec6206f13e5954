package ruleset

// IntegrityMode controls how a fingerprint mismatch against the reference
// is handled.
type IntegrityMode string

const (
	// IntegrityEnforce fails closed: a mismatching ruleset is never served.
	// This is the default.
	IntegrityEnforce IntegrityMode = "enforce"

	// IntegrityAdvisory downgrades a mismatch to a logged warning. This must
	// be configured explicitly.
	IntegrityAdvisory IntegrityMode = "advisory"
)

// Valid reports whether the mode is one of the known integrity modes.
func (m IntegrityMode) Valid() bool {
	return m == IntegrityEnforce || m == IntegrityAdvisory
}

// VerifyResult is the outcome of comparing a loaded ruleset against a
// known-good reference fingerprint.
type VerifyResult struct {
	Match     bool
	Local     string
	Reference string
}

// Verify compares the ruleset's fingerprint against a reference fingerprint.
// An empty reference always matches (no reference configured).
func Verify(rs *RuleSet, reference string) VerifyResult {
	local := rs.Fingerprint()
	return VerifyResult{
		Match:     reference == "" || local == reference,
		Local:     local,
		Reference: reference,
	}
}
