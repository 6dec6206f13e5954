package checks

import (
	"fmt"

	"sentra-hq/warden/pkg/ruleset"
)

// Result is the outcome of evaluating one check against a text.
type Result struct {
	// Triggered reports whether the check fired. For forbid-style checks
	// this means the forbidden content was found; for regex_require it means
	// the required pattern was absent.
	Triggered bool

	// Evidence is a bounded, human-readable description of why the check
	// fired. It never contains the full matched content: spans are
	// truncated and digit runs are masked to avoid over-logging sensitive
	// material.
	Evidence string
}

// Evaluate runs a deterministic check against the text. Semantic checks
// require the embedding provider and are evaluated by the engine; passing
// one here is a programming error.
func Evaluate(c *ruleset.Check, text string) (Result, error) {
	switch c.Kind {
	case ruleset.CheckNoOp:
		return Result{}, nil
	case ruleset.CheckRegexForbid:
		return evaluateRegexForbid(c, text), nil
	case ruleset.CheckRegexRequire:
		return evaluateRegexRequire(c, text), nil
	case ruleset.CheckChecksumForbid:
		return evaluateChecksumForbid(c, text), nil
	case ruleset.CheckSemanticForbid:
		return Result{}, fmt.Errorf("semantic check cannot be evaluated deterministically")
	default:
		return Result{}, fmt.Errorf("unknown check kind %q", c.Kind)
	}
}
