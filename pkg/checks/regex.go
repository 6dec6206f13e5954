package checks

import (
	"fmt"

	"sentra-hq/warden/pkg/ruleset"
)

// maxEvidenceSpan bounds how much matched content appears in evidence.
// Matches are identified by position and a short prefix, never logged whole.
const maxEvidenceSpan = 24

// evaluateRegexForbid triggers when the pattern matches anywhere in the text.
func evaluateRegexForbid(c *ruleset.Check, text string) Result {
	loc := c.Regexp().FindStringIndex(text)
	if loc == nil {
		return Result{}
	}
	return Result{
		Triggered: true,
		Evidence:  fmt.Sprintf("forbidden pattern %q matched at [%d,%d): %s", c.Pattern, loc[0], loc[1], boundedSpan(text[loc[0]:loc[1]])),
	}
}

// evaluateRegexRequire triggers (as a violation) when the pattern is absent.
func evaluateRegexRequire(c *ruleset.Check, text string) Result {
	if c.Regexp().MatchString(text) {
		return Result{}
	}
	return Result{
		Triggered: true,
		Evidence:  fmt.Sprintf("required pattern %q not found", c.Pattern),
	}
}

// boundedSpan truncates matched content to maxEvidenceSpan runes.
func boundedSpan(s string) string {
	runes := []rune(s)
	if len(runes) <= maxEvidenceSpan {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%q…", string(runes[:maxEvidenceSpan]))
}
