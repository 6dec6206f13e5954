package ruleset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Canonicalize returns the canonical byte encoding of a ruleset: a compact
// JSON document with recursively sorted keys, UTF-8 preserved, string fields
// whitespace-normalized, and optional fields omitted when unset.
//
// The encoding is deterministic regardless of the field ordering in the
// source document, and any semantic change to a directive or check changes
// the output. Load-time warnings are excluded.
func Canonicalize(rs *RuleSet) ([]byte, error) {
	doc := map[string]any{
		"version":    normalizeString(rs.Version),
		"directives": canonicalDirectives(rs.Directives),
	}

	// json.Marshal sorts map keys, which gives us recursive key ordering
	// for free. The encoder is configured not to escape HTML metacharacters
	// so the byte sequence stays UTF-8 faithful.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("canonical encoding failed: %w", err)
	}

	// Encoder appends a trailing newline; the canonical form has none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fingerprint returns the hex SHA-256 digest of a canonical encoding.
func Fingerprint(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// canonicalDirectives converts directives to their canonical map form.
func canonicalDirectives(directives []Directive) []any {
	out := make([]any, 0, len(directives))
	for i := range directives {
		d := &directives[i]
		m := map[string]any{
			"id":     d.ID,
			"tier":   string(d.Tier),
			"title":  normalizeString(d.Title),
			"checks": canonicalChecks(d.Checks),
		}
		if d.Sub != "" {
			m["sub"] = normalizeString(d.Sub)
		}
		if d.Category != "" {
			m["category"] = normalizeString(d.Category)
		}
		out = append(out, m)
	}
	return out
}

// canonicalChecks converts checks to their canonical map form, including
// only the parameters relevant to each kind.
func canonicalChecks(checks []Check) []any {
	out := make([]any, 0, len(checks))
	for i := range checks {
		c := &checks[i]
		m := map[string]any{
			"kind": string(c.Kind),
		}
		switch c.Kind {
		case CheckRegexForbid, CheckRegexRequire:
			m["pattern"] = c.Pattern
		case CheckChecksumForbid:
			m["min_run_length"] = c.MinRunLength
			m["max_run_length"] = c.MaxRunLength
		case CheckSemanticForbid:
			phrases := make([]string, 0, len(c.IntentPhrases))
			for _, p := range c.IntentPhrases {
				phrases = append(phrases, normalizeString(p))
			}
			m["intent_phrases"] = phrases
			m["threshold"] = c.Threshold
		}
		out = append(out, m)
	}
	return out
}

// normalizeString collapses runs of whitespace to single spaces and trims
// the ends, so cosmetic reformatting of the source never shifts the
// fingerprint.
func normalizeString(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// directiveKey formats the unique (id, sub) key for a directive.
func directiveKey(id int, sub string) string {
	if sub != "" {
		return fmt.Sprintf("%d%s", id, sub)
	}
	return fmt.Sprintf("%d", id)
}
