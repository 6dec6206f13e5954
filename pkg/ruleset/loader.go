package ruleset

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMinRunLength and DefaultMaxRunLength bound checksum_forbid digit
	// runs when the source does not specify them. Payment card numbers are
	// 13-19 digits.
	DefaultMinRunLength = 13
	DefaultMaxRunLength = 19
)

// LoadOptions controls loader behavior.
type LoadOptions struct {
	// Strict rejects unknown check kinds with a SchemaError. When false
	// (lenient mode), unknown kinds are downgraded to noop and a warning is
	// recorded on the ruleset. The two behaviors are never mixed: the mode
	// applies to the whole load.
	Strict bool
}

// sourceRuleSet is the intermediate structure for parsing ruleset sources.
// YAML is a superset of JSON, so both encodings parse through it.
type sourceRuleSet struct {
	Version    string            `yaml:"version"`
	Directives []sourceDirective `yaml:"directives"`
}

type sourceDirective struct {
	ID       *int          `yaml:"id"`
	Sub      string        `yaml:"sub"`
	Title    string        `yaml:"title"`
	Category string        `yaml:"category"`
	Tier     string        `yaml:"tier"`
	Checks   []sourceCheck `yaml:"checks"`
}

type sourceCheck struct {
	Kind          string   `yaml:"kind"`
	Pattern       string   `yaml:"pattern"`
	MinRunLength  *int     `yaml:"min_run_length"`
	MaxRunLength  *int     `yaml:"max_run_length"`
	IntentPhrases []string `yaml:"intent_phrases"`
	Threshold     *float64 `yaml:"threshold"`
}

// LoadFile reads and loads a ruleset from a file.
func LoadFile(path string, opts LoadOptions) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewSchemaError("", fmt.Sprintf("failed to read ruleset file %q", path), err)
	}
	return Load(data, opts)
}

// Load parses, validates, and fingerprints a ruleset from source bytes.
// It fails with a SchemaError on missing or malformed fields, duplicate
// (id, sub) keys, or (in strict mode) unknown check kinds.
func Load(source []byte, opts LoadOptions) (*RuleSet, error) {
	var src sourceRuleSet
	if err := yaml.Unmarshal(source, &src); err != nil {
		return nil, NewSchemaError("", "failed to parse ruleset source", err)
	}

	if src.Version == "" {
		return nil, NewSchemaError("version", "missing required field", nil)
	}
	if len(src.Directives) == 0 {
		return nil, NewSchemaError("directives", "ruleset contains no directives", nil)
	}

	rs := &RuleSet{
		Version:    src.Version,
		Directives: make([]Directive, 0, len(src.Directives)),
	}

	seen := make(map[string]bool, len(src.Directives))
	for i, sd := range src.Directives {
		d, warnings, err := buildDirective(i, sd, opts)
		if err != nil {
			return nil, err
		}

		key := d.Key()
		if seen[key] {
			return nil, NewSchemaError(key, "duplicate (id, sub) directive key", nil)
		}
		seen[key] = true

		rs.Directives = append(rs.Directives, *d)
		rs.Warnings = append(rs.Warnings, warnings...)
	}

	canonical, err := Canonicalize(rs)
	if err != nil {
		return nil, NewSchemaError("", "failed to canonicalize ruleset", err)
	}
	rs.fingerprint = Fingerprint(canonical)

	return rs, nil
}

// buildDirective validates and converts a single source directive.
func buildDirective(index int, sd sourceDirective, opts LoadOptions) (*Directive, []string, error) {
	if sd.ID == nil {
		return nil, nil, NewSchemaError(fmt.Sprintf("directives[%d]", index), "missing required field id", nil)
	}
	if *sd.ID <= 0 {
		return nil, nil, NewSchemaError(fmt.Sprintf("directives[%d]", index), fmt.Sprintf("id must be positive, got %d", *sd.ID), nil)
	}

	key := directiveKey(*sd.ID, sd.Sub)

	if sd.Title == "" {
		return nil, nil, NewSchemaError(key, "missing required field title", nil)
	}
	tier := Tier(sd.Tier)
	if !tier.Valid() {
		return nil, nil, NewSchemaError(key, fmt.Sprintf("tier must be BLOCK or WARN, got %q", sd.Tier), nil)
	}
	if len(sd.Checks) == 0 {
		return nil, nil, NewSchemaError(key, "directive has no checks", nil)
	}

	d := &Directive{
		ID:       *sd.ID,
		Sub:      sd.Sub,
		Title:    sd.Title,
		Category: sd.Category,
		Tier:     tier,
		Checks:   make([]Check, 0, len(sd.Checks)),
	}

	var warnings []string
	for j, sc := range sd.Checks {
		check, warning, err := buildCheck(key, j, sc, opts)
		if err != nil {
			return nil, nil, err
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
		d.Checks = append(d.Checks, *check)
	}

	return d, warnings, nil
}

// buildCheck validates and converts a single source check.
func buildCheck(directiveKey string, index int, sc sourceCheck, opts LoadOptions) (*Check, string, error) {
	field := fmt.Sprintf("%s.checks[%d]", directiveKey, index)

	kind := CheckKind(sc.Kind)
	if sc.Kind == "" {
		return nil, "", NewSchemaError(field, "missing required field kind", nil)
	}
	if !kind.Valid() {
		if opts.Strict {
			return nil, "", NewSchemaError(field, fmt.Sprintf("unknown check kind %q", sc.Kind), nil)
		}
		warning := fmt.Sprintf("%s: unknown check kind %q downgraded to noop", field, sc.Kind)
		return &Check{Kind: CheckNoOp}, warning, nil
	}

	check := &Check{Kind: kind}

	switch kind {
	case CheckNoOp:
		// No parameters.

	case CheckRegexForbid, CheckRegexRequire:
		if sc.Pattern == "" {
			return nil, "", NewSchemaError(field, "regex check requires a pattern", nil)
		}
		compiled, err := regexp.Compile(sc.Pattern)
		if err != nil {
			return nil, "", NewSchemaError(field, fmt.Sprintf("invalid pattern %q", sc.Pattern), err)
		}
		check.Pattern = sc.Pattern
		check.compiled = compiled

	case CheckChecksumForbid:
		check.MinRunLength = DefaultMinRunLength
		check.MaxRunLength = DefaultMaxRunLength
		if sc.MinRunLength != nil {
			check.MinRunLength = *sc.MinRunLength
		}
		if sc.MaxRunLength != nil {
			check.MaxRunLength = *sc.MaxRunLength
		}
		if check.MinRunLength < 2 || check.MaxRunLength < check.MinRunLength {
			return nil, "", NewSchemaError(field,
				fmt.Sprintf("invalid run length range [%d, %d]", check.MinRunLength, check.MaxRunLength), nil)
		}

	case CheckSemanticForbid:
		if len(sc.IntentPhrases) == 0 {
			return nil, "", NewSchemaError(field, "semantic check requires intent_phrases", nil)
		}
		for _, p := range sc.IntentPhrases {
			if p == "" {
				return nil, "", NewSchemaError(field, "intent phrases must be non-empty", nil)
			}
		}
		if sc.Threshold == nil {
			return nil, "", NewSchemaError(field, "semantic check requires a threshold", nil)
		}
		if *sc.Threshold <= 0 || *sc.Threshold > 1 {
			return nil, "", NewSchemaError(field, fmt.Sprintf("threshold must be in (0, 1], got %v", *sc.Threshold), nil)
		}
		check.IntentPhrases = append([]string(nil), sc.IntentPhrases...)
		check.Threshold = *sc.Threshold
	}

	return check, "", nil
}
