package checks

import (
	"strings"
	"testing"

	"sentra-hq/warden/pkg/ruleset"
)

func mustCheck(t *testing.T, kind ruleset.CheckKind, pattern string) *ruleset.Check {
	t.Helper()
	source := `{version: "1", directives: [{id: 1, title: t, tier: BLOCK, checks: [{kind: ` +
		string(kind) + `, pattern: '` + pattern + `'}]}]}`
	rs, err := ruleset.Load([]byte(source), ruleset.LoadOptions{Strict: true})
	if err != nil {
		t.Fatalf("Failed to build check: %v", err)
	}
	return &rs.Directives[0].Checks[0]
}

func checksumCheck(t *testing.T) *ruleset.Check {
	t.Helper()
	source := `{version: "1", directives: [{id: 1, title: t, tier: BLOCK, checks: [{kind: checksum_forbid}]}]}`
	rs, err := ruleset.Load([]byte(source), ruleset.LoadOptions{Strict: true})
	if err != nil {
		t.Fatalf("Failed to build check: %v", err)
	}
	return &rs.Directives[0].Checks[0]
}

// TestRegexForbid tests forbidden-pattern matching and evidence bounding.
func TestRegexForbid(t *testing.T) {
	check := mustCheck(t, ruleset.CheckRegexForbid, "password:")

	result, err := Evaluate(check, "Subject: test\npassword: 1234")
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !result.Triggered {
		t.Fatal("Expected forbidden pattern to trigger")
	}
	if result.Evidence == "" {
		t.Error("Expected evidence for triggered check")
	}

	result, err = Evaluate(check, "nothing to see here")
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if result.Triggered {
		t.Error("Expected clean text not to trigger")
	}
}

// TestRegexForbid_EvidenceBounded tests that evidence never carries the full
// matched content for long matches.
func TestRegexForbid_EvidenceBounded(t *testing.T) {
	check := mustCheck(t, ruleset.CheckRegexForbid, "secret.*")
	long := "secret " + strings.Repeat("x", 500)

	result, err := Evaluate(check, long)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !result.Triggered {
		t.Fatal("Expected trigger")
	}
	if strings.Contains(result.Evidence, strings.Repeat("x", 100)) {
		t.Errorf("Evidence contains unbounded matched content: %d bytes", len(result.Evidence))
	}
}

// TestRegexRequire tests required-pattern violation semantics.
func TestRegexRequire(t *testing.T) {
	check := mustCheck(t, ruleset.CheckRegexRequire, "Confidence: High|Medium|Low")

	// Input without the tag violates.
	result, err := Evaluate(check, "The sky is blue.")
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !result.Triggered {
		t.Error("Expected missing required pattern to trigger")
	}

	// Input containing the tag passes.
	result, err = Evaluate(check, "The sky is blue.\nConfidence: High")
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if result.Triggered {
		t.Error("Expected present required pattern not to trigger")
	}
}

// TestChecksumForbid tests Luhn detection over digit runs.
func TestChecksumForbid(t *testing.T) {
	check := checksumCheck(t)

	tests := []struct {
		name      string
		text      string
		triggered bool
	}{
		{"valid card with spaces", "card: 4111 1111 1111 1111 ok", true},
		{"valid card with dashes", "4111-1111-1111-1111", true},
		{"valid card contiguous", "4111111111111111", true},
		{"luhn-invalid lookalike", "4111 1111 1111 1112", false},
		{"too short", "4111 1111", false},
		{"too long", "12345678901234567890123", false},
		{"no digits", "no numbers here", false},
		{"valid amex", "3782 822463 10005", true},
		{"phone number", "call 555-0142 now", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evaluate(check, tt.text)
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if result.Triggered != tt.triggered {
				t.Errorf("Triggered = %v, expected %v (evidence: %s)",
					result.Triggered, tt.triggered, result.Evidence)
			}
		})
	}
}

// TestChecksumForbid_EvidenceMasked tests that evidence masks the digit run.
func TestChecksumForbid_EvidenceMasked(t *testing.T) {
	check := checksumCheck(t)

	result, err := Evaluate(check, "4111 1111 1111 1111")
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !result.Triggered {
		t.Fatal("Expected trigger")
	}
	if strings.Contains(result.Evidence, "4111111111111111") {
		t.Error("Evidence contains the full unmasked digit run")
	}
	if !strings.Contains(result.Evidence, "************1111") {
		t.Errorf("Evidence missing masked run, got %q", result.Evidence)
	}
}

// TestNoOp tests that noop never triggers.
func TestNoOp(t *testing.T) {
	check := &ruleset.Check{Kind: ruleset.CheckNoOp}
	result, err := Evaluate(check, "anything at all 4111 1111 1111 1111 password:")
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if result.Triggered {
		t.Error("noop must never trigger")
	}
}

// TestEvaluate_SemanticRejected tests that semantic checks are not evaluated
// through the deterministic path.
func TestEvaluate_SemanticRejected(t *testing.T) {
	check := &ruleset.Check{Kind: ruleset.CheckSemanticForbid}
	if _, err := Evaluate(check, "text"); err == nil {
		t.Error("Expected error for semantic check on deterministic path")
	}
}
