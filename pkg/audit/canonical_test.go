package audit

import (
	"strings"
	"testing"
	"time"
)

func sampleEntry() *LogEntry {
	return &LogEntry{
		Seq:                7,
		ID:                 "0c8a7b9e-0000-4000-8000-000000000000",
		Kind:               KindEvaluation,
		ContentFingerprint: ContentFingerprint("Subject: test"),
		RulesetFingerprint: "abc123",
		Mode:               "strict",
		Pass:               false,
		BlockCount:         1,
		DirectiveKeys:      []string{"1"},
		LatencyMillis:      12,
		Timestamp:          time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC),
	}
}

// TestCanonicalEncode_Deterministic tests repeated encoding stability.
func TestCanonicalEncode_Deterministic(t *testing.T) {
	first, err := CanonicalEncode(sampleEntry())
	if err != nil {
		t.Fatalf("CanonicalEncode() failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := CanonicalEncode(sampleEntry())
		if err != nil {
			t.Fatalf("CanonicalEncode() failed: %v", err)
		}
		if string(again) != string(first) {
			t.Fatalf("Encoding differs on iteration %d:\n  %s\n  %s", i, first, again)
		}
	}
}

// TestCanonicalEncode_SortedKeysCompact tests the encoding shape.
func TestCanonicalEncode_SortedKeysCompact(t *testing.T) {
	encoded, err := CanonicalEncode(sampleEntry())
	if err != nil {
		t.Fatalf("CanonicalEncode() failed: %v", err)
	}

	s := string(encoded)
	if strings.Contains(s, "\n") || strings.Contains(s, ": ") {
		t.Errorf("Expected compact encoding, got %s", s)
	}

	// json.Marshal sorts map keys, so block_count must precede seq.
	if strings.Index(s, `"block_count"`) > strings.Index(s, `"seq"`) {
		t.Errorf("Expected sorted keys, got %s", s)
	}

	// Omitted zero-valued optionals.
	if strings.Contains(s, "retro_of") || strings.Contains(s, "indeterminate") {
		t.Errorf("Expected zero-valued optional fields omitted, got %s", s)
	}
}

// TestEntryFingerprint_ChangesOnMutation tests tamper sensitivity.
func TestEntryFingerprint_ChangesOnMutation(t *testing.T) {
	base, err := EntryFingerprint(sampleEntry())
	if err != nil {
		t.Fatalf("EntryFingerprint() failed: %v", err)
	}

	mutations := map[string]func(*LogEntry){
		"seq":     func(e *LogEntry) { e.Seq = 8 },
		"pass":    func(e *LogEntry) { e.Pass = true },
		"mode":    func(e *LogEntry) { e.Mode = "regex_only" },
		"content": func(e *LogEntry) { e.ContentFingerprint = "deadbeef" },
		"time":    func(e *LogEntry) { e.Timestamp = e.Timestamp.Add(time.Nanosecond) },
	}
	for name, mutate := range mutations {
		entry := sampleEntry()
		mutate(entry)
		fp, err := EntryFingerprint(entry)
		if err != nil {
			t.Fatalf("EntryFingerprint() failed for %s: %v", name, err)
		}
		if fp == base {
			t.Errorf("Mutating %s did not change the fingerprint", name)
		}
	}
}

// TestEntryFingerprint_ExcludesSelf tests that the stored fingerprint does
// not feed back into its own computation.
func TestEntryFingerprint_ExcludesSelf(t *testing.T) {
	entry := sampleEntry()
	fp1, _ := EntryFingerprint(entry)
	entry.Fingerprint = fp1
	fp2, _ := EntryFingerprint(entry)
	if fp1 != fp2 {
		t.Error("Fingerprint must be computed over all fields except itself")
	}
}
