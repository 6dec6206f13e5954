package runtime

import (
	"testing"
	"time"

	"sentra-hq/warden/pkg/engine"
)

func passVerdict() *engine.Verdict {
	return &engine.Verdict{Pass: true}
}

// TestCache_HitAndKeying tests that all three key components separate
// entries.
func TestCache_HitAndKeying(t *testing.T) {
	c := NewVerdictCache(time.Minute, 100)
	c.Put("content-a", "rs-1", engine.ModeStrict, passVerdict())

	if _, ok := c.Get("content-a", "rs-1", engine.ModeStrict); !ok {
		t.Error("Expected hit for identical key")
	}
	if _, ok := c.Get("content-b", "rs-1", engine.ModeStrict); ok {
		t.Error("Different content must miss")
	}
	if _, ok := c.Get("content-a", "rs-2", engine.ModeStrict); ok {
		t.Error("Different ruleset fingerprint must miss")
	}
	if _, ok := c.Get("content-a", "rs-1", engine.ModeRegexOnly); ok {
		t.Error("Different mode must miss")
	}
}

// TestCache_TTLExpiry tests that expired entries read as misses.
func TestCache_TTLExpiry(t *testing.T) {
	c := NewVerdictCache(time.Minute, 100)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("content", "rs", engine.ModeStrict, passVerdict())

	now = now.Add(59 * time.Second)
	if _, ok := c.Get("content", "rs", engine.ModeStrict); !ok {
		t.Error("Entry expired before its TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("content", "rs", engine.ModeStrict); ok {
		t.Error("Entry survived past its TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Expired entry not removed, len=%d", c.Len())
	}
}

// TestCache_ReturnsCopies tests verdict isolation.
func TestCache_ReturnsCopies(t *testing.T) {
	c := NewVerdictCache(time.Minute, 100)
	verdict := &engine.Verdict{Pass: false, Violations: []engine.Violation{{DirectiveKey: "1"}}}
	c.Put("content", "rs", engine.ModeStrict, verdict)

	got, _ := c.Get("content", "rs", engine.ModeStrict)
	got.Violations[0].DirectiveKey = "tampered"

	again, _ := c.Get("content", "rs", engine.ModeStrict)
	if again.Violations[0].DirectiveKey != "1" {
		t.Error("Cached verdict was mutated through a returned copy")
	}
}

// TestCache_InvalidateRuleset tests swap-driven invalidation.
func TestCache_InvalidateRuleset(t *testing.T) {
	c := NewVerdictCache(time.Minute, 100)
	c.Put("a", "rs-old", engine.ModeStrict, passVerdict())
	c.Put("b", "rs-old", engine.ModeStrict, passVerdict())
	c.Put("c", "rs-new", engine.ModeStrict, passVerdict())

	c.InvalidateRuleset("rs-old")

	if c.Len() != 1 {
		t.Errorf("Expected 1 surviving entry, got %d", c.Len())
	}
	if _, ok := c.Get("c", "rs-new", engine.ModeStrict); !ok {
		t.Error("Entry under the new ruleset must survive invalidation")
	}
}

// TestCache_BoundedSize tests the entry cap.
func TestCache_BoundedSize(t *testing.T) {
	c := NewVerdictCache(time.Minute, 3)
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		c.Put(key, "rs", engine.ModeStrict, passVerdict())
	}
	if c.Len() > 3 {
		t.Errorf("Cache exceeded its bound: len=%d", c.Len())
	}
}
