package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// CanonicalEncode returns the deterministic byte encoding of an entry that
// its Fingerprint is computed over: compact JSON with recursively sorted
// keys, timestamps in RFC 3339 UTC with nanoseconds, zero-valued optional
// fields omitted. The Fingerprint field itself is excluded.
func CanonicalEncode(entry *LogEntry) ([]byte, error) {
	doc := map[string]any{
		"seq":                 entry.Seq,
		"id":                  entry.ID,
		"kind":                string(entry.Kind),
		"content_fingerprint": entry.ContentFingerprint,
		"ruleset_fingerprint": entry.RulesetFingerprint,
		"mode":                entry.Mode,
		"pass":                entry.Pass,
		"block_count":         entry.BlockCount,
		"warn_count":          entry.WarnCount,
		"latency_ms":          entry.LatencyMillis,
		"timestamp":           entry.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if entry.Indeterminate {
		doc["indeterminate"] = true
	}
	if len(entry.DirectiveKeys) > 0 {
		doc["directive_keys"] = entry.DirectiveKeys
	}
	if entry.Reason != "" {
		doc["reason"] = entry.Reason
	}
	if entry.RetroOf != 0 {
		doc["retro_of"] = entry.RetroOf
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EntryFingerprint computes the SHA-256 hex digest of the entry's canonical
// encoding.
func EntryFingerprint(entry *LogEntry) (string, error) {
	encoded, err := CanonicalEncode(entry)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// ContentFingerprint computes the SHA-256 hex digest of raw content. It is
// the standard content identity used on log entries and cache keys.
func ContentFingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
