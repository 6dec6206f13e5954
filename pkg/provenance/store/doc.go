// Package store provides batch and receipt persistence for provenance
// anchoring. MemoryStore serves tests; SQLiteStore persists batches so
// restart never re-anchors or skips a range.
package store
