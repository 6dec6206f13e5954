// Package provenance anchors the audit log to an external immutable
// witness.
//
// The Batcher cuts the log into contiguous, non-overlapping batches on a
// count or time trigger, computes a Merkle root over the entry fingerprints
// in each batch and submits the root through an Anchor. Leaf and interior
// hashes use distinct domain prefixes and an odd node is promoted unchanged,
// so no root is forgeable across tree shapes.
//
// The Prover rebuilds inclusion proofs from the live log and checks them
// against the anchored roots; any post-anchor mutation of an entry in a
// batch makes verification fail for that batch's entries.
package provenance
