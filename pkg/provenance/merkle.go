package provenance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain-separation prefixes. Leaf and interior hashes use distinct prefixes
// so an interior node can never be replayed as a leaf (second-preimage
// protection).
const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// LeafHash hashes a leaf value (an audit entry fingerprint, hex-encoded)
// into the tree's leaf domain.
func LeafHash(fingerprint string) ([32]byte, error) {
	raw, err := hex.DecodeString(fingerprint)
	if err != nil {
		return [32]byte{}, fmt.Errorf("invalid leaf fingerprint %q: %w", fingerprint, err)
	}
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(raw)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// nodeHash combines two child hashes into a parent in the interior domain.
func nodeHash(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(left[:])
	h.Write(right[:])
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// MerkleRoot computes the root over an ordered, non-empty list of leaf
// fingerprints. An odd node at any level is promoted to the next level
// unchanged, never duplicated, so the root of N leaves is never forgeable as
// the root of N+1.
func MerkleRoot(fingerprints []string) (string, error) {
	levels, err := buildLevels(fingerprints)
	if err != nil {
		return "", err
	}
	root := levels[len(levels)-1][0]
	return hex.EncodeToString(root[:]), nil
}

// buildLevels computes every tree level from the leaves up. levels[0] holds
// the leaf hashes; the last level holds the single root.
func buildLevels(fingerprints []string) ([][][32]byte, error) {
	if len(fingerprints) == 0 {
		return nil, fmt.Errorf("merkle tree requires at least one leaf")
	}

	level := make([][32]byte, len(fingerprints))
	for i, fp := range fingerprints {
		h, err := LeafHash(fp)
		if err != nil {
			return nil, err
		}
		level[i] = h
	}

	levels := [][][32]byte{level}
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, nodeHash(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
		level = next
	}
	return levels, nil
}
