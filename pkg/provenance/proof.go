package provenance

import (
	"encoding/hex"
	"fmt"
)

// ProofStep is one sibling on the path from a leaf to the root.
type ProofStep struct {
	// Hash is the sibling hash, hex-encoded.
	Hash string `json:"hash"`

	// Left is true when the sibling sits to the left of the running hash.
	Left bool `json:"left"`
}

// Proof is an inclusion proof for one audit entry within a batch. Verify
// needs nothing but the proof itself and the trusted root.
type Proof struct {
	// Seq is the audit sequence number the proof covers.
	Seq uint64 `json:"seq"`

	// LeafFingerprint is the entry fingerprint at the proven position.
	LeafFingerprint string `json:"leaf_fingerprint"`

	// Path lists the siblings from the leaf level up. A promoted odd node
	// contributes no step at that level.
	Path []ProofStep `json:"path"`

	// Root is the batch root the path resolves to.
	Root string `json:"root"`
}

// BuildProof generates the inclusion proof for the leaf at index within the
// ordered fingerprint list. seq is carried through for identification only.
func BuildProof(fingerprints []string, index int, seq uint64) (*Proof, error) {
	if index < 0 || index >= len(fingerprints) {
		return nil, fmt.Errorf("proof index %d out of range [0,%d)", index, len(fingerprints))
	}

	levels, err := buildLevels(fingerprints)
	if err != nil {
		return nil, err
	}

	var path []ProofStep
	pos := index
	for _, level := range levels[:len(levels)-1] {
		sibling := pos ^ 1
		if sibling < len(level) {
			path = append(path, ProofStep{
				Hash: hex.EncodeToString(level[sibling][:]),
				Left: sibling < pos,
			})
		}
		pos /= 2
	}

	root := levels[len(levels)-1][0]
	return &Proof{
		Seq:             seq,
		LeafFingerprint: fingerprints[index],
		Path:            path,
		Root:            hex.EncodeToString(root[:]),
	}, nil
}

// VerifyProof recomputes the root from the proof's leaf and path and checks
// it against the proof's root. It is a pure function; pair it with an
// anchored root to detect tampering.
func VerifyProof(proof *Proof) (bool, error) {
	if proof == nil {
		return false, fmt.Errorf("nil proof")
	}

	running, err := LeafHash(proof.LeafFingerprint)
	if err != nil {
		return false, err
	}

	for _, step := range proof.Path {
		raw, err := hex.DecodeString(step.Hash)
		if err != nil || len(raw) != 32 {
			return false, fmt.Errorf("invalid proof step hash %q", step.Hash)
		}
		var sibling [32]byte
		copy(sibling[:], raw)
		if step.Left {
			running = nodeHash(sibling, running)
		} else {
			running = nodeHash(running, sibling)
		}
	}

	return hex.EncodeToString(running[:]) == proof.Root, nil
}
