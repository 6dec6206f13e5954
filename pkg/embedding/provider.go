package embedding

import (
	"context"
	"fmt"
	"math"
)

// Provider computes fixed-dimension embedding vectors for text. Embeddings
// are deterministic per provider version; a provider upgrade is a context
// change that may require threshold re-validation.
//
// Implementations must be safe for concurrent use. Callers should wrap a
// shared provider in a Pool to respect its concurrency limits.
type Provider interface {
	// Embed returns the embedding vector for the text.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Warmer is implemented by providers that benefit from a startup preload
// (model loading, connection establishment). Warm is best-effort: a failure
// must not block startup.
type Warmer interface {
	Warm(ctx context.Context) error
}

// CosineSimilarity returns the cosine similarity of two vectors in [-1, 1].
// Mismatched dimensions or zero vectors yield an error rather than a silent
// zero, so threshold comparisons never run on garbage.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude vector")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// MaxSimilarity embeds the text once and returns the maximum cosine
// similarity against the given phrases, along with the closest phrase.
// Phrase embeddings are fetched through the same provider, so a Pool wrapper
// bounds the total concurrency.
func MaxSimilarity(ctx context.Context, provider Provider, text string, phrases []string) (float64, string, error) {
	textVec, err := provider.Embed(ctx, text)
	if err != nil {
		return 0, "", err
	}

	best := math.Inf(-1)
	closest := ""
	for _, phrase := range phrases {
		phraseVec, err := provider.Embed(ctx, phrase)
		if err != nil {
			return 0, "", err
		}
		sim, err := CosineSimilarity(textVec, phraseVec)
		if err != nil {
			return 0, "", err
		}
		if sim > best {
			best = sim
			closest = phrase
		}
	}
	return best, closest, nil
}
