package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
	"sync"
)

// FakeProvider is a deterministic offline provider for tests and local use.
// It hashes word tokens into a fixed-dimension bag-of-words vector, so texts
// sharing vocabulary score high cosine similarity and unrelated texts score
// near zero. The same input always yields the same vector.
type FakeProvider struct {
	// Dimensions is the vector size. Default: 64.
	Dimensions int

	// FailWith, when set, makes every call fail with a ProviderError
	// wrapping this cause. Used to exercise unavailability handling.
	FailWith error

	mu    sync.Mutex
	calls int
}

// NewFakeProvider creates a deterministic fake provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{Dimensions: 64}
}

// Embed returns a deterministic vector for the text.
func (p *FakeProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProviderError("fake", "embed", err)
	}
	if p.FailWith != nil {
		return nil, NewProviderError("fake", "embed", p.FailWith)
	}

	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	dims := p.Dimensions
	if dims <= 0 {
		dims = 64
	}

	vec := make([]float64, dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(token))
		bucket := binary.BigEndian.Uint32(sum[:4]) % uint32(dims)
		sign := 1.0
		if sum[4]%2 == 1 {
			sign = -1.0
		}
		vec[bucket] += sign
	}

	// Normalize so cosine similarity behaves like a real embedding model.
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1 // stable non-zero vector for empty/degenerate input
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

// Warm satisfies Warmer.
func (p *FakeProvider) Warm(ctx context.Context) error {
	_, err := p.Embed(ctx, "warmup")
	return err
}

// Calls returns how many Embed calls succeeded, for test assertions.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
