package embedding

import (
	"context"
	"log/slog"
)

// Pool wraps a shared Provider with a concurrency limit. The provider is a
// shared, concurrency-limited resource: callers funnel through the pool
// instead of assuming unbounded parallelism, and block (honoring their
// context) until a slot frees up.
type Pool struct {
	provider Provider
	slots    chan struct{}
	logger   *slog.Logger
}

// NewPool creates a pool limiting concurrent provider calls. A limit of zero
// or less defaults to 4.
func NewPool(provider Provider, limit int, logger *slog.Logger) *Pool {
	if limit <= 0 {
		limit = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		provider: provider,
		slots:    make(chan struct{}, limit),
		logger:   logger.With("component", "embedding.pool"),
	}
}

// Embed acquires a slot (blocking until one is available or the context is
// done) and delegates to the wrapped provider.
func (p *Pool) Embed(ctx context.Context, text string) ([]float64, error) {
	select {
	case p.slots <- struct{}{}:
		defer func() { <-p.slots }()
	case <-ctx.Done():
		return nil, NewProviderError("pool", "embed", ctx.Err())
	}
	return p.provider.Embed(ctx, text)
}

// Warm delegates to the wrapped provider when it supports warming.
// Warm-up is best-effort; errors are logged by the caller, never fatal.
func (p *Pool) Warm(ctx context.Context) error {
	warmer, ok := p.provider.(Warmer)
	if !ok {
		return nil
	}
	return warmer.Warm(ctx)
}

// InFlight returns the number of provider calls currently holding a slot.
func (p *Pool) InFlight() int {
	return len(p.slots)
}
