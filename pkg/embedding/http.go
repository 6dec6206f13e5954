package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPConfig configures the HTTP embedding provider.
type HTTPConfig struct {
	// BaseURL is the provider endpoint, e.g. "https://api.example.com/v1".
	// The client POSTs to BaseURL + "/embeddings".
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model is the embedding model identifier.
	Model string

	// Timeout is the per-request timeout. Default: 10 seconds.
	Timeout time.Duration
}

// Validate checks the HTTP provider configuration.
func (c *HTTPConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("embedding base URL cannot be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("embedding model cannot be empty")
	}
	return nil
}

// HTTPProvider calls an OpenAI-compatible embeddings endpoint.
type HTTPProvider struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// embeddingRequest is the wire format for embedding requests.
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingResponse is the wire format for embedding responses.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// NewHTTPProvider creates an HTTP embedding provider.
func NewHTTPProvider(config HTTPConfig, logger *slog.Logger) (*HTTPProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding config: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With("component", "embedding.http"),
	}, nil
}

// Embed returns the embedding vector for the text.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: p.config.Model, Input: text})
	if err != nil {
		return nil, NewProviderError("http", "embed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError("http", "embed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, NewProviderError("http", "embed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded slice of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, NewProviderError("http", "embed",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet))
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, NewProviderError("http", "embed", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, NewProviderError("http", "embed", fmt.Errorf("response contains no embedding"))
	}

	p.logger.Debug("embedding computed",
		"model", p.config.Model,
		"dimensions", len(parsed.Data[0].Embedding),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return parsed.Data[0].Embedding, nil
}

// Warm issues a no-op embedding call so the first real request does not pay
// connection and model warm-up latency. Failure is returned for logging but
// must not block startup.
func (p *HTTPProvider) Warm(ctx context.Context) error {
	if _, err := p.Embed(ctx, "warmup"); err != nil {
		return NewProviderError("http", "warm", err)
	}
	return nil
}
