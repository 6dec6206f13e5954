package provenance

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// FakeAnchor is a deterministic in-memory anchor for tests and offline
// deployments. Receipts are derived from (batchID, root), so repeated
// submissions are idempotent.
type FakeAnchor struct {
	mu        sync.Mutex
	submitted map[string]string
	FailWith  error
}

// NewFakeAnchor creates an empty fake anchor.
func NewFakeAnchor() *FakeAnchor {
	return &FakeAnchor{submitted: make(map[string]string)}
}

// Submit records the root and returns a deterministic receipt reference.
func (f *FakeAnchor) Submit(ctx context.Context, batchID, root string) (string, error) {
	if f.FailWith != nil {
		return "", NewAnchorError("fake", "submit", f.FailWith)
	}

	sum := sha256.Sum256([]byte(batchID + ":" + root))
	ref := "fake:" + hex.EncodeToString(sum[:8])

	f.mu.Lock()
	f.submitted[ref] = root
	f.mu.Unlock()
	return ref, nil
}

// Confirm reports settled for every receipt Submit issued.
func (f *FakeAnchor) Confirm(ctx context.Context, receiptRef string) (bool, error) {
	if f.FailWith != nil {
		return false, NewAnchorError("fake", "confirm", f.FailWith)
	}

	f.mu.Lock()
	_, ok := f.submitted[receiptRef]
	f.mu.Unlock()
	return ok, nil
}

// Submissions returns the number of distinct receipts issued.
func (f *FakeAnchor) Submissions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

// HTTPAnchorConfig contains configuration for the HTTP anchor adapter.
type HTTPAnchorConfig struct {
	// BaseURL is the anchor service endpoint.
	BaseURL string

	// APIKey is the bearer token, empty for unauthenticated services.
	APIKey string

	// Timeout bounds each HTTP attempt.
	// Default: 15 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff, doubled per retry.
	// Default: 500ms
	RetryBackoff time.Duration
}

// Validate checks the configuration.
func (c *HTTPAnchorConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("anchor base URL is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("anchor max retries must be >= 0")
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	return nil
}

// HTTPAnchor publishes roots to an external witness over HTTP. Submissions
// carry the batch ID as an idempotency key so retries never double-anchor.
type HTTPAnchor struct {
	config *HTTPAnchorConfig
	client *http.Client
}

// NewHTTPAnchor creates an HTTP anchor adapter.
func NewHTTPAnchor(config *HTTPAnchorConfig) (*HTTPAnchor, error) {
	if config == nil {
		return nil, fmt.Errorf("anchor config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &HTTPAnchor{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

type submitRequest struct {
	BatchID string `json:"batch_id"`
	Root    string `json:"root"`
}

type submitResponse struct {
	ReceiptRef string `json:"receipt_ref"`
}

type confirmResponse struct {
	Confirmed bool `json:"confirmed"`
}

// Submit publishes a root, retrying with exponential backoff on transient
// failures.
func (a *HTTPAnchor) Submit(ctx context.Context, batchID, root string) (string, error) {
	body, err := json.Marshal(submitRequest{BatchID: batchID, Root: root})
	if err != nil {
		return "", NewAnchorError("http", "submit", err)
	}

	var lastErr error
	backoff := a.config.RetryBackoff
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", NewAnchorError("http", "submit", ctx.Err())
			}
			backoff *= 2
		}

		ref, retryable, err := a.submitOnce(ctx, batchID, body)
		if err == nil {
			return ref, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", NewAnchorError("http", "submit", lastErr)
}

func (a *HTTPAnchor) submitOnce(ctx context.Context, batchID string, body []byte) (ref string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/anchors", bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", batchID)
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return "", true, fmt.Errorf("anchor service returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", false, fmt.Errorf("anchor service returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("decode anchor response: %w", err)
	}
	if parsed.ReceiptRef == "" {
		return "", false, fmt.Errorf("anchor response missing receipt_ref")
	}
	return parsed.ReceiptRef, false, nil
}

// Confirm asks the witness whether a submitted root has settled.
func (a *HTTPAnchor) Confirm(ctx context.Context, receiptRef string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.config.BaseURL+"/anchors/"+receiptRef, nil)
	if err != nil {
		return false, NewAnchorError("http", "confirm", err)
	}
	if a.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return false, NewAnchorError("http", "confirm", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, NewAnchorError("http", "confirm",
			fmt.Errorf("anchor service returned %d", resp.StatusCode))
	}

	var parsed confirmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, NewAnchorError("http", "confirm", err)
	}
	return parsed.Confirmed, nil
}
