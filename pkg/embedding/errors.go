package embedding

import "fmt"

// ProviderError indicates the embedding provider was unreachable or returned
// an unusable response. Deterministic checks still execute when this occurs;
// semantic-check handling depends on the evaluation mode.
type ProviderError struct {
	Provider  string // provider name ("http", "fake", ...)
	Operation string // operation that failed ("embed", "warm")
	Cause     error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider error [provider=%s, operation=%s]: %v", e.Provider, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, operation string, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Operation: operation, Cause: cause}
}
