package provenance

import "fmt"

// StoreError represents a failure in the provenance store backend.
type StoreError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("provenance store error (%s/%s): %v", e.Backend, e.Operation, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, cause error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// NotBatchedError indicates an audit entry not yet covered by any batch.
type NotBatchedError struct {
	Seq uint64
}

func (e *NotBatchedError) Error() string {
	return fmt.Sprintf("audit entry %d is not covered by any batch yet", e.Seq)
}

// NewNotBatchedError creates a new NotBatchedError.
func NewNotBatchedError(seq uint64) *NotBatchedError {
	return &NotBatchedError{Seq: seq}
}

// AnchorError represents a failure talking to the external anchor.
type AnchorError struct {
	Anchor    string
	Operation string
	Cause     error
}

func (e *AnchorError) Error() string {
	return fmt.Sprintf("anchor error (%s/%s): %v", e.Anchor, e.Operation, e.Cause)
}

func (e *AnchorError) Unwrap() error {
	return e.Cause
}

// NewAnchorError creates a new AnchorError.
func NewAnchorError(anchor, operation string, cause error) *AnchorError {
	return &AnchorError{
		Anchor:    anchor,
		Operation: operation,
		Cause:     cause,
	}
}
