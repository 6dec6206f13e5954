package audit

import "fmt"

// StorageError represents a failure in the audit storage backend.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage error (%s/%s): %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// NotFoundError indicates a sequence number absent from the log.
type NotFoundError struct {
	Seq uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("audit entry %d not found", e.Seq)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(seq uint64) *NotFoundError {
	return &NotFoundError{Seq: seq}
}
