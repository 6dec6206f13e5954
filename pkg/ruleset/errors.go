package ruleset

import "fmt"

// SchemaError indicates a malformed ruleset: missing or malformed fields,
// duplicate (id, sub) keys, or an unknown check kind in strict mode.
// Schema errors are fatal at load time; a controller refuses to serve
// evaluations without a valid ruleset.
type SchemaError struct {
	Field   string // offending field or directive key, if known
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("ruleset schema error [%s]: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("ruleset schema error: %s", e.Message)
}

// Unwrap returns the underlying cause error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(field, message string, cause error) *SchemaError {
	return &SchemaError{Field: field, Message: message, Cause: cause}
}

// IntegrityError indicates that the loaded ruleset's fingerprint does not
// match the known-good reference fingerprint. The default posture is
// fail-closed: evaluations are refused until a matching ruleset is loaded.
type IntegrityError struct {
	Local     string // fingerprint of the loaded ruleset
	Reference string // expected fingerprint
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("ruleset integrity error: fingerprint %s does not match reference %s", e.Local, e.Reference)
}

// NewIntegrityError creates a new IntegrityError.
func NewIntegrityError(local, reference string) *IntegrityError {
	return &IntegrityError{Local: local, Reference: reference}
}
