/*
errors.go - Centralized error types for the drift service

PURPOSE:
  All error types in one place for consistency and discoverability.
  The reconciliation engine itself never fails; these errors belong to the
  collaborators around it (acquisition, storage, request parsing).

ERROR CATEGORIES:
  1. Acquisition errors - the two input collections could not be obtained
  2. Validation errors  - caller supplied an unusable parameter
  3. Lookup errors      - a referenced account or run does not exist

SEE ALSO:
  - source/: wraps acquisition failures
  - api/handlers.go: maps errors to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSourceUnavailable is returned when either input collection cannot be
	// obtained. Callers surface it as the "data unavailable" state.
	ErrSourceUnavailable = errors.New("ledger data unavailable")

	// ErrInvalidDocument is returned when a document is not an array of objects.
	ErrInvalidDocument = errors.New("invalid ledger document")

	// ErrInvalidStatusFilter is returned for an unknown status filter value.
	ErrInvalidStatusFilter = errors.New("invalid status filter")

	// ErrAccountNotFound is returned when a requested account is not in the
	// reconciled set.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRunNotFound is returned when a recorded reconciliation run is missing.
	ErrRunNotFound = errors.New("reconciliation run not found")

	// ErrImportUnsupported is returned when the configured source is read-only.
	ErrImportUnsupported = errors.New("source does not support imports")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DocumentError reports which document failed structural validation.
type DocumentError struct {
	Source string // file path or URL
	Err    error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("invalid ledger document %s: %v", e.Source, e.Err)
}

func (e *DocumentError) Unwrap() []error {
	return []error{ErrInvalidDocument, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidStatusFilter) ||
		errors.Is(err, ErrInvalidDocument)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrRunNotFound)
}
