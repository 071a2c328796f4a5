/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error kinds in one place. Every kind is recoverable at the caller
  boundary: the API reports it, nothing here is fatal to the process.

ERROR CATEGORIES:
  1. Validation  - malformed input (month outside 1-12, negative salary)
  2. Not found   - referenced employee/salary/notification absent
  3. State       - already paid / not paid
  4. Uniqueness  - duplicate (employee, date), (employee, month, year), codes
  5. Access      - actor role may not perform the action

USAGE:
  if errors.Is(err, payroll.ErrAlreadyPaid) { ... }

  var nf *payroll.NotFoundError
  if errors.As(err, &nf) { log.Printf("missing %s %s", nf.Kind, nf.ID) }

SEE ALSO:
  - api/handlers.go: maps these kinds to HTTP status codes
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyPaid is returned when paying or editing a paid salary record.
	ErrAlreadyPaid = errors.New("salary already paid")

	// ErrNotPaid is returned when reverting a salary record that is not paid.
	ErrNotPaid = errors.New("salary not paid")

	// ErrDuplicateRecord is returned when a uniqueness constraint is violated.
	ErrDuplicateRecord = errors.New("duplicate record")

	// ErrForbidden is returned when the actor's role does not allow the action.
	ErrForbidden = errors.New("forbidden")

	// ErrDuplicateIdempotencyKey is returned when a ledger entry with the same
	// idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "employee", "salary", "notification"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type AlreadyPaidError struct {
	SalaryID SalaryID
}

func (e *AlreadyPaidError) Error() string {
	return fmt.Sprintf("salary %s is already paid", e.SalaryID)
}

func (e *AlreadyPaidError) Unwrap() error { return ErrAlreadyPaid }

type NotPaidError struct {
	SalaryID SalaryID
}

func (e *NotPaidError) Error() string {
	return fmt.Sprintf("salary %s is not paid", e.SalaryID)
}

func (e *NotPaidError) Unwrap() error { return ErrNotPaid }

// DuplicateRecordError describes which unique key was violated.
type DuplicateRecordError struct {
	Kind string // "employee", "attendance", "salary", "payment", "user_link"
	Key  string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Kind, e.Key)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

type ForbiddenError struct {
	Role   Role
	Action string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("role %q may not %s", e.Role, e.Action)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to caller input or state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAlreadyPaid) ||
		errors.Is(err, ErrNotPaid) ||
		errors.Is(err, ErrDuplicateRecord) ||
		errors.Is(err, ErrDuplicateIdempotencyKey) ||
		errors.Is(err, ErrForbidden)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
