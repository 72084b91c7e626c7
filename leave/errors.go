/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Each kind has a sentinel for errors.Is() checks, and most have a
  structured type carrying the parameters a caller needs to render a
  useful message.

ERROR KINDS:
  UnknownEmployee, UnknownCategory, InvalidQuantity, InvalidDate,
  InsufficientBalance, OverlappingLeave, NoMatchingLeave,
  PersistenceFailure

PROPAGATION:
  Validation errors are returned synchronously by the operation that hit
  them; nothing is swallowed. PersistenceFailure is the one special case:
  the in-memory commit stands and the error is reported alongside the
  confirmation (see engine.go).

SEE ALSO:
  - engine.go: Produces these errors in a contractual order
  - api/handlers.go: Maps kinds to HTTP status codes
*/
package leave

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownEmployee is returned when the employee key is absent.
	ErrUnknownEmployee = errors.New("unknown employee")

	// ErrUnknownCategory is returned when a leave category is not in the
	// closed catalog.
	ErrUnknownCategory = errors.New("unknown leave category")

	// ErrInvalidQuantity is returned when a day count is zero, negative,
	// or not a whole number.
	ErrInvalidQuantity = errors.New("invalid day quantity")

	// ErrInvalidDate is returned when no accepted date format matches.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInsufficientBalance is returned when a request exceeds the
	// remaining balance for its category.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOverlappingLeave is returned when a candidate range intersects an
	// approved record, regardless of category.
	ErrOverlappingLeave = errors.New("overlapping leave")

	// ErrNoMatchingLeave is returned when cancellation finds no approved
	// record for the given category and start date.
	ErrNoMatchingLeave = errors.New("no matching leave")

	// ErrPersistenceFailure is returned when the persistence port fails.
	// The in-memory mutation is NOT rolled back.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownEmployeeError reports an absent employee key.
type UnknownEmployeeError struct {
	Employee string
}

func (e *UnknownEmployeeError) Error() string {
	return fmt.Sprintf("employee %s not found", e.Employee)
}

func (e *UnknownEmployeeError) Unwrap() error { return ErrUnknownEmployee }

// UnknownCategoryError reports a category outside the closed catalog.
type UnknownCategoryError struct {
	Category  Category
	Available []Category
}

func (e *UnknownCategoryError) Error() string {
	names := make([]string, len(e.Available))
	for i, c := range e.Available {
		names[i] = string(c)
	}
	return fmt.Sprintf("invalid leave type %q, available types are: %s",
		e.Category, strings.Join(names, ", "))
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// InvalidQuantityError reports a rejected day count.
type InvalidQuantityError struct {
	Given string // the value as received, before integer conversion
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("number of days must be a positive whole number, got %s", e.Given)
}

func (e *InvalidQuantityError) Unwrap() error { return ErrInvalidQuantity }

// InvalidDateError reports an unparseable date along with the accepted
// formats, so the caller can show the user what would have worked.
type InvalidDateError struct {
	Input    string
	Accepted []string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q, accepted formats: %s (or %q)",
		e.Input, strings.Join(e.Accepted, ", "), KeywordToday)
}

func (e *InvalidDateError) Unwrap() error { return ErrInvalidDate }

// InsufficientBalanceError reports a balance shortage, including the amount
// still available so the message can suggest a smaller request.
type InsufficientBalanceError struct {
	Employee  string
	Category  Category
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: %d days available, %d requested",
		e.Category, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// OverlappingLeaveError reports a date-range conflict with an approved
// record. Conflict detection is cross-category: a sick leave and an annual
// leave for the same employee may not overlap either.
type OverlappingLeaveError struct {
	Employee string
	Conflict *Record
}

func (e *OverlappingLeaveError) Error() string {
	return fmt.Sprintf("requested range overlaps approved %s from %s to %s",
		e.Conflict.Category, e.Conflict.Start, e.Conflict.End())
}

func (e *OverlappingLeaveError) Unwrap() error { return ErrOverlappingLeave }

// NoMatchingLeaveError reports a failed cancellation, carrying the
// currently-approved records for diagnostics.
type NoMatchingLeaveError struct {
	Employee string
	Category Category
	Start    Date
	Approved []*Record
}

func (e *NoMatchingLeaveError) Error() string {
	if len(e.Approved) == 0 {
		return fmt.Sprintf("no approved %s starting %s to cancel; no approved leave on record",
			e.Category, e.Start)
	}
	var ranges []string
	for _, r := range e.Approved {
		ranges = append(ranges, fmt.Sprintf("%s %s..%s", r.Category, r.Start, r.End()))
	}
	return fmt.Sprintf("no approved %s starting %s to cancel; currently approved: %s",
		e.Category, e.Start, strings.Join(ranges, "; "))
}

func (e *NoMatchingLeaveError) Unwrap() error { return ErrNoMatchingLeave }

// PersistenceError wraps a failure from the persistence port. The ledger's
// authoritative state is the in-memory state at the moment of commit;
// persistence is a best-effort mirror and this error reports the gap.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist after %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistenceFailure }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrOverlappingLeave) ||
		errors.Is(err, ErrNoMatchingLeave)
}

// IsNotFound returns true if the error indicates a missing employee.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownEmployee)
}
