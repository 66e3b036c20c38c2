/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All engine errors in one place. Every failure is an explicit result
  value; nothing in this engine panics or uses errors for control flow.

ERROR CATEGORIES:
  1. Initialization errors - missing policy, duplicate ledger
  2. Debit/credit errors   - unknown category, invalid amount, shortage
  3. Storage errors        - missing or undecodable ledger records

USAGE:
  Callers match with errors.Is against the sentinels, or errors.As
  against the structured types for details:

    var insufficient *leave.InsufficientBalanceError
    if errors.As(err, &insufficient) {
        // insufficient.Remaining is the amount still available
    }
*/
package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrPolicyNotFound is returned when initialization cannot resolve the
	// employee's leave policy.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrUnknownCategory is returned when a debit/credit references a
	// category outside the fixed enumeration, or one the employee was
	// never granted.
	ErrUnknownCategory = errors.New("unknown leave category")

	// ErrInsufficientBalance is returned when a debit requests more days
	// than remain in the category.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when a debit/credit is called with a
	// non-positive day count.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrCorruptRecord is returned when a stored balance fails to
	// deserialize into the expected shape.
	ErrCorruptRecord = errors.New("corrupt balance record")

	// ErrBalanceNotFound is returned when no ledger exists for an employee.
	ErrBalanceNotFound = errors.New("balance not found")

	// ErrBalanceExists is returned when initializing an employee that
	// already has a ledger. A balance is created exactly once, at hire.
	ErrBalanceExists = errors.New("balance already initialized")

	// ErrVersionConflict is returned when a save carries a version no
	// newer than the stored row. The writer read a snapshot that another
	// writer has since superseded; retrying from a fresh read is safe.
	ErrVersionConflict = errors.New("stale balance write")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PolicyNotFoundError identifies which policy reference failed to resolve.
type PolicyNotFoundError struct {
	PolicyID PolicyID
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("policy not found: %s", e.PolicyID)
}

func (e *PolicyNotFoundError) Unwrap() error { return ErrPolicyNotFound }

// UnknownCategoryError reports a category name outside the enumeration,
// or a granted-category miss for one employee.
type UnknownCategoryError struct {
	Name       string
	EmployeeID EmployeeID // empty when the name itself failed to parse
}

func (e *UnknownCategoryError) Error() string {
	if e.EmployeeID != "" {
		return fmt.Sprintf("unknown leave category %q for employee %s", e.Name, e.EmployeeID)
	}
	return fmt.Sprintf("unknown leave category %q", e.Name)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }

// InsufficientBalanceError provides details about a balance shortage. The
// approval workflow surfaces Remaining to the requester.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Category   Category
	Requested  decimal.Decimal
	Remaining  decimal.Decimal
	Shortfall  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: requested %s, remaining %s (short %s)",
		e.Category.Label(), e.Requested, e.Remaining, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidAmountError reports a non-positive day count.
type InvalidAmountError struct {
	Days decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount: %s days (must be positive)", e.Days)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// CorruptRecordError identifies a stored balance that failed to decode.
// The scheduler logs these and continues with the rest of the roster.
type CorruptRecordError struct {
	EmployeeID EmployeeID
	Err        error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt balance record for employee %s: %v", e.EmployeeID, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return ErrCorruptRecord }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an engine/storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrBalanceExists)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrBalanceNotFound)
}
