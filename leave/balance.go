/*
balance.go - The per-employee balance ledger aggregate

PURPOSE:
  Balance is the ledger record for one employee: per-category entitlement,
  accrued, used, and remaining days. It is created once at onboarding,
  mutated by the daily accrual recompute and by debit/credit from the
  request-approval flow, and read by the display layer.

INVARIANTS (hold after every operation):
  1. remaining = max(0, accrued - used) for every category
  2. Annual: accrued is non-decreasing and accrued <= totalEntitled
  3. Every other category: accrued == totalEntitled, always
  4. lastAccrualDate never moves backward; recompute twice on the same
     day is a no-op the second time
  5. A debit never succeeds when days > remaining
  6. At most one of maternity/paternity exists, chosen by gender at
     initialization

MUTATION MODEL:
  Operations on a Balance are plain synchronous state transitions with no
  I/O. Failed operations leave the aggregate untouched. Serialization of
  concurrent callers is the Service's job (see service.go).
*/
package leave

import "github.com/shopspring/decimal"

// =============================================================================
// CATEGORY STATE
// =============================================================================

// CategoryState tracks one leave category within a balance.
type CategoryState struct {
	// TotalEntitled is frozen from the policy at initialization time and
	// never re-read afterwards.
	TotalEntitled decimal.Decimal `json:"totalEntitled"`
	Accrued       decimal.Decimal `json:"accrued"`
	Used          decimal.Decimal `json:"used"`
	Remaining     decimal.Decimal `json:"remaining"`
}

// remainingOf derives the remaining amount, floored at zero.
func remainingOf(accrued, used decimal.Decimal) decimal.Decimal {
	r := accrued.Sub(used)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// =============================================================================
// BALANCE - Ledger aggregate, one per employee
// =============================================================================

type Balance struct {
	EmployeeID      EmployeeID                 `json:"employeeId"`
	EmployeeName    string                     `json:"employeeName"`
	PolicyID        PolicyID                   `json:"policyId"`
	HireDate        Date                       `json:"hireDate"`
	LastAccrualDate Date                       `json:"lastAccrualDate"`
	Categories      map[Category]CategoryState `json:"categories"`

	// Version counts mutations, for optimistic persistence.
	Version int64 `json:"version"`
}

// NewBalance initializes the ledger for a newly onboarded employee.
//
// The annual category starts at its prorated accrued-to-date value; every
// other granted category is granted in full immediately. Exactly one of
// maternity/paternity is granted, by gender; neither when unspecified.
// Returns PolicyNotFoundError when policy is nil - nothing is partially
// constructed.
func NewBalance(employee Employee, policy *Policy, today Date) (*Balance, error) {
	if policy == nil {
		return nil, &PolicyNotFoundError{PolicyID: employee.PolicyID}
	}

	b := &Balance{
		EmployeeID:      employee.ID,
		EmployeeName:    employee.Name,
		PolicyID:        policy.ID,
		HireDate:        employee.HireDate,
		LastAccrualDate: today,
		Categories:      make(map[Category]CategoryState),
	}

	for _, c := range grantedCategories(employee.Gender) {
		entitled := policy.Entitlement(c)

		accrued := entitled
		if c == CategoryAnnual {
			accrued = AccruedAnnual(employee.HireDate, today, entitled)
		}

		b.Categories[c] = CategoryState{
			TotalEntitled: entitled,
			Accrued:       accrued,
			Used:          decimal.Zero,
			Remaining:     remainingOf(accrued, decimal.Zero),
		}
	}

	return b, nil
}

// grantedCategories returns the categories an employee receives.
func grantedCategories(gender Gender) []Category {
	granted := []Category{CategoryAnnual, CategorySick, CategoryPersonal, CategoryStudy}
	switch gender {
	case GenderFemale:
		granted = append(granted, CategoryMaternity)
	case GenderMale:
		granted = append(granted, CategoryPaternity)
	}
	return granted
}

// =============================================================================
// ACCRUAL RECOMPUTE
// =============================================================================

// RecomputeAccrual brings the annual category's accrued value up to date.
// Reports whether the balance changed.
//
// Idempotent: when today equals lastAccrualDate the call is a no-op, so
// the scheduler can run any number of times per day. A today earlier than
// lastAccrualDate (clock skew) is also a no-op - lastAccrualDate never
// moves backward. The accrued value is recomputed from the ORIGINAL hire
// date, not rolled forward from the last recorded value, which is what
// makes catch-up after skipped days exact.
func (b *Balance) RecomputeAccrual(today Date) bool {
	if !b.LastAccrualDate.Before(today) {
		return false
	}

	if st, ok := b.Categories[CategoryAnnual]; ok {
		accrued := AccruedAnnual(b.HireDate, today, st.TotalEntitled)
		// From-hire-date recomputation is monotonic by construction; the
		// guard only matters if an admin adjustment ever raised accrued.
		if accrued.GreaterThan(st.Accrued) {
			st.Accrued = accrued
		}
		st.Remaining = remainingOf(st.Accrued, st.Used)
		b.Categories[CategoryAnnual] = st
	}

	b.LastAccrualDate = today
	b.Version++
	return true
}

// =============================================================================
// DEBIT / CREDIT
// =============================================================================

// Debit records days taken against a category. Fails without mutation
// when days is non-positive, the category was never granted, or days
// exceeds the category's remaining balance.
func (b *Balance) Debit(category Category, days decimal.Decimal) error {
	if !days.IsPositive() {
		return &InvalidAmountError{Days: days}
	}

	st, ok := b.Categories[category]
	if !ok {
		return &UnknownCategoryError{Name: string(category), EmployeeID: b.EmployeeID}
	}

	if days.GreaterThan(st.Remaining) {
		return &InsufficientBalanceError{
			EmployeeID: b.EmployeeID,
			Category:   category,
			Requested:  days,
			Remaining:  st.Remaining,
			Shortfall:  days.Sub(st.Remaining),
		}
	}

	st.Used = st.Used.Add(days)
	st.Remaining = remainingOf(st.Accrued, st.Used)
	b.Categories[category] = st
	b.Version++
	return nil
}

// Credit reverses a previous debit, when an approved request is later
// cancelled. Used is floored at zero so an over-credit can never create
// balance out of thin air.
func (b *Balance) Credit(category Category, days decimal.Decimal) error {
	if !days.IsPositive() {
		return &InvalidAmountError{Days: days}
	}

	st, ok := b.Categories[category]
	if !ok {
		return &UnknownCategoryError{Name: string(category), EmployeeID: b.EmployeeID}
	}

	st.Used = st.Used.Sub(days)
	if st.Used.IsNegative() {
		st.Used = decimal.Zero
	}
	st.Remaining = remainingOf(st.Accrued, st.Used)
	b.Categories[category] = st
	b.Version++
	return nil
}

// =============================================================================
// VALIDATION & COPY
// =============================================================================

// Validate checks the structural invariants of a stored balance. Stores
// use it when decoding: a violation means the record is corrupt.
func (b *Balance) Validate() error {
	if b.EmployeeID == "" {
		return &CorruptRecordError{EmployeeID: b.EmployeeID, Err: errMissingEmployeeID}
	}
	if b.Categories == nil {
		return &CorruptRecordError{EmployeeID: b.EmployeeID, Err: errMissingCategories}
	}

	hasMaternity := false
	hasPaternity := false
	for c, st := range b.Categories {
		if !c.IsValid() {
			return &CorruptRecordError{EmployeeID: b.EmployeeID, Err: &UnknownCategoryError{Name: string(c)}}
		}
		if st.TotalEntitled.IsNegative() || st.Accrued.IsNegative() || st.Used.IsNegative() || st.Remaining.IsNegative() {
			return &CorruptRecordError{EmployeeID: b.EmployeeID, Err: errNegativeAmounts}
		}
		if c == CategoryMaternity {
			hasMaternity = true
		}
		if c == CategoryPaternity {
			hasPaternity = true
		}
	}
	if hasMaternity && hasPaternity {
		return &CorruptRecordError{EmployeeID: b.EmployeeID, Err: errBothParental}
	}
	return nil
}

var (
	errMissingEmployeeID = plainError("missing employee id")
	errMissingCategories = plainError("missing category map")
	errNegativeAmounts   = plainError("negative category amounts")
	errBothParental      = plainError("both maternity and paternity granted")
)

type plainError string

func (e plainError) Error() string { return string(e) }

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state without going through Save.
func (b *Balance) Clone() *Balance {
	if b == nil {
		return nil
	}
	clone := *b
	clone.Categories = make(map[Category]CategoryState, len(b.Categories))
	for c, st := range b.Categories {
		clone.Categories[c] = st
	}
	return &clone
}

// Equal reports whether two balances are identical, category for
// category. Used by tests to assert recompute idempotency.
func (b *Balance) Equal(other *Balance) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.EmployeeID != other.EmployeeID ||
		b.EmployeeName != other.EmployeeName ||
		b.PolicyID != other.PolicyID ||
		!b.HireDate.Equal(other.HireDate) ||
		!b.LastAccrualDate.Equal(other.LastAccrualDate) ||
		len(b.Categories) != len(other.Categories) {
		return false
	}
	for c, st := range b.Categories {
		ost, ok := other.Categories[c]
		if !ok {
			return false
		}
		if !st.TotalEntitled.Equal(ost.TotalEntitled) ||
			!st.Accrued.Equal(ost.Accrued) ||
			!st.Used.Equal(ost.Used) ||
			!st.Remaining.Equal(ost.Remaining) {
			return false
		}
	}
	return true
}
