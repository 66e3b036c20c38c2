/*
Package leave implements the leave accrual and balance ledger engine.

PURPOSE:
  This package contains the core types and algorithms for tracking employee
  leave: working-day calendar math, prorated annual-leave accrual, and a
  per-employee balance ledger with debit/credit operations driven by the
  leave-request approval flow.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: A roster record (hire date, status, policy reference, gender)
  - Policy: The per-client entitlement table (days per leave category)
  - EmployeeID/PolicyID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Determinism: "today" is always an explicit parameter, never an ambient
     clock read inside a calculation
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Idempotency: Accrual is always recomputed from the hire date, so any
     number of catch-up runs converges to the same state

SEE ALSO:
  - calendar.go: Working-day counting with the public-holiday table
  - accrual.go: Prorated annual-leave calculation
  - balance.go: The per-employee balance aggregate
  - scheduler.go: Daily catch-up recomputation
*/
package leave

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type PolicyID string

// =============================================================================
// EMPLOYEE - Roster record (read-only for this engine)
// =============================================================================

type EmploymentStatus string

const (
	StatusActive   EmploymentStatus = "active"
	StatusInactive EmploymentStatus = "inactive"
)

// Gender decides which parental leave category an employee is granted.
// The engine grants maternity leave for female employees, paternity leave
// for male employees, and neither when unspecified. Never both.
type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderUnspecified Gender = ""
)

// ParseGender normalizes a free-form gender string from the roster.
// Anything other than female/male maps to unspecified.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "female", "f":
		return GenderFemale
	case "male", "m":
		return GenderMale
	default:
		return GenderUnspecified
	}
}

// Employee is the roster record the engine reads. The roster itself is owned
// by the HR application; the engine never mutates employees.
type Employee struct {
	ID       EmployeeID
	Name     string
	HireDate Date
	Status   EmploymentStatus
	PolicyID PolicyID
	Gender   Gender
}

// IsActive reports whether the employee should be picked up by the
// daily accrual scheduler.
func (e Employee) IsActive() bool {
	return e.Status == StatusActive
}

// =============================================================================
// POLICY - Per-client entitlement table
// =============================================================================

// Policy is the leave entitlement table for one client. The engine only
// reads policies; administrative edits happen outside the engine. Entitled
// amounts are frozen into the balance at initialization time and never
// re-read on recompute.
type Policy struct {
	ID           PolicyID
	Name         string
	Entitlements map[Category]decimal.Decimal
}

// Entitlement returns the entitled days for a category, zero when the
// policy does not cover it.
func (p *Policy) Entitlement(c Category) decimal.Decimal {
	if p == nil || p.Entitlements == nil {
		return decimal.Zero
	}
	if d, ok := p.Entitlements[c]; ok {
		return d
	}
	return decimal.Zero
}

// NewPolicy builds a policy from per-category day counts.
func NewPolicy(id PolicyID, name string, days map[Category]float64) *Policy {
	entitlements := make(map[Category]decimal.Decimal, len(days))
	for c, d := range days {
		entitlements[c] = decimal.NewFromFloat(d)
	}
	return &Policy{ID: id, Name: name, Entitlements: entitlements}
}
