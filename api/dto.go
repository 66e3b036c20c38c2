/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Day counts cross the wire as JSON strings ("12.5") via decimal.Decimal,
  never as floats. The engine's two-decimal precision survives the trip.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/projection.go: The Summary the balance endpoint wraps
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/rightseat/leave-engine/leave"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HireDate string `json:"hireDate"`
	Status   string `json:"status"`
	PolicyID string `json:"policyId"`
	Gender   string `json:"gender,omitempty"`
}

// OnboardEmployeeRequest is the request to onboard an employee and
// initialize their leave ledger in one step.
type OnboardEmployeeRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HireDate string `json:"hireDate"`
	PolicyID string `json:"policyId"`
	Gender   string `json:"gender,omitempty"`
}

// OnboardEmployeeResponse returns the created employee with the
// initialized balance.
type OnboardEmployeeResponse struct {
	Employee EmployeeDTO   `json:"employee"`
	Balance  leave.Summary `json:"balance"`
}

// LedgerEntryRequest is the body for debit and credit operations.
type LedgerEntryRequest struct {
	Category string          `json:"category"`
	Days     decimal.Decimal `json:"days"`
}

// PolicyDTO represents a leave policy in API responses.
type PolicyDTO struct {
	ID           string                              `json:"id"`
	Name         string                              `json:"name"`
	Entitlements map[leave.Category]decimal.Decimal `json:"entitlements"`
}

// CreatePolicyRequest is the request to create a policy.
type CreatePolicyRequest struct {
	ID           string                              `json:"id"`
	Name         string                              `json:"name"`
	Entitlements map[leave.Category]decimal.Decimal `json:"entitlements"`
}

// HolidayDTO is one public holiday for a requested year.
type HolidayDTO struct {
	Date string `json:"date"`
}

// AccrualStatusDTO reports the scheduler's view for the admin surface.
type AccrualStatusDTO struct {
	LastRunDate string            `json:"lastRunDate,omitempty"`
	LastRun     *leave.AccrualRun `json:"lastRun,omitempty"`
}

// AccrualRunResponse is the outcome of a forced accrual pass.
type AccrualRunResponse struct {
	RunDate     string `json:"runDate"`
	AlreadyRan  bool   `json:"alreadyRan"`
	Initialized int    `json:"initialized"`
	Recomputed  int    `json:"recomputed"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// InsufficientBalanceDetails accompanies a 409 on over-debit so the
// client can show the requester what is actually left.
type InsufficientBalanceDetails struct {
	Category  string          `json:"category"`
	Requested decimal.Decimal `json:"requested"`
	Remaining decimal.Decimal `json:"remaining"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:       string(e.ID),
		Name:     e.Name,
		HireDate: e.HireDate.String(),
		Status:   string(e.Status),
		PolicyID: string(e.PolicyID),
		Gender:   string(e.Gender),
	}
}

func toPolicyDTO(p *leave.Policy) PolicyDTO {
	return PolicyDTO{
		ID:           string(p.ID),
		Name:         p.Name,
		Entitlements: p.Entitlements,
	}
}

func toAccrualRunResponse(today leave.Date, result leave.TickResult) AccrualRunResponse {
	return AccrualRunResponse{
		RunDate:     today.String(),
		AlreadyRan:  result.AlreadyRan,
		Initialized: result.Initialized,
		Recomputed:  result.Recomputed,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
	}
}
