/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave accrual and balance ledger via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees               List all employees
    POST   /api/employees               Onboard employee (creates ledger)
    GET    /api/employees/{id}          Get employee details
    GET    /api/employees/{id}/balance  Get balance summary
    POST   /api/employees/{id}/debit    Consume leave days (approval flow)
    POST   /api/employees/{id}/credit   Reverse a debit (cancellation)

  Policies:
    GET    /api/policies                List all policies
    POST   /api/policies                Create policy
    GET    /api/policies/{id}           Get policy

  Calendar:
    GET    /api/holidays                Public holidays for a year

  Admin:
    POST   /api/admin/accrual/run       Force an accrual pass now
    GET    /api/admin/accrual/status    Last scheduler run

ERROR HANDLING:
  Engine errors map onto HTTP status by kind:
  - 400: Unknown category, invalid amount, malformed input
  - 404: Missing employee, balance, or policy
  - 409: Insufficient balance (with remaining/shortfall details),
         ledger already initialized
  - 500: Storage failures

SECURITY NOTE:
  No authentication middleware. The engine assumes a trusted HR
  application in front of it.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/service.go: The mutation surface these handlers call
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/rightseat/leave-engine/leave"
	"github.com/rightseat/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Service   *leave.Service
	Scheduler *leave.Scheduler

	// Clock supplies "today" for request-scoped operations, so tests can
	// pin the date. Defaults to leave.Today.
	Clock func() leave.Date
}

// NewHandler creates a handler over the given store.
func NewHandler(store *sqlite.Store, service *leave.Service, scheduler *leave.Scheduler) *Handler {
	return &Handler{
		Store:     store,
		Service:   service,
		Scheduler: scheduler,
		Clock:     leave.Today,
	}
}

func (h *Handler) today() leave.Date {
	if h.Clock != nil {
		return h.Clock()
	}
	return leave.Today()
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// OnboardEmployee creates an employee and initializes their leave ledger
// in one step. The ledger is created exactly once; re-onboarding an
// existing employee returns 409.
func (h *Handler) OnboardEmployee(w http.ResponseWriter, r *http.Request) {
	var req OnboardEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" || req.PolicyID == "" {
		writeError(w, http.StatusBadRequest, "id, name and policyId are required", nil)
		return
	}

	hireDate, err := leave.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hireDate format (use YYYY-MM-DD)", err)
		return
	}

	emp := leave.Employee{
		ID:       leave.EmployeeID(req.ID),
		Name:     req.Name,
		HireDate: hireDate,
		Status:   leave.StatusActive,
		PolicyID: leave.PolicyID(req.PolicyID),
		Gender:   leave.ParseGender(req.Gender),
	}

	// Employee first, ledger second. If the ledger write fails, a retry
	// is clean, and the accrual pass bootstraps the missing ledger on
	// its own. The opposite order would leave an orphaned ledger whose
	// exists-check blocks every retry with a conflict.
	ctx := r.Context()
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	balance, err := h.Service.Initialize(ctx, emp, h.today())
	if err != nil {
		writeEngineError(w, "Failed to initialize balance", err)
		return
	}

	writeJSON(w, http.StatusCreated, OnboardEmployeeResponse{
		Employee: toEmployeeDTO(emp),
		Balance:  balance.Summarize(),
	})
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the balance summary for one employee.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	summary, err := h.Service.Summary(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Debit consumes days from a category. Called by the approval workflow
// once a leave request is approved.
func (h *Handler) Debit(w http.ResponseWriter, r *http.Request) {
	h.applyLedgerEntry(w, r, h.Service.Debit)
}

// Credit reverses a previous debit, when an approved request is
// cancelled.
func (h *Handler) Credit(w http.ResponseWriter, r *http.Request) {
	h.applyLedgerEntry(w, r, h.Service.Credit)
}

type ledgerOp func(ctx context.Context, id leave.EmployeeID, category string, days decimal.Decimal) (*leave.Balance, error)

func (h *Handler) applyLedgerEntry(
	w http.ResponseWriter,
	r *http.Request,
	op ledgerOp,
) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	var req LedgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "category is required", nil)
		return
	}

	balance, err := op(r.Context(), id, req.Category, req.Days)
	if err != nil {
		writeEngineError(w, "Ledger operation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, balance.Summarize())
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns all policies.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Store.ListPolicies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list policies", err)
		return
	}

	dtos := make([]PolicyDTO, len(policies))
	for i, p := range policies {
		dtos[i] = toPolicyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPolicy returns a single policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	id := leave.PolicyID(chi.URLParam(r, "id"))

	policy, err := h.Store.GetPolicy(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get policy", err)
		return
	}
	writeJSON(w, http.StatusOK, toPolicyDTO(policy))
}

// CreatePolicy stores a new policy. Category keys outside the fixed
// enumeration are rejected.
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	for c, days := range req.Entitlements {
		if !c.IsValid() {
			writeError(w, http.StatusBadRequest, "Unknown leave category: "+string(c), nil)
			return
		}
		if days.IsNegative() {
			writeError(w, http.StatusBadRequest, "Entitlement cannot be negative: "+string(c), nil)
			return
		}
	}

	policy := &leave.Policy{
		ID:           leave.PolicyID(req.ID),
		Name:         req.Name,
		Entitlements: req.Entitlements,
	}
	if err := h.Store.SavePolicy(r.Context(), policy); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save policy", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPolicyDTO(policy))
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListHolidays returns the public holidays for a year (default: current).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	if q := r.URL.Query().Get("year"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	dates := leave.Holidays(year)
	dtos := make([]HolidayDTO, len(dates))
	for i, d := range dates {
		dtos[i] = HolidayDTO{Date: d.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunAccrual forces an accrual pass for today. Safe to call repeatedly;
// a repeat on the same day reports alreadyRan.
func (h *Handler) RunAccrual(w http.ResponseWriter, r *http.Request) {
	today := h.today()
	result, err := h.Scheduler.Tick(r.Context(), today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Accrual pass failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccrualRunResponse(today, result))
}

// AccrualStatus reports the scheduler's last run.
func (h *Handler) AccrualStatus(w http.ResponseWriter, r *http.Request) {
	status := AccrualStatusDTO{}
	if last := h.Scheduler.LastRunDate(); !last.IsZero() {
		status.LastRunDate = last.String()
	}

	if h.Scheduler.Runs != nil {
		run, err := h.Scheduler.Runs.LastRun(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to read run log", err)
			return
		}
		status.LastRun = run
		if run != nil && status.LastRunDate == "" {
			status.LastRunDate = run.RunDate.String()
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	var insufficient *leave.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Details: InsufficientBalanceDetails{
				Category:  string(insufficient.Category),
				Requested: insufficient.Requested,
				Remaining: insufficient.Remaining,
				Shortfall: insufficient.Shortfall,
			},
		})
		return
	}

	switch {
	case errors.Is(err, leave.ErrBalanceExists):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
