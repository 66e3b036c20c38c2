/*
handlers_test.go - HTTP-level tests for the leave engine API

Exercises the full router: onboarding, balance display, debit/credit with
error mapping, and the admin accrual endpoints.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rightseat/leave-engine/leave"
	"github.com/rightseat/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T, today leave.Date) (*httptest.Server, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	service := leave.NewService(store, store)
	scheduler := leave.NewScheduler(service, store, store, store)
	scheduler.Clock = func() leave.Date { return today }

	h := NewHandler(store, service, scheduler)
	h.Clock = func() leave.Date { return today }

	srv := httptest.NewServer(NewRouter(h, []string{"*"}))
	t.Cleanup(srv.Close)

	require.NoError(t, store.SavePolicy(context.Background(), leave.NewPolicy("standard", "Standard", map[leave.Category]float64{
		leave.CategoryAnnual:    25,
		leave.CategorySick:      12,
		leave.CategoryPersonal:  5,
		leave.CategoryStudy:     3,
		leave.CategoryMaternity: 90,
		leave.CategoryPaternity: 10,
	})))

	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func onboardRequest(id string) OnboardEmployeeRequest {
	return OnboardEmployeeRequest{
		ID:       id,
		Name:     "Test Employee",
		HireDate: "2024-01-15",
		PolicyID: "standard",
		Gender:   "female",
	}
}

// =============================================================================
// ONBOARDING
// =============================================================================

func TestAPI_OnboardEmployee(t *testing.T) {
	// GIVEN: A fresh roster
	// WHEN: Onboarding an employee hired over a year ago
	// THEN: 201 with a fully accrued annual balance and a maternity grant

	today := leave.NewDate(2025, time.June, 2)
	srv, _ := newTestServer(t, today)

	resp := postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created OnboardEmployeeResponse
	decodeBody(t, resp, &created)
	assert.Equal(t, "emp-1", created.Employee.ID)
	require.NotEmpty(t, created.Balance.Categories)
	assert.Equal(t, leave.CategoryAnnual, created.Balance.Categories[0].Category)
	assert.True(t, created.Balance.Categories[0].Accrued.Equal(decimal.NewFromInt(25)))
}

func TestAPI_OnboardEmployee_Twice(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))

	resp := postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_OnboardEmployee_MissingPolicy(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))

	req := onboardRequest("emp-1")
	req.PolicyID = "no-such-policy"
	resp := postJSON(t, srv.URL+"/api/employees", req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_OnboardEmployee_RetryAfterLedgerFailure(t *testing.T) {
	// GIVEN: Onboarding fails at the ledger step because the policy does
	// not exist yet
	// WHEN: The policy is created and the request retried
	// THEN: 201, not a conflict; the first attempt saved the employee but
	// left no orphaned ledger blocking the retry

	srv, store := newTestServer(t, leave.NewDate(2025, time.June, 2))
	ctx := context.Background()

	req := onboardRequest("emp-1")
	req.PolicyID = "late-policy"
	resp := postJSON(t, srv.URL+"/api/employees", req)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	emp, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.NotNil(t, emp)
	_, err = store.Get(ctx, "emp-1")
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)

	require.NoError(t, store.SavePolicy(ctx, leave.NewPolicy("late-policy", "Late", map[leave.Category]float64{
		leave.CategoryAnnual: 25,
	})))

	resp = postJSON(t, srv.URL+"/api/employees", req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAPI_OnboardEmployee_BadHireDate(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))

	req := onboardRequest("emp-1")
	req.HireDate = "15/01/2024"
	resp := postJSON(t, srv.URL+"/api/employees", req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// BALANCE DISPLAY
// =============================================================================

func TestAPI_GetBalance(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))
	postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1")).Body.Close()

	resp, err := http.Get(srv.URL + "/api/employees/emp-1/balance")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary leave.Summary
	decodeBody(t, resp, &summary)
	assert.Equal(t, leave.EmployeeID("emp-1"), summary.EmployeeID)
	assert.Len(t, summary.Categories, 5) // four base + maternity
}

func TestAPI_GetBalance_Missing(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))

	resp, err := http.Get(srv.URL + "/api/employees/ghost/balance")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// DEBIT / CREDIT
// =============================================================================

func TestAPI_Debit(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))
	postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1")).Body.Close()

	resp := postJSON(t, srv.URL+"/api/employees/emp-1/debit", LedgerEntryRequest{
		Category: "annualLeave",
		Days:     decimal.NewFromInt(3),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary leave.Summary
	decodeBody(t, resp, &summary)
	assert.True(t, summary.Categories[0].Remaining.Equal(decimal.NewFromInt(22)))
}

func TestAPI_Debit_InsufficientBalance(t *testing.T) {
	// GIVEN: 12 sick days
	// WHEN: Debiting 15 via the API
	// THEN: 409 with the remaining amount in the error details

	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))
	postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1")).Body.Close()

	resp := postJSON(t, srv.URL+"/api/employees/emp-1/debit", LedgerEntryRequest{
		Category: "sickLeave",
		Days:     decimal.NewFromInt(15),
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var errResp struct {
		Error   string                     `json:"error"`
		Details InsufficientBalanceDetails `json:"details"`
	}
	decodeBody(t, resp, &errResp)
	assert.True(t, errResp.Details.Remaining.Equal(decimal.NewFromInt(12)))
	assert.True(t, errResp.Details.Shortfall.Equal(decimal.NewFromInt(3)))
}

func TestAPI_Debit_UnknownCategory(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))
	postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1")).Body.Close()

	resp := postJSON(t, srv.URL+"/api/employees/emp-1/debit", LedgerEntryRequest{
		Category: "sabbatical",
		Days:     decimal.NewFromInt(1),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Debit_InvalidAmount(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))
	postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1")).Body.Close()

	resp := postJSON(t, srv.URL+"/api/employees/emp-1/debit", LedgerEntryRequest{
		Category: "annualLeave",
		Days:     decimal.NewFromInt(-1),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Credit(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))
	postJSON(t, srv.URL+"/api/employees", onboardRequest("emp-1")).Body.Close()

	postJSON(t, srv.URL+"/api/employees/emp-1/debit", LedgerEntryRequest{
		Category: "annualLeave", Days: decimal.NewFromInt(5),
	}).Body.Close()

	resp := postJSON(t, srv.URL+"/api/employees/emp-1/credit", LedgerEntryRequest{
		Category: "annualLeave", Days: decimal.NewFromInt(2),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary leave.Summary
	decodeBody(t, resp, &summary)
	assert.True(t, summary.Categories[0].Used.Equal(decimal.NewFromInt(3)))
}

// =============================================================================
// POLICIES & HOLIDAYS
// =============================================================================

func TestAPI_CreateAndGetPolicy(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))

	resp := postJSON(t, srv.URL+"/api/policies", CreatePolicyRequest{
		ID:   "generous",
		Name: "Generous",
		Entitlements: map[leave.Category]decimal.Decimal{
			leave.CategoryAnnual: decimal.NewFromInt(30),
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	got, err := http.Get(srv.URL + "/api/policies/generous")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, got.StatusCode)

	var dto PolicyDTO
	decodeBody(t, got, &dto)
	assert.Equal(t, "Generous", dto.Name)
	assert.True(t, dto.Entitlements[leave.CategoryAnnual].Equal(decimal.NewFromInt(30)))
}

func TestAPI_CreatePolicy_UnknownCategory(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))

	resp := postJSON(t, srv.URL+"/api/policies", CreatePolicyRequest{
		ID:   "bad",
		Name: "Bad",
		Entitlements: map[leave.Category]decimal.Decimal{
			leave.Category("gardening"): decimal.NewFromInt(5),
		},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListHolidays(t *testing.T) {
	srv, _ := newTestServer(t, leave.NewDate(2025, time.June, 2))

	resp, err := http.Get(srv.URL + "/api/holidays?year=2025")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var holidays []HolidayDTO
	decodeBody(t, resp, &holidays)
	require.Len(t, holidays, 10)
	assert.Equal(t, "2025-01-01", holidays[0].Date)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAPI_RunAccrualAndStatus(t *testing.T) {
	today := leave.NewDate(2025, time.June, 2)
	srv, store := newTestServer(t, today)

	require.NoError(t, store.SaveEmployee(context.Background(), leave.Employee{
		ID: "emp-1", Name: "Test Employee",
		HireDate: leave.NewDate(2025, time.March, 3),
		Status:   leave.StatusActive, PolicyID: "standard",
	}))

	resp := postJSON(t, srv.URL+"/api/admin/accrual/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run AccrualRunResponse
	decodeBody(t, resp, &run)
	assert.False(t, run.AlreadyRan)
	assert.Equal(t, 1, run.Initialized)

	// Second run on the same day short-circuits.
	resp = postJSON(t, srv.URL+"/api/admin/accrual/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &run)
	assert.True(t, run.AlreadyRan)

	status, err := http.Get(srv.URL + "/api/admin/accrual/status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status.StatusCode)

	var dto AccrualStatusDTO
	decodeBody(t, status, &dto)
	assert.Equal(t, today.String(), dto.LastRunDate)
	require.NotNil(t, dto.LastRun)
	assert.Equal(t, 1, dto.LastRun.Initialized)
}
