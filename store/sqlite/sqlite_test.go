package sqlite_test

import (
	"context"
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

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testPolicy() *leave.Policy {
	return leave.NewPolicy("standard", "Standard", map[leave.Category]float64{
		leave.CategoryAnnual:   25,
		leave.CategorySick:     12,
		leave.CategoryPersonal: 5,
		leave.CategoryStudy:    3,
	})
}

func testBalance(t *testing.T, id string) *leave.Balance {
	t.Helper()
	emp := leave.Employee{
		ID:       leave.EmployeeID(id),
		Name:     "Test Employee",
		HireDate: leave.NewDate(2024, time.January, 15),
		Status:   leave.StatusActive,
		PolicyID: "standard",
	}
	b, err := leave.NewBalance(emp, testPolicy(), leave.NewDate(2025, time.June, 2))
	require.NoError(t, err)
	return b
}

// =============================================================================
// BALANCES
// =============================================================================

func TestStore_SaveAndGetBalance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := testBalance(t, "emp-1")
	require.NoError(t, b.Debit(leave.CategoryAnnual, decimal.NewFromInt(3)))
	require.NoError(t, store.Save(ctx, b))

	got, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, got.Equal(b), "stored balance should round-trip")
	assert.Equal(t, b.Version, got.Version)
}

func TestStore_GetMissingBalance(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := testBalance(t, "emp-1")
	require.NoError(t, store.Save(ctx, b))

	require.NoError(t, b.Debit(leave.CategorySick, decimal.NewFromInt(2)))
	require.NoError(t, store.Save(ctx, b))

	got, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, got.Categories[leave.CategorySick].Used.Equal(decimal.NewFromInt(2)))
}

func TestStore_Save_RejectsStaleVersion(t *testing.T) {
	// GIVEN: A stored row that a second writer has already advanced
	// WHEN: The first writer saves its older snapshot
	// THEN: The write is refused and the newer state survives

	store := newTestStore(t)
	ctx := context.Background()

	b := testBalance(t, "emp-1")
	require.NoError(t, store.Save(ctx, b))

	stale, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)

	require.NoError(t, b.Debit(leave.CategorySick, decimal.NewFromInt(2)))
	require.NoError(t, store.Save(ctx, b))

	require.NoError(t, stale.Debit(leave.CategoryAnnual, decimal.NewFromInt(1)))
	err = store.Save(ctx, stale)
	assert.ErrorIs(t, err, leave.ErrVersionConflict)

	got, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, got.Categories[leave.CategorySick].Used.Equal(decimal.NewFromInt(2)))
	assert.True(t, got.Categories[leave.CategoryAnnual].Used.IsZero())
}

func TestStore_SaveAllAndLoadAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []*leave.Balance{testBalance(t, "emp-1"), testBalance(t, "emp-2"), testBalance(t, "emp-3")}
	require.NoError(t, store.SaveAll(ctx, batch))

	balances, corrupt, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, corrupt)
	assert.Len(t, balances, 3)
	assert.Equal(t, leave.EmployeeID("emp-1"), balances[0].EmployeeID)
}

func TestStore_LoadAll_IsolatesCorruptRows(t *testing.T) {
	// GIVEN: One row whose category JSON does not decode
	// WHEN: Loading all balances
	// THEN: The bad row is reported alongside the good ones, not fatal

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testBalance(t, "emp-ok")))
	require.NoError(t, store.InsertRawBalance(ctx, "emp-bad", "{not json"))

	balances, corrupt, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, balances, 1)
	require.Len(t, corrupt, 1)
	assert.ErrorIs(t, corrupt[0], leave.ErrCorruptRecord)

	var corruptErr *leave.CorruptRecordError
	require.ErrorAs(t, corrupt[0], &corruptErr)
	assert.Equal(t, leave.EmployeeID("emp-bad"), corruptErr.EmployeeID)
}

func TestStore_LoadAll_RejectsInvariantViolations(t *testing.T) {
	// A row that decodes but grants both parental categories is corrupt.
	store := newTestStore(t)
	ctx := context.Background()

	bothParental := `{"maternityLeave":{"totalEntitled":"90","accrued":"90","used":"0","remaining":"90"},` +
		`"paternityLeave":{"totalEntitled":"10","accrued":"10","used":"0","remaining":"10"}}`
	require.NoError(t, store.InsertRawBalance(ctx, "emp-bad", bothParental))

	_, corrupt, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, corrupt, 1)
	assert.ErrorIs(t, corrupt[0], leave.ErrCorruptRecord)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestStore_Employees(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	active := leave.Employee{
		ID: "emp-1", Name: "Active", HireDate: leave.NewDate(2024, time.January, 15),
		Status: leave.StatusActive, PolicyID: "standard", Gender: leave.GenderFemale,
	}
	inactive := leave.Employee{
		ID: "emp-2", Name: "Gone", HireDate: leave.NewDate(2023, time.May, 1),
		Status: leave.StatusInactive, PolicyID: "standard",
	}
	require.NoError(t, store.SaveEmployee(ctx, active))
	require.NoError(t, store.SaveEmployee(ctx, inactive))

	all, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	activeList, err := store.ListActiveEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, activeList, 1)
	assert.Equal(t, leave.EmployeeID("emp-1"), activeList[0].ID)
	assert.Equal(t, leave.GenderFemale, activeList[0].Gender)
	assert.True(t, activeList[0].HireDate.Equal(leave.NewDate(2024, time.January, 15)))
}

func TestStore_GetEmployee_Missing(t *testing.T) {
	store := newTestStore(t)

	emp, err := store.GetEmployee(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, emp)
}

// =============================================================================
// POLICIES
// =============================================================================

func TestStore_Policies(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePolicy(ctx, testPolicy()))

	got, err := store.GetPolicy(ctx, "standard")
	require.NoError(t, err)
	assert.Equal(t, "Standard", got.Name)
	assert.True(t, got.Entitlement(leave.CategoryAnnual).Equal(decimal.NewFromInt(25)))
	assert.True(t, got.Entitlement(leave.CategoryMaternity).IsZero(), "uncovered category defaults to zero")

	policies, err := store.ListPolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, policies, 1)
}

func TestStore_GetPolicy_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPolicy(context.Background(), "no-such-policy")
	require.Error(t, err)
	assert.ErrorIs(t, err, leave.ErrPolicyNotFound)

	var notFound *leave.PolicyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, leave.PolicyID("no-such-policy"), notFound.PolicyID)
}

// =============================================================================
// RUN LOG
// =============================================================================

func TestStore_AccrualRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	none, err := store.LastRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	first := leave.AccrualRun{
		ID:          "run-1",
		RunDate:     leave.NewDate(2025, time.June, 1),
		StartedAt:   time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, time.June, 1, 6, 0, 1, 0, time.UTC),
		Recomputed:  10,
	}
	second := leave.AccrualRun{
		ID:          "run-2",
		RunDate:     leave.NewDate(2025, time.June, 2),
		StartedAt:   time.Date(2025, time.June, 2, 6, 0, 0, 0, time.UTC),
		CompletedAt: time.Date(2025, time.June, 2, 6, 0, 1, 0, time.UTC),
		Initialized: 1,
		Recomputed:  9,
		Failed:      1,
	}
	require.NoError(t, store.RecordRun(ctx, first))
	require.NoError(t, store.RecordRun(ctx, second))

	last, err := store.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "run-2", last.ID)
	assert.True(t, last.RunDate.Equal(leave.NewDate(2025, time.June, 2)))
	assert.Equal(t, 1, last.Failed)
	assert.True(t, last.CompletedAt.Equal(second.CompletedAt))
}
