/*
store.go - Persistence and lookup interfaces consumed by the engine

PURPOSE:
  The engine performs no I/O itself. Loading and saving balances, the
  roster, and policies are delegated to injected implementations of the
  interfaces here, which keeps every calculation synchronous and testable.

IMPLEMENTATIONS:
  - leave/store/memory.go: In-memory, for tests and development
  - store/sqlite/sqlite.go: SQLite-backed, for the server

CORRUPT RECORDS:
  LoadAll isolates undecodable rows instead of failing the whole load:
  the scheduler's job is best-effort completeness across the roster, and
  one bad record must not starve every other employee of accrual.
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// BALANCE STORE
// =============================================================================

// BalanceStore persists the balance ledger collection.
type BalanceStore interface {
	// LoadAll returns every decodable balance. Rows that fail to decode
	// are reported as CorruptRecordError values in corrupt and do not
	// abort the load; err is reserved for storage-level failures.
	LoadAll(ctx context.Context) (balances []*Balance, corrupt []error, err error)

	// Get returns one employee's balance, or ErrBalanceNotFound.
	Get(ctx context.Context, id EmployeeID) (*Balance, error)

	// Save persists a single balance (insert or replace).
	Save(ctx context.Context, b *Balance) error

	// SaveAll persists a batch of balances in one write.
	SaveAll(ctx context.Context, balances []*Balance) error
}

// =============================================================================
// ROSTER / POLICY PROVIDERS (read-only collaborators)
// =============================================================================

// Roster supplies the active employee list. Owned by the HR application;
// the engine only reads it.
type Roster interface {
	ListActiveEmployees(ctx context.Context) ([]Employee, error)
}

// PolicyProvider resolves policy references. Returns an error wrapping
// ErrPolicyNotFound when the id does not resolve.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, id PolicyID) (*Policy, error)
}

// =============================================================================
// ACCRUAL RUN LOG
// =============================================================================

// AccrualRun records one completed scheduler pass, for the admin status
// surface and for auditing catch-up behavior.
type AccrualRun struct {
	ID          string    `json:"id"`
	RunDate     Date      `json:"runDate"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Initialized int       `json:"initialized"`
	Recomputed  int       `json:"recomputed"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
}

// RunStore persists scheduler run records.
type RunStore interface {
	RecordRun(ctx context.Context, run AccrualRun) error

	// LastRun returns the most recent run, or nil when none exists.
	LastRun(ctx context.Context) (*AccrualRun, error)
}
