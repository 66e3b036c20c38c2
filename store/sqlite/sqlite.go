/*
Package sqlite provides a SQLite-backed implementation of the leave
engine's storage interfaces.

PURPOSE:
  Implements leave.BalanceStore, leave.Roster, leave.PolicyProvider and
  leave.RunStore on SQLite. The same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  employees:     Roster records (id, hire date, status, policy, gender)
  policies:      Per-client entitlement tables (JSON column)
  balances:      The leave ledger, one row per employee (JSON category map)
  accrual_runs:  Scheduler run log

CORRUPT RECORDS:
  LoadAll never fails the whole load because of one bad row: a balance
  row whose JSON does not decode into the expected shape (or violates the
  ledger invariants) is reported as a CorruptRecordError alongside the
  good rows. The daily accrual pass logs and skips it.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process; WAL mode for
  better read concurrency at the file level. The engine's single-writer-
  per-employee discipline lives above this layer (leave.Service).

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rightseat/leave-engine/leave"
)

// Store implements the engine's storage interfaces on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time interface checks.
var (
	_ leave.BalanceStore   = (*Store)(nil)
	_ leave.Roster         = (*Store)(nil)
	_ leave.PolicyProvider = (*Store)(nil)
	_ leave.RunStore       = (*Store)(nil)
)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Roster
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		policy_id TEXT NOT NULL,
		gender TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_status
		ON employees(status);

	-- Entitlement tables, one per client
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		entitlements_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- The leave ledger, one row per employee
	CREATE TABLE IF NOT EXISTS balances (
		employee_id TEXT PRIMARY KEY,
		employee_name TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		last_accrual_date TEXT NOT NULL,
		categories_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_balances_policy
		ON balances(policy_id);

	-- Scheduler run log
	CREATE TABLE IF NOT EXISTS accrual_runs (
		id TEXT PRIMARY KEY,
		run_date TEXT NOT NULL,
		started_at TEXT NOT NULL,
		completed_at TEXT NOT NULL,
		initialized INTEGER NOT NULL DEFAULT 0,
		recomputed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_accrual_runs_date
		ON accrual_runs(run_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BALANCE STORE (leave.BalanceStore interface)
// =============================================================================

// LoadAll returns every decodable balance; undecodable rows come back as
// CorruptRecordError values without aborting the load.
func (s *Store) LoadAll(ctx context.Context) ([]*leave.Balance, []error, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, employee_name, policy_id, hire_date,
		       last_accrual_date, categories_json, version
		FROM balances
		ORDER BY employee_id ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []*leave.Balance
	var corrupt []error
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			corrupt = append(corrupt, err)
			continue
		}
		balances = append(balances, b)
	}
	return balances, corrupt, rows.Err()
}

// Get returns one employee's balance, or ErrBalanceNotFound.
func (s *Store) Get(ctx context.Context, id leave.EmployeeID) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT employee_id, employee_name, policy_id, hire_date,
		       last_accrual_date, categories_json, version
		FROM balances
		WHERE employee_id = ?
	`, id)

	b, err := scanBalance(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrBalanceNotFound
	}
	return b, err
}

// Save inserts or replaces a single balance row.
func (s *Store) Save(ctx context.Context, b *leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveBalance(ctx, s.db, b)
}

// SaveAll writes a batch of balances in one SQL transaction.
func (s *Store) SaveAll(ctx context.Context, balances []*leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range balances {
		if err := saveBalance(ctx, tx, b); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveBalance(ctx context.Context, db execer, b *leave.Balance) error {
	categoriesJSON, err := json.Marshal(b.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	// The WHERE clause on the upsert rejects any write whose version is
	// not newer than the stored row. Every mutation bumps the version, so
	// a legitimate save is always strictly newer; a zero-row update means
	// the caller held a stale snapshot.
	res, err := db.ExecContext(ctx, `
		INSERT INTO balances
			(employee_id, employee_name, policy_id, hire_date,
			 last_accrual_date, categories_json, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			employee_name = excluded.employee_name,
			policy_id = excluded.policy_id,
			hire_date = excluded.hire_date,
			last_accrual_date = excluded.last_accrual_date,
			categories_json = excluded.categories_json,
			version = excluded.version,
			updated_at = excluded.updated_at
		WHERE excluded.version > balances.version
	`,
		b.EmployeeID,
		b.EmployeeName,
		b.PolicyID,
		b.HireDate.String(),
		b.LastAccrualDate.String(),
		string(categoriesJSON),
		b.Version,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save balance for %s: %w", b.EmployeeID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save balance for %s: %w", b.EmployeeID, err)
	}
	if affected == 0 {
		return fmt.Errorf("balance for %s: %w", b.EmployeeID, leave.ErrVersionConflict)
	}
	return nil
}

// InsertRawBalance writes a balance row with arbitrary category JSON,
// bypassing encoding. Test helper for exercising corrupt-row isolation,
// the SQLite twin of the memory store's InjectCorrupt.
func (s *Store) InsertRawBalance(ctx context.Context, id leave.EmployeeID, categoriesJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO balances
			(employee_id, employee_name, policy_id, hire_date,
			 last_accrual_date, categories_json, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`, id, "", "standard", "2024-01-15", "2024-01-15", categoriesJSON,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBalance decodes one balance row. Decode or invariant failures come
// back as CorruptRecordError so callers can isolate the row.
func scanBalance(row rowScanner) (*leave.Balance, error) {
	var (
		employeeID, employeeName, policyID  string
		hireDate, lastAccrual, categoryJSON string
		version                             int64
	)
	if err := row.Scan(&employeeID, &employeeName, &policyID,
		&hireDate, &lastAccrual, &categoryJSON, &version); err != nil {
		return nil, err
	}

	id := leave.EmployeeID(employeeID)

	hire, err := leave.ParseDate(hireDate)
	if err != nil {
		return nil, &leave.CorruptRecordError{EmployeeID: id, Err: err}
	}
	last, err := leave.ParseDate(lastAccrual)
	if err != nil {
		return nil, &leave.CorruptRecordError{EmployeeID: id, Err: err}
	}

	var categories map[leave.Category]leave.CategoryState
	if err := json.Unmarshal([]byte(categoryJSON), &categories); err != nil {
		return nil, &leave.CorruptRecordError{EmployeeID: id, Err: err}
	}

	b := &leave.Balance{
		EmployeeID:      id,
		EmployeeName:    employeeName,
		PolicyID:        leave.PolicyID(policyID),
		HireDate:        hire,
		LastAccrualDate: last,
		Categories:      categories,
		Version:         version,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// =============================================================================
// ROSTER (leave.Roster interface)
// =============================================================================

// ListActiveEmployees returns roster records with status 'active'.
func (s *Store) ListActiveEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEmployees(ctx, `
		SELECT id, name, hire_date, status, policy_id, gender
		FROM employees
		WHERE status = ?
		ORDER BY id ASC
	`, leave.StatusActive)
}

// ListEmployees returns every roster record.
func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEmployees(ctx, `
		SELECT id, name, hire_date, status, policy_id, gender
		FROM employees
		ORDER BY id ASC
	`)
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		var id, name, hireDate, status, policyID, gender string
		if err := rows.Scan(&id, &name, &hireDate, &status, &policyID, &gender); err != nil {
			return nil, err
		}
		hire, err := leave.ParseDate(hireDate)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", id, err)
		}
		employees = append(employees, leave.Employee{
			ID:       leave.EmployeeID(id),
			Name:     name,
			HireDate: hire,
			Status:   leave.EmploymentStatus(status),
			PolicyID: leave.PolicyID(policyID),
			Gender:   leave.ParseGender(gender),
		})
	}
	return employees, rows.Err()
}

// GetEmployee returns one roster record, or nil when absent.
func (s *Store) GetEmployee(ctx context.Context, id leave.EmployeeID) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees, err := s.queryEmployees(ctx, `
		SELECT id, name, hire_date, status, policy_id, gender
		FROM employees
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, nil
	}
	return &employees[0], nil
}

// SaveEmployee inserts or replaces a roster record.
func (s *Store) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, hire_date, status, policy_id, gender, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			hire_date = excluded.hire_date,
			status = excluded.status,
			policy_id = excluded.policy_id,
			gender = excluded.gender
	`,
		emp.ID, emp.Name, emp.HireDate.String(), emp.Status, emp.PolicyID, emp.Gender,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

// =============================================================================
// POLICIES (leave.PolicyProvider interface)
// =============================================================================

// GetPolicy resolves a policy id, or returns PolicyNotFoundError.
func (s *Store) GetPolicy(ctx context.Context, id leave.PolicyID) (*leave.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name, entitlementsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, entitlements_json FROM policies WHERE id = ?
	`, id).Scan(&name, &entitlementsJSON)
	if err == sql.ErrNoRows {
		return nil, &leave.PolicyNotFoundError{PolicyID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query policy %s: %w", id, err)
	}

	return decodePolicy(id, name, entitlementsJSON)
}

// ListPolicies returns every stored policy.
func (s *Store) ListPolicies(ctx context.Context) ([]*leave.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, entitlements_json FROM policies ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []*leave.Policy
	for rows.Next() {
		var id, name, entitlementsJSON string
		if err := rows.Scan(&id, &name, &entitlementsJSON); err != nil {
			return nil, err
		}
		p, err := decodePolicy(leave.PolicyID(id), name, entitlementsJSON)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func decodePolicy(id leave.PolicyID, name, entitlementsJSON string) (*leave.Policy, error) {
	p := &leave.Policy{ID: id, Name: name}
	if err := json.Unmarshal([]byte(entitlementsJSON), &p.Entitlements); err != nil {
		return nil, fmt.Errorf("failed to decode policy %s: %w", id, err)
	}
	return p, nil
}

// SavePolicy inserts or replaces a policy.
func (s *Store) SavePolicy(ctx context.Context, p *leave.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entitlementsJSON, err := json.Marshal(p.Entitlements)
	if err != nil {
		return fmt.Errorf("failed to encode policy %s: %w", p.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO policies (id, name, entitlements_json, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			entitlements_json = excluded.entitlements_json
	`, p.ID, p.Name, string(entitlementsJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save policy %s: %w", p.ID, err)
	}
	return nil
}

// =============================================================================
// RUN LOG (leave.RunStore interface)
// =============================================================================

// RecordRun persists one scheduler run record.
func (s *Store) RecordRun(ctx context.Context, run leave.AccrualRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accrual_runs
			(id, run_date, started_at, completed_at, initialized, recomputed, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.RunDate.String(),
		run.StartedAt.Format(time.RFC3339),
		run.CompletedAt.Format(time.RFC3339),
		run.Initialized,
		run.Recomputed,
		run.Skipped,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to record accrual run: %w", err)
	}
	return nil
}

// LastRun returns the most recent run record, or nil when none exists.
func (s *Store) LastRun(ctx context.Context) (*leave.AccrualRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		run                    leave.AccrualRun
		runDate, started, done string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, run_date, started_at, completed_at, initialized, recomputed, skipped, failed
		FROM accrual_runs
		ORDER BY completed_at DESC
		LIMIT 1
	`).Scan(&run.ID, &runDate, &started, &done,
		&run.Initialized, &run.Recomputed, &run.Skipped, &run.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last accrual run: %w", err)
	}

	if run.RunDate, err = leave.ParseDate(runDate); err != nil {
		return nil, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
		return nil, err
	}
	if run.CompletedAt, err = time.Parse(time.RFC3339, done); err != nil {
		return nil, err
	}
	return &run, nil
}
