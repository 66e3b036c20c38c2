// Package store provides an in-memory implementation of the leave engine's
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rightseat/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - Implements BalanceStore, Roster, PolicyProvider, RunStore
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	balances  map[leave.EmployeeID]*leave.Balance
	corrupt   map[leave.EmployeeID]error
	employees map[leave.EmployeeID]leave.Employee
	order     []leave.EmployeeID // roster insertion order, for stable listing
	policies  map[leave.PolicyID]*leave.Policy
	runs      []leave.AccrualRun
}

func NewMemory() *Memory {
	return &Memory{
		balances:  make(map[leave.EmployeeID]*leave.Balance),
		corrupt:   make(map[leave.EmployeeID]error),
		employees: make(map[leave.EmployeeID]leave.Employee),
		policies:  make(map[leave.PolicyID]*leave.Policy),
	}
}

// Compile-time interface checks.
var (
	_ leave.BalanceStore   = (*Memory)(nil)
	_ leave.Roster         = (*Memory)(nil)
	_ leave.PolicyProvider = (*Memory)(nil)
	_ leave.RunStore       = (*Memory)(nil)
)

// =============================================================================
// BALANCE STORE
// =============================================================================

func (m *Memory) LoadAll(_ context.Context) ([]*leave.Balance, []error, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var balances []*leave.Balance
	for _, b := range m.balances {
		balances = append(balances, b.Clone())
	}
	var corrupt []error
	for id, err := range m.corrupt {
		corrupt = append(corrupt, &leave.CorruptRecordError{EmployeeID: id, Err: err})
	}
	return balances, corrupt, nil
}

func (m *Memory) Get(_ context.Context, id leave.EmployeeID) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.corrupt[id]; ok {
		return nil, &leave.CorruptRecordError{EmployeeID: id, Err: err}
	}
	b, ok := m.balances[id]
	if !ok {
		return nil, leave.ErrBalanceNotFound
	}
	return b.Clone(), nil
}

func (m *Memory) Save(_ context.Context, b *leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(b)
}

func (m *Memory) SaveAll(_ context.Context, balances []*leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range balances {
		if err := m.save(b); err != nil {
			return err
		}
	}
	return nil
}

// save rejects writes whose version is not newer than the stored row.
// Every mutation bumps the version, so a legitimate save is always
// strictly newer; anything else is a stale snapshot.
func (m *Memory) save(b *leave.Balance) error {
	if existing, ok := m.balances[b.EmployeeID]; ok && b.Version <= existing.Version {
		return fmt.Errorf("balance for %s: %w", b.EmployeeID, leave.ErrVersionConflict)
	}
	m.balances[b.EmployeeID] = b.Clone()
	delete(m.corrupt, b.EmployeeID)
	return nil
}

// InjectCorrupt marks an employee's record as undecodable, simulating a
// bad row. LoadAll reports it; Get returns it as an error.
func (m *Memory) InjectCorrupt(id leave.EmployeeID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.balances, id)
	m.corrupt[id] = err
}

// =============================================================================
// ROSTER
// =============================================================================

func (m *Memory) ListActiveEmployees(_ context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []leave.Employee
	for _, id := range m.order {
		if emp := m.employees[id]; emp.IsActive() {
			active = append(active, emp)
		}
	}
	return active, nil
}

func (m *Memory) AddEmployee(emp leave.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.employees[emp.ID]; !ok {
		m.order = append(m.order, emp.ID)
	}
	m.employees[emp.ID] = emp
}

// =============================================================================
// POLICIES
// =============================================================================

func (m *Memory) GetPolicy(_ context.Context, id leave.PolicyID) (*leave.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.policies[id]
	if !ok {
		return nil, &leave.PolicyNotFoundError{PolicyID: id}
	}
	return p, nil
}

func (m *Memory) AddPolicy(p *leave.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[p.ID] = p
}

// =============================================================================
// RUN LOG
// =============================================================================

func (m *Memory) RecordRun(_ context.Context, run leave.AccrualRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) LastRun(_ context.Context) (*leave.AccrualRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.runs) == 0 {
		return nil, nil
	}
	run := m.runs[len(m.runs)-1]
	return &run, nil
}

// Runs returns all recorded runs, oldest first.
func (m *Memory) Runs() []leave.AccrualRun {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]leave.AccrualRun(nil), m.runs...)
}
