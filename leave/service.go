/*
service.go - Single-writer ledger front

PURPOSE:
  Service is the mutation surface the approval workflow and admin tooling
  call. It wraps a BalanceStore with per-employee locking so two
  concurrent approvals can never both read the same remaining value and
  both succeed when only one should.

CONCURRENCY MODEL:
  Single writer per employee. Each employee id maps to its own mutex;
  operations on different employees do not contend. The engine makes no
  stronger cross-process guarantee; a single server process owns writes.
*/
package leave

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// Service exposes the ledger operations keyed by employee id.
type Service struct {
	store    BalanceStore
	policies PolicyProvider

	mu    sync.Mutex
	locks map[EmployeeID]*sync.Mutex
}

func NewService(store BalanceStore, policies PolicyProvider) *Service {
	return &Service{
		store:    store,
		policies: policies,
		locks:    make(map[EmployeeID]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing writes for one employee.
func (s *Service) lockFor(id EmployeeID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Initialize creates the ledger for a newly onboarded employee. Returns
// ErrBalanceExists when the employee already has one, and propagates
// PolicyNotFound when the employee's policy reference does not resolve.
func (s *Service) Initialize(ctx context.Context, employee Employee, today Date) (*Balance, error) {
	l := s.lockFor(employee.ID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.store.Get(ctx, employee.ID); err == nil {
		return nil, ErrBalanceExists
	} else if !errors.Is(err, ErrBalanceNotFound) {
		return nil, err
	}

	policy, err := s.policies.GetPolicy(ctx, employee.PolicyID)
	if err != nil {
		return nil, err
	}

	b, err := NewBalance(employee, policy, today)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Debit consumes days from a category, called by the approval workflow
// before a request is marked approved. The category name is resolved
// case-insensitively. The caller rolls the request back on
// InsufficientBalance.
func (s *Service) Debit(ctx context.Context, id EmployeeID, categoryName string, days decimal.Decimal) (*Balance, error) {
	return s.apply(ctx, id, categoryName, (*Balance).Debit, days)
}

// Credit reverses a previously approved debit, when a request is
// cancelled after approval.
func (s *Service) Credit(ctx context.Context, id EmployeeID, categoryName string, days decimal.Decimal) (*Balance, error) {
	return s.apply(ctx, id, categoryName, (*Balance).Credit, days)
}

func (s *Service) apply(
	ctx context.Context,
	id EmployeeID,
	categoryName string,
	op func(*Balance, Category, decimal.Decimal) error,
	days decimal.Decimal,
) (*Balance, error) {
	category, err := ParseCategory(categoryName)
	if err != nil {
		return nil, err
	}

	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := op(b, category, days); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Recompute brings one employee's accrual up to date under their writer
// lock, reading the freshest stored state. The scheduler routes every
// per-employee recompute through here so a debit landing mid-pass is
// never overwritten by an older snapshot. Reports whether the balance
// changed.
func (s *Service) Recompute(ctx context.Context, id EmployeeID, today Date) (*Balance, bool, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	changed := b.RecomputeAccrual(today)
	if changed {
		if err := s.store.Save(ctx, b); err != nil {
			return nil, false, err
		}
	}
	return b, changed, nil
}

// GetBalance returns one employee's balance, or ErrBalanceNotFound.
func (s *Service) GetBalance(ctx context.Context, id EmployeeID) (*Balance, error) {
	return s.store.Get(ctx, id)
}

// Summary returns the read-only projection for the display layer.
func (s *Service) Summary(ctx context.Context, id EmployeeID) (Summary, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return b.Summarize(), nil
}
