/*
scheduler.go - Daily accrual scheduler

PURPOSE:
  Runs the catch-up accrual pass: bootstraps ledgers for active employees
  who lack one and recomputes annual accrual for everyone who has one.
  Designed to be safe to invoke any number of times per day and after
  arbitrarily long gaps.

IDEMPOTENCY LAYERS:
  1. Batch level: a process-wide last-run marker short-circuits repeat
     ticks on the same day without scanning the roster.
  2. Per employee: RecomputeAccrual is a no-op when lastAccrualDate
     already equals today.
  3. Computation: accrual is recomputed from the hire date, so replaying
     the whole batch converges rather than double-crediting.

WRITE DISCIPLINE:
  Every mutation goes through the Service, which holds the per-employee
  writer lock and re-reads the freshest stored state. The pass's initial
  LoadAll is only a census (which ledgers exist, which rows are corrupt);
  those snapshots are never written back, so a debit landing mid-pass
  cannot be clobbered by stale data.

ERROR ISOLATION:
  A failure on one employee (missing policy, corrupt stored record) is
  logged and counted; the rest of the roster is still processed. A
  corrupt row is a ledger, not a missing one: the employee is excluded
  from bootstrap so their debit history is never overwritten with a
  fresh grant.

TRIGGERING:
  The engine never runs as an import side effect. An owning process calls
  Tick directly, or starts the background loop with Start/Stop. RunNow
  forces an immediate pass for admin tooling and tests.
*/
package leave

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduler drives the daily accrual pass.
type Scheduler struct {
	// Service performs every per-employee mutation, under that
	// employee's writer lock. Must be the same instance the API uses so
	// the two actors serialize against each other.
	Service *Service

	Balances BalanceStore
	Roster   Roster
	Runs     RunStore // may be nil; run records are then skipped

	// Clock supplies "today" for background ticks. Defaults to Today.
	Clock func() Date

	// CheckInterval is how often the background loop re-ticks. The pass
	// itself still runs at most once per calendar day.
	CheckInterval time.Duration

	mu      sync.Mutex
	lastRun Date

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler with the default hourly check interval.
func NewScheduler(service *Service, balances BalanceStore, roster Roster, runs RunStore) *Scheduler {
	return &Scheduler{
		Service:       service,
		Balances:      balances,
		Roster:        roster,
		Runs:          runs,
		Clock:         Today,
		CheckInterval: time.Hour,
	}
}

// TickResult summarizes one accrual pass.
type TickResult struct {
	AlreadyRan  bool // the batch-level marker short-circuited the pass
	Initialized int
	Recomputed  int
	Skipped     int
	Failed      int
}

// =============================================================================
// TICK - One accrual pass
// =============================================================================

// Tick runs one accrual pass for the given day. Re-invoking with the same
// today is a cheap no-op; invoking after skipped days catches up exactly.
func (s *Scheduler) Tick(ctx context.Context, today Date) (TickResult, error) {
	s.mu.Lock()
	if !s.lastRun.IsZero() && !s.lastRun.Before(today) {
		s.mu.Unlock()
		return TickResult{AlreadyRan: true}, nil
	}
	s.mu.Unlock()

	started := time.Now().UTC()
	result := TickResult{}

	// Census only: which ledgers exist, which rows are corrupt.
	balances, corrupt, err := s.Balances.LoadAll(ctx)
	if err != nil {
		return result, err
	}

	corruptIDs := make(map[EmployeeID]bool, len(corrupt))
	for _, cerr := range corrupt {
		log.Printf("[Accrual] Skipping corrupt record: %v", cerr)
		result.Failed++
		var corruptErr *CorruptRecordError
		if errors.As(cerr, &corruptErr) {
			corruptIDs[corruptErr.EmployeeID] = true
		}
	}

	existing := make(map[EmployeeID]bool, len(balances))
	for _, b := range balances {
		existing[b.EmployeeID] = true
	}

	employees, err := s.Roster.ListActiveEmployees(ctx)
	if err != nil {
		return result, err
	}

	// Bootstrap ledgers for active employees who lack one. An employee
	// whose row is corrupt HAS a ledger; re-granting over it would erase
	// debit history, so they stay untouched until the row is repaired.
	for _, emp := range employees {
		if existing[emp.ID] || corruptIDs[emp.ID] {
			continue
		}
		if _, err := s.Service.Initialize(ctx, emp, today); err != nil {
			if errors.Is(err, ErrBalanceExists) {
				// Onboarded between the census and this point.
				continue
			}
			log.Printf("[Accrual] Cannot initialize %s: %v", emp.ID, err)
			result.Failed++
			continue
		}
		result.Initialized++
	}

	// Recompute accrual for every existing ledger, one employee at a
	// time under their writer lock.
	for _, b := range balances {
		_, changed, err := s.Service.Recompute(ctx, b.EmployeeID, today)
		if err != nil {
			log.Printf("[Accrual] Cannot recompute %s: %v", b.EmployeeID, err)
			result.Failed++
			continue
		}
		if changed {
			result.Recomputed++
		} else {
			result.Skipped++
		}
	}

	s.recordRun(ctx, today, started, result)

	s.mu.Lock()
	if s.lastRun.Before(today) {
		s.lastRun = today
	}
	s.mu.Unlock()

	log.Printf("[Accrual] Pass for %s: %d initialized, %d recomputed, %d skipped, %d failed",
		today, result.Initialized, result.Recomputed, result.Skipped, result.Failed)
	return result, nil
}

func (s *Scheduler) recordRun(ctx context.Context, today Date, started time.Time, result TickResult) {
	if s.Runs == nil {
		return
	}
	run := AccrualRun{
		ID:          uuid.NewString(),
		RunDate:     today,
		StartedAt:   started,
		CompletedAt: time.Now().UTC(),
		Initialized: result.Initialized,
		Recomputed:  result.Recomputed,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
	}
	if err := s.Runs.RecordRun(ctx, run); err != nil {
		log.Printf("[Accrual] Failed to record run: %v", err)
	}
}

// LastRunDate returns the batch-level marker, zero before the first pass.
func (s *Scheduler) LastRunDate() Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// =============================================================================
// BACKGROUND LOOP
// =============================================================================

// Start begins the background loop. It ticks immediately, then on every
// CheckInterval.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(s.ticker, s.stop)

	log.Printf("[Accrual] Scheduler started, check interval %v", s.CheckInterval)
}

// Stop stops the background loop and waits for an in-flight pass.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.stop = nil
	s.mu.Unlock()

	s.wg.Wait()
	log.Println("[Accrual] Scheduler stopped")
}

func (s *Scheduler) run(ticker *time.Ticker, stop chan struct{}) {
	defer s.wg.Done()

	s.RunNow()

	for {
		select {
		case <-ticker.C:
			s.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow triggers an immediate pass with the scheduler's clock.
func (s *Scheduler) RunNow() {
	if _, err := s.Tick(context.Background(), s.Clock()); err != nil {
		log.Printf("[Accrual] Pass failed: %v", err)
	}
}
