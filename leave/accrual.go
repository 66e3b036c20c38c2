/*
accrual.go - Prorated annual-leave accrual

PURPOSE:
  Converts elapsed working days since hire into an accrued-to-date annual
  leave amount. Only annual leave accrues gradually; every other category
  is granted in full at initialization (see balance.go).

IDEMPOTENCY:
  AccruedAnnual is a pure function of (hireDate, asOf, entitlement). It is
  always computed from the original hire date, never incrementally from a
  previously recorded value. That is what makes catch-up after missed
  scheduler runs correct without drift: recomputing once after N skipped
  days gives exactly the same result as recomputing every day.

ROUNDING:
  Accrued amounts are rounded DOWN to 2 decimal places, then capped at the
  full entitlement. Rounding down means an employee is never shown more
  than they have strictly earned.
*/
package leave

import "github.com/shopspring/decimal"

// WorkingDaysPerYear is the standard count of annual working days net of
// weekends and public holidays. It is a fixed approximation (the exact
// count varies by one or two days depending on which weekdays the
// holidays land on in a given year) and is kept fixed on purpose so the
// daily accrual rate of a policy never changes between years.
const WorkingDaysPerYear = 251

var workingDaysPerYear = decimal.NewFromInt(WorkingDaysPerYear)

// AccruedAnnual returns the annual leave accrued as of asOf for an
// employee hired on hireDate with the given annual entitlement.
//
// The proration counts COMPLETED working days: the hire date itself has
// not been worked through yet, so accrued is 0 on the hire date and the
// first fraction appears the day after the first working day. asOf before
// the hire date (future hires) yields 0.
func AccruedAnnual(hireDate, asOf Date, entitlement decimal.Decimal) decimal.Decimal {
	if !entitlement.IsPositive() {
		return decimal.Zero
	}
	if asOf.BeforeOrEqual(hireDate) {
		return decimal.Zero
	}

	worked := CountWorkingDays(hireDate, asOf.AddDays(-1))
	if worked == 0 {
		return decimal.Zero
	}

	dailyRate := entitlement.Div(workingDaysPerYear)
	accrued := dailyRate.Mul(decimal.NewFromInt(int64(worked))).RoundFloor(2)
	return decimal.Min(accrued, entitlement)
}
