/*
calendar.go - Working-day calendar

PURPOSE:
  Counts business days between two calendar dates. A day counts when its
  weekday is Monday-Friday and it is not a public holiday.

HOLIDAY TABLE:
  Public holidays are a fixed set of (month, day) pairs applied to every
  year the range spans. The table is deliberately not year-specific: the
  engine treats the calendar as repeating, which is what keeps the
  251 working-days-per-year approximation in accrual.go stable.

SEE ALSO:
  - accrual.go: Converts working-day counts into accrued annual leave
*/
package leave

import "time"

// =============================================================================
// PUBLIC HOLIDAY TABLE - Fixed (month, day) pairs, repeated yearly
// =============================================================================

type holiday struct {
	Month time.Month
	Day   int
	Name  string
}

var publicHolidays = []holiday{
	{time.January, 1, "New Year's Day"},
	{time.January, 2, "Day after New Year"},
	{time.February, 1, "National Heroes' Day"},
	{time.April, 7, "Genocide Memorial Day"},
	{time.May, 1, "Labour Day"},
	{time.July, 1, "Independence Day"},
	{time.July, 4, "Liberation Day"},
	{time.August, 15, "Assumption Day"},
	{time.December, 25, "Christmas Day"},
	{time.December, 26, "Boxing Day"},
}

// IsPublicHoliday reports whether the date matches the fixed holiday table.
func IsPublicHoliday(d Date) bool {
	for _, h := range publicHolidays {
		if d.Month() == h.Month && d.Day() == h.Day {
			return true
		}
	}
	return false
}

// IsWorkingDay reports whether the date is a Monday-Friday non-holiday.
func IsWorkingDay(d Date) bool {
	return !d.IsWeekend() && !IsPublicHoliday(d)
}

// =============================================================================
// WORKING-DAY COUNT
// =============================================================================

// CountWorkingDays returns the number of working days in [start, end],
// inclusive of both endpoints. Returns 0 when start is after end; never
// negative, never an error.
func CountWorkingDays(start, end Date) int {
	if start.After(end) {
		return 0
	}

	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if IsWorkingDay(d) {
			count++
		}
	}
	return count
}

// Holidays returns the fixed holiday dates for one year, for display.
func Holidays(year int) []Date {
	dates := make([]Date, len(publicHolidays))
	for i, h := range publicHolidays {
		dates[i] = NewDate(year, h.Month, h.Day)
	}
	return dates
}
