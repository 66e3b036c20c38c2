package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rightseat/leave-engine/leave"
)

// =============================================================================
// WORKING DAY CLASSIFICATION
// =============================================================================

func TestIsWorkingDay_Weekdays(t *testing.T) {
	// GIVEN: A plain week with no holidays in it
	// THEN: Monday through Friday are working days, Saturday and Sunday are not

	monday := leave.NewDate(2025, time.March, 10)
	for i := 0; i < 5; i++ {
		d := monday.AddDays(i)
		assert.True(t, leave.IsWorkingDay(d), "expected %s to be a working day", d)
	}
	assert.False(t, leave.IsWorkingDay(monday.AddDays(5)), "Saturday")
	assert.False(t, leave.IsWorkingDay(monday.AddDays(6)), "Sunday")
}

func TestIsWorkingDay_PublicHolidays(t *testing.T) {
	// GIVEN: Fixed-date public holidays falling on weekdays
	// THEN: They are never working days, regardless of year

	cases := []leave.Date{
		leave.NewDate(2025, time.January, 1),  // Wednesday
		leave.NewDate(2025, time.May, 1),      // Thursday
		leave.NewDate(2025, time.December, 25), // Thursday
		leave.NewDate(2024, time.July, 1),     // Monday
	}
	for _, d := range cases {
		assert.True(t, leave.IsPublicHoliday(d), "%s should be a public holiday", d)
		assert.False(t, leave.IsWorkingDay(d), "%s should not be a working day", d)
	}
}

func TestIsPublicHoliday_OrdinaryDay(t *testing.T) {
	assert.False(t, leave.IsPublicHoliday(leave.NewDate(2025, time.March, 12)))
}

// =============================================================================
// WORKING DAY COUNTING
// =============================================================================

func TestCountWorkingDays_InclusiveEndpoints(t *testing.T) {
	// GIVEN: Monday through Friday of a holiday-free week
	// WHEN: Counting working days over the range
	// THEN: Both endpoints are included

	monday := leave.NewDate(2025, time.March, 10)
	friday := leave.NewDate(2025, time.March, 14)

	assert.Equal(t, 5, leave.CountWorkingDays(monday, friday))
	assert.Equal(t, 1, leave.CountWorkingDays(monday, monday), "single-day range counts itself")
}

func TestCountWorkingDays_SpanningWeekend(t *testing.T) {
	// Friday through the following Monday: the weekend contributes nothing.
	friday := leave.NewDate(2025, time.March, 14)
	nextMonday := leave.NewDate(2025, time.March, 17)

	assert.Equal(t, 2, leave.CountWorkingDays(friday, nextMonday))
}

func TestCountWorkingDays_ExcludesHolidays(t *testing.T) {
	// GIVEN: A range containing Dec 25 and Dec 26, 2025 (Thu, Fri)
	// THEN: Both holidays are excluded from the count

	start := leave.NewDate(2025, time.December, 22) // Monday
	end := leave.NewDate(2025, time.December, 26)   // Friday

	assert.Equal(t, 3, leave.CountWorkingDays(start, end))
}

func TestCountWorkingDays_StartAfterEnd(t *testing.T) {
	start := leave.NewDate(2025, time.March, 14)
	end := leave.NewDate(2025, time.March, 10)

	assert.Equal(t, 0, leave.CountWorkingDays(start, end))
}

func TestCountWorkingDays_WeekendOnly(t *testing.T) {
	saturday := leave.NewDate(2025, time.March, 15)
	sunday := leave.NewDate(2025, time.March, 16)

	assert.Equal(t, 0, leave.CountWorkingDays(saturday, sunday))
}

func TestCountWorkingDays_FullYears(t *testing.T) {
	// Full calendar years land close to the 251-day approximation used by
	// the accrual formula. The exact value shifts with how many holidays
	// fall on weekends.
	cases := []struct {
		year int
		want int
	}{
		{2023, 252},
		{2024, 253},
	}
	for _, tc := range cases {
		start := leave.NewDate(tc.year, time.January, 1)
		end := leave.NewDate(tc.year, time.December, 31)
		assert.Equal(t, tc.want, leave.CountWorkingDays(start, end), "year %d", tc.year)
	}
}

func TestHolidays_ForYear(t *testing.T) {
	holidays := leave.Holidays(2025)
	assert.Len(t, holidays, 10)
	assert.Equal(t, leave.NewDate(2025, time.January, 1), holidays[0])
}
