package rrecur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRule(t *testing.T, opts RecurrenceRuleOptions) *RecurrenceRule {
	t.Helper()
	r, err := NewRecurrenceRule(opts)
	require.NoError(t, err)
	return r
}

// S1. Weekly on Monday, 5 occurrences.
func TestRecurrenceRule_S1_WeeklyOnMonday(t *testing.T) {
	anchor := time.Date(2020, 1, 6, 9, 0, 0, 0, time.UTC)
	r := mustRule(t, RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodWeekly,
		StartInstant: anchor,
		Termination:  UntilCount(5),
		ByDay:        []WeekdayPosition{NewWeekdayPosition(time.Monday)},
	})

	end, ok := r.EndInstant()
	require.True(t, ok)
	assert.True(t, end.Equal(time.Date(2020, 2, 3, 9, 0, 0, 0, time.UTC)))

	got := r.TimesInInterval(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC))
	want := []time.Time{
		time.Date(2020, 1, 6, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 13, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 20, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 1, 27, 9, 0, 0, 0, time.UTC),
		time.Date(2020, 2, 3, 9, 0, 0, 0, time.UTC),
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].Equal(want[i]), "index %d: got %v want %v", i, got[i], want[i])
	}
}

// S2. Monthly on last Friday until.
func TestRecurrenceRule_S2_MonthlyLastFriday(t *testing.T) {
	anchor := time.Date(2021, 1, 29, 12, 0, 0, 0, time.UTC)
	until := time.Date(2021, 6, 30, 23, 59, 0, 0, time.UTC)
	r := mustRule(t, RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodMonthly,
		StartInstant: anchor,
		Termination:  UntilInstant(until),
		ByDay:        []WeekdayPosition{NewWeekdayPositionN(time.Friday, -1)},
	})

	got := r.TimesInInterval(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC))
	want := []time.Time{
		time.Date(2021, 1, 29, 12, 0, 0, 0, time.UTC),
		time.Date(2021, 2, 26, 12, 0, 0, 0, time.UTC),
		time.Date(2021, 3, 26, 12, 0, 0, 0, time.UTC),
		time.Date(2021, 4, 30, 12, 0, 0, 0, time.UTC),
		time.Date(2021, 5, 28, 12, 0, 0, 0, time.UTC),
		time.Date(2021, 6, 25, 12, 0, 0, 0, time.UTC),
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].Equal(want[i]), "index %d: got %v want %v", i, got[i], want[i])
	}
}

// S4. All-day yearly on Feb 29.
func TestRecurrenceRule_S4_LeapDayYearly(t *testing.T) {
	anchor := time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC)
	r := mustRule(t, RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodYearly,
		StartInstant: anchor,
		Termination:  Never(),
		AllDay:       true,
		ByMonth:      []int{2},
		ByMonthDay:   []int{29},
	})

	assert.False(t, r.RecursOn(time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC), time.UTC))
	assert.True(t, r.RecursOn(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), time.UTC))
}

// S5. BYSETPOS last weekday of month.
func TestRecurrenceRule_S5_BySetPosLastWeekday(t *testing.T) {
	anchor := time.Date(2023, 1, 31, 17, 0, 0, 0, time.UTC)
	r := mustRule(t, RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodMonthly,
		StartInstant: anchor,
		Termination:  UntilCount(3),
		ByDay: []WeekdayPosition{
			NewWeekdayPosition(time.Monday),
			NewWeekdayPosition(time.Tuesday),
			NewWeekdayPosition(time.Wednesday),
			NewWeekdayPosition(time.Thursday),
			NewWeekdayPosition(time.Friday),
		},
		BySetPos: []int{-1},
	})

	got := r.TimesInInterval(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC))
	want := []time.Time{
		time.Date(2023, 1, 31, 17, 0, 0, 0, time.UTC),
		time.Date(2023, 2, 28, 17, 0, 0, 0, time.UTC),
		time.Date(2023, 3, 31, 17, 0, 0, 0, time.UTC),
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].Equal(want[i]))
	}
}

func TestNewRecurrenceRule_RejectsBadFrequency(t *testing.T) {
	_, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    0,
		Period:       PeriodDaily,
		StartInstant: time.Now(),
		Termination:  Never(),
	})
	require.Error(t, err)
	var invalid *InvalidRuleError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, ReasonBadFrequency, invalid.Reason)
}

func TestNewRecurrenceRule_RejectsZeroBySetPos(t *testing.T) {
	_, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodMonthly,
		StartInstant: time.Now(),
		Termination:  Never(),
		BySetPos:     []int{0},
	})
	require.Error(t, err)
	var invalid *InvalidRuleError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, ReasonBadSetPos, invalid.Reason)
}

func TestNewRecurrenceRule_DefaultsWeekStartToMonday(t *testing.T) {
	r := mustRule(t, RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodWeekly,
		StartInstant: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Termination:  Never(),
	})
	assert.Equal(t, time.Monday, r.WeekStart)
}

func TestNewRecurrenceRule_ExplicitSundayWeekStart(t *testing.T) {
	r, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodWeekly,
		StartInstant: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Termination:  Never(),
		WeekStart:    time.Sunday,
	})
	require.NoError(t, err)
	// Sunday and "unset" are the same zero value; NewRecurrenceRule treats
	// both as "use the iCalendar default" and resolves to Monday.
	assert.Equal(t, time.Monday, r.WeekStart)
}

func TestNewRecurrenceRule_RejectsOutOfRangeWeekStart(t *testing.T) {
	_, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodWeekly,
		StartInstant: time.Now(),
		Termination:  Never(),
		WeekStart:    time.Weekday(9),
	})
	require.Error(t, err)
	var invalid *InvalidRuleError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, ReasonBadWeekStart, invalid.Reason)
}

func TestRecurrenceRule_GetOccurrenceNumber(t *testing.T) {
	anchor := time.Date(2022, 3, 1, 8, 0, 0, 0, time.UTC)
	r := mustRule(t, RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodDaily,
		StartInstant: anchor,
		Termination:  UntilCount(5),
	})

	assert.Equal(t, 1, r.GetOccurrenceNumber(anchor))
	assert.Equal(t, 3, r.GetOccurrenceNumber(anchor.AddDate(0, 0, 2)))
	assert.Equal(t, -1, r.GetOccurrenceNumber(anchor.AddDate(0, 0, 2).Add(time.Minute)))
}
