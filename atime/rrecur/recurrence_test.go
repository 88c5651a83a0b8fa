package rrecur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S3. Daily with exdate.
func TestRecurrence_S3_DailyWithExdate(t *testing.T) {
	anchor := time.Date(2022, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := NewRecurrence(anchor, false)
	rr, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodDaily,
		StartInstant: anchor,
		Termination:  UntilCount(5),
	})
	require.NoError(t, err)
	rec.AddRRule(rr)
	rec.AddExDate(time.Date(2022, 3, 3, 0, 0, 0, 0, time.UTC))

	assert.False(t, rec.RecursOn(time.Date(2022, 3, 3, 0, 0, 0, 0, time.UTC), time.UTC))

	next, ok := rec.GetNextDateTime(time.Date(2022, 3, 2, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.True(t, next.Equal(time.Date(2022, 3, 4, 8, 0, 0, 0, time.UTC)))
}

// S6. Next-after with exrule.
func TestRecurrence_S6_NextAfterWithExRule(t *testing.T) {
	anchor := time.Date(2020, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRecurrence(anchor, false)
	rr, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodWeekly,
		StartInstant: anchor,
		Termination:  UntilCount(20),
	})
	require.NoError(t, err)
	rec.AddRRule(rr)

	er, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    2,
		Period:       PeriodWeekly,
		StartInstant: anchor,
		Termination:  UntilInstant(time.Date(2020, 9, 1, 0, 0, 0, 0, time.UTC)),
		ByDay:        []WeekdayPosition{NewWeekdayPosition(time.Monday)},
	})
	require.NoError(t, err)
	rec.AddExRule(er)

	next, ok := rec.GetNextDateTime(time.Date(2020, 6, 7, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.True(t, next.Equal(time.Date(2020, 6, 15, 10, 0, 0, 0, time.UTC)), "got %v", next)
}

func TestRecurrence_SetAllDay_Idempotent(t *testing.T) {
	rec := NewRecurrence(time.Now(), false)
	notifications := 0
	rec.RegisterListener(changeListenerFunc(func(*Recurrence) { notifications++ }))

	rec.SetAllDay(true)
	assert.Equal(t, 1, notifications)
	rec.SetAllDay(true)
	assert.Equal(t, 1, notifications)
	assert.True(t, rec.AllDay)
}

func TestRecurrence_Clone_DoesNotAliasRules(t *testing.T) {
	anchor := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecurrence(anchor, false)
	rr, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodDaily,
		StartInstant: anchor,
		Termination:  UntilCount(3),
	})
	require.NoError(t, err)
	rec.AddRRule(rr)

	clone := rec.Clone()
	require.True(t, rec.Equals(clone))

	clone.RRules[0].SetStartInstant(anchor.AddDate(0, 0, 1))
	assert.False(t, rec.Equals(clone))
	assert.True(t, rec.Anchor.Equal(anchor))
}

func TestRecurrence_ShiftTimes_PreservesWallClock(t *testing.T) {
	anchor := time.Date(2022, 6, 1, 9, 30, 0, 0, time.UTC)
	rec := NewRecurrence(anchor, false)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	rec.ShiftTimes(time.UTC, ny)
	assert.Equal(t, 2022, rec.Anchor.Year())
	assert.Equal(t, time.June, rec.Anchor.Month())
	assert.Equal(t, 1, rec.Anchor.Day())
	assert.Equal(t, 9, rec.Anchor.Hour())
	assert.Equal(t, 30, rec.Anchor.Minute())
	assert.Equal(t, ny, rec.Anchor.Location())
}

func TestRecurrence_AllOccurrences_BoundedByCap(t *testing.T) {
	anchor := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := NewRecurrence(anchor, false)
	rr, err := NewRecurrenceRule(RecurrenceRuleOptions{
		Frequency:    1,
		Period:       PeriodDaily,
		StartInstant: anchor,
		Termination:  Never(),
	})
	require.NoError(t, err)
	rec.AddRRule(rr)

	got := rec.AllOccurrences(10)
	assert.Len(t, got, 10)
}

type changeListenerFunc func(*Recurrence)

func (f changeListenerFunc) RecurrenceChanged(rec *Recurrence) { f(rec) }
