package rrecur

import (
	"time"

	"github.com/robfig/cron/v3"
)

// CronSource is a supplemental, non-RFC-5545 occurrence source driven by a
// standard 5-field cron expression rather than BY-filters. It implements
// OccurrenceSource so a Recurrence can mix RRULE-based and cron-based
// inclusion sources side by side (an RFC-5545-only model is
// unaffected when no CronSource is attached).
type CronSource struct {
	Expression string
	schedule   cron.Schedule
}

// NewCronSource parses a standard 5-field cron expression (minute hour
// day-of-month month day-of-week).
func NewCronSource(expression string) (*CronSource, error) {
	sched, err := cron.ParseStandard(expression)
	if err != nil {
		return nil, &InvalidRuleError{Reason: ReasonBadPeriod, Field: "expression", Value: expression}
	}
	return &CronSource{Expression: expression, schedule: sched}, nil
}

// RecursAt reports whether t is precisely the cron-computed next tick after
// the instant immediately preceding t; cron.Schedule only exposes a forward
// Next(), so membership is tested by checking that advancing from t minus a
// minimum resolution step lands back on t.
func (c *CronSource) RecursAt(t time.Time) bool {
	if c == nil || c.schedule == nil {
		return false
	}
	probe := t.Add(-time.Second)
	return c.schedule.Next(probe).Equal(t)
}

// GetNextDate returns the smallest cron tick strictly greater than after.
func (c *CronSource) GetNextDate(after time.Time) (time.Time, bool) {
	if c == nil || c.schedule == nil {
		return time.Time{}, false
	}
	next := c.schedule.Next(after)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// GetPreviousDate returns the largest cron tick strictly less than before,
// found by bounded backward stepping since cron.Schedule exposes no native
// Prev(); the schedule's own finest possible resolution is one minute, so a
// minute-granularity step cannot skip over a tick.
func (c *CronSource) GetPreviousDate(before time.Time) (time.Time, bool) {
	if c == nil || c.schedule == nil {
		return time.Time{}, false
	}
	cursor := before
	for attempts := 0; attempts < defaultIterationBudget; attempts++ {
		cursor = cursor.Add(-time.Minute)
		next := c.schedule.Next(cursor)
		if !next.IsZero() && next.Before(before) {
			return next, true
		}
	}
	return time.Time{}, false
}

// TimesInInterval returns every cron tick in [start, end], inclusive.
func (c *CronSource) TimesInInterval(start, end time.Time) []time.Time {
	if c == nil || c.schedule == nil || end.Before(start) {
		return nil
	}
	var out []time.Time
	cursor := start.Add(-time.Second)
	for attempts := 0; attempts < maxExpansionIterations; attempts++ {
		next := c.schedule.Next(cursor)
		if next.IsZero() || next.After(end) {
			break
		}
		out = append(out, next)
		cursor = next
	}
	return out
}
