package rrecur

import (
	"time"

	"github.com/mileusna/timezones"
)

// TimeProvider is an abstraction over instant arithmetic and zone handling.
// RecurrenceRule and Recurrence do not accept or consult a TimeProvider;
// they compute with the time package and rrule-go directly. Every method
// must return for every valid input with no error path. The zero-value
// StdTimeProvider satisfies it using only the standard library's time
// package plus a static IANA zone list.
type TimeProvider interface {
	// Now returns the current instant; the only non-deterministic method,
	// used solely as a default reference instant by callers, never by the
	// pure engine types themselves.
	Now() time.Time

	// ConvertZone reprojects t into loc, preserving the absolute moment.
	ConvertZone(t time.Time, loc *time.Location) time.Time

	// ShiftZone rewrites t's zone to loc while preserving its wall-clock
	// fields (year, month, day, hour, minute, second, nanosecond).
	ShiftZone(t time.Time, loc *time.Location) time.Time

	// AddPeriod adds count*period to t, preserving wall-clock fields across
	// DST transitions (i.e. "same time tomorrow" lands on the same
	// wall-clock hour even if the UTC offset changed).
	AddPeriod(t time.Time, period PeriodType, count int) time.Time

	// NthWeekdayOfMonth returns the nth occurrence (1-based, negative counts
	// from the end) of wd within the month containing t, and whether one
	// exists (months can have at most five, never six).
	NthWeekdayOfMonth(t time.Time, wd time.Weekday, n int) (time.Time, bool)

	// NthWeekdayOfYear is the year-scoped analogue of NthWeekdayOfMonth.
	NthWeekdayOfYear(t time.Time, wd time.Weekday, n int) (time.Time, bool)

	// DayOfYearIndex returns the 1-based index of t within its year, and the
	// 1-based index counting from the end (negative-offset convention), as
	// (fromStart, fromEnd).
	DayOfYearIndex(t time.Time) (fromStart, fromEnd int)

	// DayOfMonthIndex is the month-scoped analogue of DayOfYearIndex.
	DayOfMonthIndex(t time.Time) (fromStart, fromEnd int)

	// ISOWeek returns the ISO-8601 (year, week) pair for t.
	ISOWeek(t time.Time) (year, week int)

	// LoadLocation resolves an IANA zone name, falling back to UTC when the
	// name is empty or unknown so the method stays total.
	LoadLocation(name string) *time.Location

	// SupportedZones lists the IANA zone names the provider recognizes by
	// name, for callers building zone pickers.
	SupportedZones() []string
}

// StdTimeProvider is the default TimeProvider, backed entirely by the
// standard library's time package. mileusna/timezones supplies only the
// static zone-name listing consumed by SupportedZones.
type StdTimeProvider struct{}

// NewStdTimeProvider returns the default, stateless TimeProvider.
func NewStdTimeProvider() *StdTimeProvider {
	return &StdTimeProvider{}
}

func (StdTimeProvider) Now() time.Time { return time.Now() }

func (StdTimeProvider) ConvertZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc)
}

func (StdTimeProvider) ShiftZone(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func (StdTimeProvider) AddPeriod(t time.Time, period PeriodType, count int) time.Time {
	switch period {
	case PeriodYearly:
		return t.AddDate(count, 0, 0)
	case PeriodMonthly:
		return t.AddDate(0, count, 0)
	case PeriodWeekly:
		return t.AddDate(0, 0, count*7)
	case PeriodDaily:
		return t.AddDate(0, 0, count)
	case PeriodHourly:
		return t.Add(time.Duration(count) * time.Hour)
	case PeriodMinutely:
		return t.Add(time.Duration(count) * time.Minute)
	case PeriodSecondly:
		return t.Add(time.Duration(count) * time.Second)
	default:
		return t
	}
}

func (StdTimeProvider) NthWeekdayOfMonth(t time.Time, wd time.Weekday, n int) (time.Time, bool) {
	if n == 0 {
		return time.Time{}, false
	}
	loc := t.Location()
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	last := first.AddDate(0, 1, -1)
	return nthWeekdayBetween(first, last, wd, n)
}

func (StdTimeProvider) NthWeekdayOfYear(t time.Time, wd time.Weekday, n int) (time.Time, bool) {
	if n == 0 {
		return time.Time{}, false
	}
	loc := t.Location()
	first := time.Date(t.Year(), time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	last := time.Date(t.Year(), time.December, 31, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return nthWeekdayBetween(first, last, wd, n)
}

// nthWeekdayBetween finds the nth (1-based, negative from end) occurrence of
// wd within [first, last] inclusive.
func nthWeekdayBetween(first, last time.Time, wd time.Weekday, n int) (time.Time, bool) {
	var matches []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == wd {
			matches = append(matches, d)
		}
	}
	if n > 0 {
		if n > len(matches) {
			return time.Time{}, false
		}
		return matches[n-1], true
	}
	idx := len(matches) + n
	if idx < 0 || idx >= len(matches) {
		return time.Time{}, false
	}
	return matches[idx], true
}

func (StdTimeProvider) DayOfYearIndex(t time.Time) (fromStart, fromEnd int) {
	yday := t.YearDay()
	daysInYear := 365
	if isLeapYear(t.Year()) {
		daysInYear = 366
	}
	return yday, yday - daysInYear - 1
}

func (StdTimeProvider) DayOfMonthIndex(t time.Time) (fromStart, fromEnd int) {
	day := t.Day()
	daysInMonth := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	return day, day - daysInMonth - 1
}

func (StdTimeProvider) ISOWeek(t time.Time) (int, int) {
	return t.ISOWeek()
}

func (StdTimeProvider) LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (StdTimeProvider) SupportedZones() []string {
	return timezones.List()
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
