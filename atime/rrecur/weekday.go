package rrecur

import (
	"time"

	"github.com/teambition/rrule-go"
)

// WeekdayPosition pairs a weekday with an optional ordinal offset, as used
// in BYDAY rule parts (e.g. "2MO" is the second Monday, "-1FR" is the last
// Friday of the base period). Offset zero means every occurrence of the
// weekday within the base period.
type WeekdayPosition struct {
	Weekday time.Weekday
	Offset  int
}

// NewWeekdayPosition builds a WeekdayPosition with no ordinal offset.
func NewWeekdayPosition(wd time.Weekday) WeekdayPosition {
	return WeekdayPosition{Weekday: wd}
}

// NewWeekdayPositionN builds a WeekdayPosition with an explicit ordinal
// offset (positive counts from the start of the base period, negative from
// the end).
func NewWeekdayPositionN(wd time.Weekday, offset int) WeekdayPosition {
	return WeekdayPosition{Weekday: wd, Offset: offset}
}

// toRRuleWeekday converts to the rrule-go representation, applying the
// ordinal offset via rrule.Weekday.Nth.
func (w WeekdayPosition) toRRuleWeekday() rrule.Weekday {
	day := timeWeekdayToRRuleWeekday(w.Weekday)
	if w.Offset == 0 {
		return day
	}
	return day.Nth(w.Offset)
}

// timeWeekdayToRRuleWeekday converts a single time.Weekday to its
// corresponding rrule.Weekday.
func timeWeekdayToRRuleWeekday(d time.Weekday) rrule.Weekday {
	switch d {
	case time.Sunday:
		return rrule.SU
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.MO
	}
}
