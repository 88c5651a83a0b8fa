package rrecur

import (
	"strings"

	"github.com/teambition/rrule-go"
)

// PeriodType is the base recurrence unit a RecurrenceRule is built on.
type PeriodType string

const (
	PeriodNone     PeriodType = ""
	PeriodSecondly PeriodType = "SECONDLY"
	PeriodMinutely PeriodType = "MINUTELY"
	PeriodHourly   PeriodType = "HOURLY"
	PeriodDaily    PeriodType = "DAILY"
	PeriodWeekly   PeriodType = "WEEKLY"
	PeriodMonthly  PeriodType = "MONTHLY"
	PeriodYearly   PeriodType = "YEARLY"
)

// IsEmpty reports whether the period is the zero value.
func (p PeriodType) IsEmpty() bool { return p == PeriodNone }

// String returns the lower-case textual form (e.g. "weekly").
func (p PeriodType) String() string { return strings.ToLower(string(p)) }

// IsValid reports whether p is one of the seven defined periods.
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodSecondly, PeriodMinutely, PeriodHourly, PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	default:
		return false
	}
}

// toFrequency maps the period onto the rrule-go frequency constant.
func (p PeriodType) toFrequency() rrule.Frequency {
	switch p {
	case PeriodSecondly:
		return rrule.SECONDLY
	case PeriodMinutely:
		return rrule.MINUTELY
	case PeriodHourly:
		return rrule.HOURLY
	case PeriodDaily:
		return rrule.DAILY
	case PeriodWeekly:
		return rrule.WEEKLY
	case PeriodMonthly:
		return rrule.MONTHLY
	case PeriodYearly:
		return rrule.YEARLY
	default:
		return rrule.DAILY
	}
}
