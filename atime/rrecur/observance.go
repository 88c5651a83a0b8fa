package rrecur

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	cal_us "github.com/rickar/cal/v2/us"
)

// isWeekendByTime reports whether t falls on a Saturday or Sunday.
func isWeekendByTime(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// HolidayCalendar is the holiday-awareness abstraction an ObservancePolicy
// consults. rickar/cal/v2's *cal.BusinessCalendar satisfies it directly.
type HolidayCalendar interface {
	AddHoliday(holiday ...*cal.Holiday)
	IsHoliday(date time.Time) (actual, observed bool, h *cal.Holiday)
}

// ObservanceMode names a business-day fallback direction applied when a
// computed occurrence lands on a weekend or holiday.
type ObservanceMode string

const (
	ObservanceNone           ObservanceMode = ""
	ObservanceNextBizDay     ObservanceMode = "next-business-day"
	ObservancePreviousBizDay ObservanceMode = "previous-business-day"
)

// IsEmpty reports whether the mode is unset.
func (om ObservanceMode) IsEmpty() bool { return strings.TrimSpace(string(om)) == "" }

var (
	calendarRegistry   = make(map[string]HolidayCalendar)
	calendarRegistryMu sync.RWMutex
)

// RegisterCalendar installs a calendar under a normalized ISO region code so
// it can be resolved by ObservancePolicy.ISOCode without rebuilding it.
func RegisterCalendar(isoCode string, hc HolidayCalendar) {
	isoCode = normalizeISOCode(isoCode)
	calendarRegistryMu.Lock()
	defer calendarRegistryMu.Unlock()
	calendarRegistry[isoCode] = hc
}

// resolveCalendar looks up a registered calendar, building and registering
// the US business calendar lazily the first time "us" is requested.
func resolveCalendar(isoCode string) (HolidayCalendar, error) {
	isoCode = normalizeISOCode(isoCode)
	if isoCode == "" {
		return nil, fmt.Errorf("rrecur: empty ISO region code")
	}

	calendarRegistryMu.RLock()
	hc, ok := calendarRegistry[isoCode]
	calendarRegistryMu.RUnlock()
	if ok {
		return hc, nil
	}

	bc := cal.NewBusinessCalendar()
	switch isoCode {
	case "us":
		bc.AddHoliday(cal_us.Holidays...)
	default:
		return nil, fmt.Errorf("rrecur: unsupported ISO region code %q", isoCode)
	}
	RegisterCalendar(isoCode, bc)
	return bc, nil
}

func normalizeISOCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ObservancePolicy is an optional, additive extension to a RecurrenceRule
// that shifts a computed occurrence off weekends and/or holidays. With a
// zero-value policy, a rule behaves exactly per RFC 5545;
// the policy only ever relaxes where an occurrence lands, never which
// periods it considers.
type ObservancePolicy struct {
	ShiftOffWeekend  bool
	ShiftOffHolidays bool
	Observance       ObservanceMode
	ISOCode          string
	Calendar         HolidayCalendar
	Filter           func(time.Time) bool
}

// IsActive reports whether the policy changes anything (an absent policy
// should be skipped entirely on the fast pass-through path).
func (p *ObservancePolicy) IsActive() bool {
	if p == nil {
		return false
	}
	return p.ShiftOffWeekend || p.ShiftOffHolidays || !p.Observance.IsEmpty() || p.ISOCode != "" || p.Filter != nil
}

func (p *ObservancePolicy) calendar() HolidayCalendar {
	if p.Calendar != nil {
		return p.Calendar
	}
	if p.ISOCode != "" {
		if hc, err := resolveCalendar(p.ISOCode); err == nil {
			return hc
		}
	}
	return nil
}

// apply shifts t forward/backward according to the configured fallback
// modes.
func (p *ObservancePolicy) apply(t time.Time) time.Time {
	if p == nil {
		return t
	}

	if p.ShiftOffWeekend {
		switch t.Weekday() {
		case time.Saturday:
			t = t.AddDate(0, 0, 2)
		case time.Sunday:
			t = t.AddDate(0, 0, 1)
		}
	}

	hc := p.calendar()

	if p.ShiftOffHolidays && hc != nil {
		for attempts := 0; attempts < 366; attempts++ {
			actual, observed, _ := hc.IsHoliday(t)
			if !actual && !observed {
				break
			}
			t = t.AddDate(0, 0, 1)
		}
	}

	if !p.Observance.IsEmpty() && hc != nil {
		switch p.Observance {
		case ObservanceNextBizDay:
			for attempts := 0; attempts < 366; attempts++ {
				actual, observed, _ := hc.IsHoliday(t)
				if !actual && !observed && !isWeekendByTime(t) {
					break
				}
				t = t.AddDate(0, 0, 1)
			}
		case ObservancePreviousBizDay:
			for attempts := 0; attempts < 366; attempts++ {
				actual, observed, _ := hc.IsHoliday(t)
				if !actual && !observed && !isWeekendByTime(t) {
					break
				}
				t = t.AddDate(0, 0, -1)
			}
		}
	}

	return t
}

// admits reports whether the (already shifted) instant passes the optional
// scripted/custom filter.
func (p *ObservancePolicy) admits(t time.Time) bool {
	if p == nil || p.Filter == nil {
		return true
	}
	return p.Filter(t)
}
