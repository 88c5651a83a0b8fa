package rrecur

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// Describe renders a short, human-readable summary of the rule.
func (r *RecurrenceRule) Describe() string {
	if r == nil {
		return ""
	}
	var out []string

	if r.Frequency > 1 {
		out = append(out, fmt.Sprintf("Every %d %ss", r.Frequency, strings.ToLower(string(r.Period))))
	} else {
		out = append(out, "Every "+strings.ToLower(string(r.Period)))
	}

	switch r.Termination.Kind {
	case TerminationCount:
		out = append(out, fmt.Sprintf("up to %d times", r.Termination.Count))
	case TerminationUntil:
		out = append(out, "until "+r.Termination.Until.Format("2006-01-02"))
	}

	if len(r.ByDay) > 0 {
		labels := make([]string, 0, len(r.ByDay))
		for _, wd := range r.ByDay {
			labels = append(labels, describeWeekdayPosition(wd))
		}
		out = append(out, "on "+strings.Join(labels, ", "))
	}
	if len(r.ByMonthDay) > 0 {
		out = append(out, fmt.Sprintf("on month days %v", r.ByMonthDay))
	}
	if len(r.ByMonth) > 0 {
		out = append(out, fmt.Sprintf("in months %v", r.ByMonth))
	}
	if r.Observance.IsActive() {
		out = append(out, "with observance shifting")
	}

	return titleCaser.String(strings.Join(out, ", "))
}

func describeWeekdayPosition(wd WeekdayPosition) string {
	name := wd.Weekday.String()
	if wd.Offset == 0 {
		return name
	}
	return humanize.Ordinal(wd.Offset) + " " + name
}

// DescribeRelativeTo renders when the rule's next occurrence after now falls
// relative to now, e.g. "3 days from now".
func (r *RecurrenceRule) DescribeRelativeTo(now time.Time) string {
	next, ok := r.GetNextDate(now)
	if !ok {
		return ""
	}
	return humanize.RelTime(next, now, "ago", "from now")
}
