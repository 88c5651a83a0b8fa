package rrecur

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// defaultIterationBudget bounds the candidate/exclusion retry loops used by
// getNextDateTime/getPreviousDateTime and by the observance
// shift-and-rescan loop below. It is a package variable, not a constant,
// so tests can lower it.
var defaultIterationBudget = 1000

// maxExpansionIterations caps unbounded forward scans (TimesInInterval over
// a CronSource) so a never-ending source cannot hang a caller.
var maxExpansionIterations = 100000

// SetIterationBudget overrides the exclusion-retry circuit breaker used by
// Recurrence.GetNextDateTime/GetPreviousDateTime and rule-level observance
// rescans. Intended for tests and for the config package's tunables
// loader; n must be >= 1.
func SetIterationBudget(n int) {
	if n >= 1 {
		defaultIterationBudget = n
	}
}

// IterationBudget returns the current exclusion-retry circuit breaker
// value.
func IterationBudget() int {
	return defaultIterationBudget
}

// OccurrenceSource is the common query surface both RecurrenceRule and
// CronSource implement, letting a Recurrence fold over a mix of RFC 5545
// rules and cron-based sources uniformly.
type OccurrenceSource interface {
	RecursAt(t time.Time) bool
	GetNextDate(after time.Time) (time.Time, bool)
	GetPreviousDate(before time.Time) (time.Time, bool)
	TimesInInterval(start, end time.Time) []time.Time
}

// RecurrenceRule is one RFC 5545 RRULE/EXRULE: frequency, interval, limit,
// and BY-filters. It is the engine's algorithmic heart,
// built on github.com/teambition/rrule-go for the base-period lattice and
// BY-filter expand/limit mechanics, with the pointwise query surface,
// classification, and optional observance shifting layered on top.
type RecurrenceRule struct {
	Frequency    int
	Period       PeriodType
	StartInstant time.Time
	Termination  Termination
	WeekStart    time.Weekday
	AllDay       bool

	BySecond     []int
	ByMinute     []int
	ByHour       []int
	ByDay        []WeekdayPosition
	ByMonthDay   []int
	ByYearDay    []int
	ByWeekNumber []int
	ByMonth      []int
	BySetPos     []int

	// Observance is an optional additive extension with no RFC 5545
	// equivalent. A nil/zero-value policy leaves the rule exactly RFC 5545.
	Observance *ObservancePolicy

	base  *rrule.RRule
	owner *Recurrence // non-owning back-reference, severed on removal
}

// RecurrenceRuleOptions is the input model fed by an iCalendar codec,
// validated and converted into a RecurrenceRule by NewRecurrenceRule.
type RecurrenceRuleOptions struct {
	Frequency    int
	Period       PeriodType
	StartInstant time.Time
	Termination  Termination
	// WeekStart is left at its zero value (time.Sunday) to mean "use the
	// iCalendar default," which is Monday, not Sunday. An explicit
	// time.Sunday is the same zero value and also resolves to Monday; a
	// week starting on Sunday cannot be requested through this field.
	WeekStart time.Weekday
	AllDay    bool

	BySecond     []int
	ByMinute     []int
	ByHour       []int
	ByDay        []WeekdayPosition
	ByMonthDay   []int
	ByYearDay    []int
	ByWeekNumber []int
	ByMonth      []int
	BySetPos     []int

	Observance *ObservancePolicy
}

// NewRecurrenceRule validates opts and builds a RecurrenceRule. Construction
// is the only place this package returns an error; every query
// method below is total.
func NewRecurrenceRule(opts RecurrenceRuleOptions) (*RecurrenceRule, error) {
	if opts.Frequency < 1 {
		return nil, newInvalidRuleError(ReasonBadFrequency, "frequency", opts.Frequency)
	}
	if !opts.Period.IsValid() {
		return nil, newInvalidRuleError(ReasonBadPeriod, "period", opts.Period)
	}
	switch opts.Termination.Kind {
	case TerminationCount:
		if opts.Termination.Count < 1 {
			return nil, newInvalidRuleError(ReasonBadCount, "termination.count", opts.Termination.Count)
		}
	case TerminationUntil:
		if opts.Termination.Until.IsZero() {
			return nil, newInvalidRuleError(ReasonConflictingTermination, "termination.until", opts.Termination.Until)
		}
	case TerminationNever:
	default:
		return nil, newInvalidRuleError(ReasonConflictingTermination, "termination.kind", opts.Termination.Kind)
	}
	if opts.AllDay {
		h, m, s := opts.StartInstant.Clock()
		if h != 0 || m != 0 || s != 0 || opts.StartInstant.Nanosecond() != 0 {
			return nil, newInvalidRuleError(ReasonOutOfRange, "startInstant", opts.StartInstant)
		}
	}
	if err := validateRange("bySecond", opts.BySecond, 0, 60, false); err != nil {
		return nil, err
	}
	if err := validateRange("byMinute", opts.ByMinute, 0, 59, false); err != nil {
		return nil, err
	}
	if err := validateRange("byHour", opts.ByHour, 0, 23, false); err != nil {
		return nil, err
	}
	if err := validateRange("byMonthDay", opts.ByMonthDay, 1, 31, true); err != nil {
		return nil, err
	}
	if err := validateRange("byYearDay", opts.ByYearDay, 1, 366, true); err != nil {
		return nil, err
	}
	if err := validateRange("byWeekNumber", opts.ByWeekNumber, 1, 53, true); err != nil {
		return nil, err
	}
	if err := validateRange("byMonth", opts.ByMonth, 1, 12, false); err != nil {
		return nil, err
	}
	for _, v := range opts.BySetPos {
		if v == 0 {
			return nil, newInvalidRuleError(ReasonBadSetPos, "bySetPos", v)
		}
	}
	if err := validateRange("bySetPos", opts.BySetPos, 1, 366, true); err != nil {
		return nil, err
	}
	if opts.WeekStart < time.Sunday || opts.WeekStart > time.Saturday {
		return nil, newInvalidRuleError(ReasonBadWeekStart, "weekStart", opts.WeekStart)
	}
	// time.Weekday's zero value is Sunday, so a caller who never sets
	// WeekStart is indistinguishable from one who explicitly asked for
	// Sunday. iCalendar's default week start is Monday, so treat the
	// zero value as "unset" and default to Monday.
	weekStart := opts.WeekStart
	if weekStart == time.Sunday {
		weekStart = time.Monday
	}
	for _, wd := range opts.ByDay {
		if wd.Offset < -53 || wd.Offset > 53 {
			return nil, newInvalidRuleError(ReasonOutOfRange, "byDay.offset", wd.Offset)
		}
	}
	byDay := append([]WeekdayPosition{}, opts.ByDay...)
	// WEEKLY + BYDAY with a non-zero offset is ill-formed; treat the
	// offset as zero rather than reject.
	if opts.Period == PeriodWeekly {
		for i := range byDay {
			byDay[i].Offset = 0
		}
	}

	r := &RecurrenceRule{
		Frequency:    opts.Frequency,
		Period:       opts.Period,
		StartInstant: opts.StartInstant,
		Termination:  opts.Termination,
		WeekStart:    weekStart,
		AllDay:       opts.AllDay,
		BySecond:     append([]int{}, opts.BySecond...),
		ByMinute:     append([]int{}, opts.ByMinute...),
		ByHour:       append([]int{}, opts.ByHour...),
		ByDay:        byDay,
		ByMonthDay:   append([]int{}, opts.ByMonthDay...),
		ByYearDay:    append([]int{}, opts.ByYearDay...),
		ByWeekNumber: append([]int{}, opts.ByWeekNumber...),
		ByMonth:      append([]int{}, opts.ByMonth...),
		BySetPos:     append([]int{}, opts.BySetPos...),
		Observance:   opts.Observance,
	}
	if err := r.rebuild(); err != nil {
		return nil, newInvalidRuleError(ReasonOutOfRange, "roption", err.Error())
	}
	return r, nil
}

func validateRange(field string, vals []int, min, max int, allowNeg bool) *InvalidRuleError {
	for _, v := range vals {
		if v >= min && v <= max {
			continue
		}
		if allowNeg && v <= -min && v >= -max {
			continue
		}
		return newInvalidRuleError(ReasonOutOfRange, field, v)
	}
	return nil
}

// rebuild regenerates the underlying rrule.RRule from the rule's current
// fields; called at construction and after every mutator.
func (r *RecurrenceRule) rebuild() error {
	byweekday := make([]rrule.Weekday, 0, len(r.ByDay))
	for _, wd := range r.ByDay {
		byweekday = append(byweekday, wd.toRRuleWeekday())
	}

	opt := rrule.ROption{
		Freq:       r.Period.toFrequency(),
		Interval:   r.Frequency,
		Dtstart:    r.StartInstant,
		Wkst:       timeWeekdayToRRuleWeekday(r.WeekStart),
		Bysecond:   r.BySecond,
		Byminute:   r.ByMinute,
		Byhour:     r.ByHour,
		Byweekday:  byweekday,
		Bymonthday: r.ByMonthDay,
		Byyearday:  r.ByYearDay,
		Byweekno:   r.ByWeekNumber,
		Bymonth:    r.ByMonth,
		Bysetpos:   r.BySetPos,
	}
	switch r.Termination.Kind {
	case TerminationCount:
		opt.Count = r.Termination.Count
	case TerminationUntil:
		opt.Until = r.Termination.Until
	}

	base, err := rrule.NewRRule(opt)
	if err != nil {
		return err
	}
	r.base = base
	return nil
}

// setOwner installs the non-owning back-reference used to fan mutations out
// to the containing Recurrence.
func (r *RecurrenceRule) setOwner(rec *Recurrence) { r.owner = rec }

// detach severs the back-reference; called before a rule is removed from
// its containing Recurrence.
func (r *RecurrenceRule) detach() { r.owner = nil }

func (r *RecurrenceRule) notifyOwner() {
	if r.owner != nil {
		r.owner.recurrenceChanged(r)
	}
}

// SetStartInstant updates the rule's anchor, rebuilds the expansion, and
// notifies the containing Recurrence.
func (r *RecurrenceRule) SetStartInstant(t time.Time) {
	if r.StartInstant.Equal(t) {
		return
	}
	r.StartInstant = t
	_ = r.rebuild()
	r.notifyOwner()
}

// SetAllDay updates the rule's all-day flag. Idempotent: calling with the
// current value is a no-op.
func (r *RecurrenceRule) SetAllDay(b bool) {
	if r.AllDay == b {
		return
	}
	r.AllDay = b
	r.notifyOwner()
}

// Clone deep-copies the rule, detached from any owner; the clone never
// aliases storage with the original.
func (r *RecurrenceRule) Clone() *RecurrenceRule {
	if r == nil {
		return nil
	}
	clone := *r
	clone.BySecond = append([]int{}, r.BySecond...)
	clone.ByMinute = append([]int{}, r.ByMinute...)
	clone.ByHour = append([]int{}, r.ByHour...)
	clone.ByDay = append([]WeekdayPosition{}, r.ByDay...)
	clone.ByMonthDay = append([]int{}, r.ByMonthDay...)
	clone.ByYearDay = append([]int{}, r.ByYearDay...)
	clone.ByWeekNumber = append([]int{}, r.ByWeekNumber...)
	clone.ByMonth = append([]int{}, r.ByMonth...)
	clone.BySetPos = append([]int{}, r.BySetPos...)
	clone.owner = nil
	_ = clone.rebuild()
	return &clone
}

// isPlusMode reports whether observance shifting/filtering is active; when
// it is not, queries delegate straight to rrule-go with no extra work.
func (r *RecurrenceRule) isPlusMode() bool {
	return r.Observance.IsActive()
}

func (r *RecurrenceRule) isValid(t time.Time) bool {
	return r.Observance.admits(t)
}

func (r *RecurrenceRule) applyShift(t time.Time) time.Time {
	return r.Observance.apply(t)
}

// scan repeatedly asks rrule-go for the next/previous raw candidate,
// shifts it per the observance policy, and accepts it if it still passes
// the filter, retrying up to the iteration budget.
func (r *RecurrenceRule) scan(forward bool, t time.Time, inclusive bool) (time.Time, bool) {
	cursor := t
	step := time.Second
	if !forward {
		step = -step
	}

	for attempts := 0; attempts < defaultIterationBudget; attempts++ {
		var next time.Time
		if forward {
			next = r.base.After(cursor, inclusive)
		} else {
			next = r.base.Before(cursor, inclusive)
		}
		if next.IsZero() {
			return time.Time{}, false
		}
		adjusted := r.applyShift(next)
		if r.isValid(adjusted) {
			return adjusted, true
		}
		cursor = next.Add(step)
		inclusive = false
	}
	return time.Time{}, false
}

// RecursAt reports whether t is an occurrence of this rule.
func (r *RecurrenceRule) RecursAt(t time.Time) bool {
	if r == nil || r.base == nil || t.Before(r.StartInstant) {
		return false
	}
	if !r.isPlusMode() {
		candidate := r.base.Before(t, true)
		return !candidate.IsZero() && candidate.Equal(t)
	}
	// Plus-mode membership: an instant recurs iff scanning forward from
	// just before it lands exactly on it.
	got, ok := r.scan(true, t.Add(-time.Nanosecond), true)
	return ok && got.Equal(t)
}

// RecursOn reports whether any occurrence's date equals date when projected
// into zone.
func (r *RecurrenceRule) RecursOn(date time.Time, zone *time.Location) bool {
	return len(r.RecurTimesOn(date, zone)) > 0
}

// RecurTimesOn returns every occurrence wall-clock time whose date in zone
// equals date's date, sorted ascending.
func (r *RecurrenceRule) RecurTimesOn(date time.Time, zone *time.Location) []time.Time {
	if r == nil || r.base == nil {
		return nil
	}
	if zone == nil {
		zone = time.UTC
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, zone)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	var out []time.Time
	for _, t := range r.TimesInInterval(dayStart, dayEnd) {
		out = append(out, t.In(zone))
	}
	return out
}

// TimesInInterval returns every occurrence in [start, end], inclusive of
// both endpoints, sorted ascending and duplicate-free.
func (r *RecurrenceRule) TimesInInterval(start, end time.Time) []time.Time {
	if r == nil || r.base == nil || end.Before(start) {
		return nil
	}
	if !r.isPlusMode() {
		return r.base.Between(start, end, true)
	}

	var out []time.Time
	raw := r.base.Between(start, end, true)
	for _, t := range raw {
		adjusted := r.applyShift(t)
		if r.isValid(adjusted) && !adjusted.Before(start) && !adjusted.After(end) {
			out = append(out, adjusted)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// GetNextDate returns the smallest occurrence strictly greater than after.
func (r *RecurrenceRule) GetNextDate(after time.Time) (time.Time, bool) {
	if r == nil || r.base == nil {
		return time.Time{}, false
	}
	if !r.isPlusMode() {
		next := r.base.After(after, false)
		if next.IsZero() {
			return time.Time{}, false
		}
		return next, true
	}
	return r.scan(true, after, false)
}

// GetPreviousDate returns the largest occurrence strictly less than before.
func (r *RecurrenceRule) GetPreviousDate(before time.Time) (time.Time, bool) {
	if r == nil || r.base == nil {
		return time.Time{}, false
	}
	if !r.isPlusMode() {
		prev := r.base.Before(before, false)
		if prev.IsZero() {
			return time.Time{}, false
		}
		return prev, true
	}
	return r.scan(false, before, false)
}

// Duration returns the occurrence count for Count termination, -1 for
// Never, or the derived count for Until.
func (r *RecurrenceRule) Duration() int {
	if r == nil {
		return 0
	}
	switch r.Termination.Kind {
	case TerminationCount:
		return r.Termination.Count
	case TerminationNever:
		return -1
	case TerminationUntil:
		return r.DurationTo(r.Termination.Until)
	default:
		return -1
	}
}

// DurationTo returns the number of occurrences at or before t.
func (r *RecurrenceRule) DurationTo(t time.Time) int {
	if r == nil || r.base == nil || t.Before(r.StartInstant) {
		return 0
	}
	return len(r.TimesInInterval(r.StartInstant, t))
}

// GetOccurrenceNumber returns the 1-based index of t within the rule's
// occurrence sequence if t is itself an occurrence, else -1.
func (r *RecurrenceRule) GetOccurrenceNumber(t time.Time) int {
	if r == nil || !r.RecursAt(t) {
		return -1
	}
	return r.DurationTo(t)
}

// EndInstant returns the rule's terminal instant: none for Never, Until for
// Until, or the last occurrence for Count.
func (r *RecurrenceRule) EndInstant() (time.Time, bool) {
	if r == nil || r.base == nil {
		return time.Time{}, false
	}
	switch r.Termination.Kind {
	case TerminationNever:
		return time.Time{}, false
	case TerminationUntil:
		return r.Termination.Until, true
	case TerminationCount:
		all := r.base.All()
		if len(all) == 0 {
			return time.Time{}, false
		}
		last := all[len(all)-1]
		if r.isPlusMode() {
			last = r.applyShift(last)
		}
		return last, true
	default:
		return time.Time{}, false
	}
}

// RecurrenceType classifies the rule§9.
func (r *RecurrenceRule) RecurrenceType() RecurrenceKind {
	return classify(r)
}
