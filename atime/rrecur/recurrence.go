package rrecur

import (
	"sort"
	"time"
)

// Recurrence is a bundle of zero or more inclusion rules, exclusion rules,
// explicit inclusion/exclusion dates and instants, anchored at a start
// instant, with cached classification and change notification. It owns
// its rules; removing one detaches its observer link before release.
type Recurrence struct {
	Anchor   time.Time
	AllDay   bool
	ReadOnly bool

	RRules []*RecurrenceRule
	ExRules []*RecurrenceRule

	RDates      []time.Time
	ExDates     []time.Time
	RDateTimes  []time.Time
	ExDateTimes []time.Time

	// CronSources is an additive inclusion source beyond RRULE/RDATE.
	// Deliberately excluded from Equals: equality is closed over the
	// RFC 5545 fields only.
	CronSources []*CronSource

	classification      RecurrenceKind
	classificationCached bool

	observers ObserverRegistry
}

// NewRecurrence creates an empty Recurrence anchored at anchor.
func NewRecurrence(anchor time.Time, allDay bool) *Recurrence {
	return &Recurrence{Anchor: anchor, AllDay: allDay}
}

// AddRRule appends an inclusion rule and takes ownership of it.
func (rec *Recurrence) AddRRule(r *RecurrenceRule) {
	if rec.ReadOnly || r == nil {
		return
	}
	r.setOwner(rec)
	rec.RRules = append(rec.RRules, r)
	rec.recurrenceChanged(r)
}

// RemoveRRule detaches and removes r, if present.
func (rec *Recurrence) RemoveRRule(r *RecurrenceRule) {
	rec.RRules = removeRule(rec.RRules, r)
	if r != nil {
		r.detach()
	}
	rec.recurrenceChanged(nil)
}

// AddExRule appends an exclusion rule and takes ownership of it.
func (rec *Recurrence) AddExRule(r *RecurrenceRule) {
	if rec.ReadOnly || r == nil {
		return
	}
	r.setOwner(rec)
	rec.ExRules = append(rec.ExRules, r)
	rec.recurrenceChanged(r)
}

// RemoveExRule detaches and removes r, if present.
func (rec *Recurrence) RemoveExRule(r *RecurrenceRule) {
	rec.ExRules = removeRule(rec.ExRules, r)
	if r != nil {
		r.detach()
	}
	rec.recurrenceChanged(nil)
}

// AddCronSource appends a supplemental cron-based inclusion source.
func (rec *Recurrence) AddCronSource(c *CronSource) {
	if rec.ReadOnly || c == nil {
		return
	}
	rec.CronSources = append(rec.CronSources, c)
	rec.recurrenceChanged(nil)
}

func removeRule(rules []*RecurrenceRule, target *RecurrenceRule) []*RecurrenceRule {
	out := rules[:0]
	for _, r := range rules {
		if r != target {
			out = append(out, r)
		}
	}
	return out
}

// AddRDate inserts an all-day inclusion date, keeping the list sorted and
// unique.
func (rec *Recurrence) AddRDate(d time.Time) {
	if rec.ReadOnly {
		return
	}
	rec.RDates = insertSortedUniqueDate(rec.RDates, d)
	rec.recurrenceChanged(nil)
}

// AddExDate inserts an all-day exclusion date.
func (rec *Recurrence) AddExDate(d time.Time) {
	if rec.ReadOnly {
		return
	}
	rec.ExDates = insertSortedUniqueDate(rec.ExDates, d)
	rec.recurrenceChanged(nil)
}

// AddRDateTime inserts a timed inclusion instant.
func (rec *Recurrence) AddRDateTime(t time.Time) {
	if rec.ReadOnly {
		return
	}
	rec.RDateTimes = insertSortedUniqueTime(rec.RDateTimes, t)
	rec.recurrenceChanged(nil)
}

// AddExDateTime inserts a timed exclusion instant.
func (rec *Recurrence) AddExDateTime(t time.Time) {
	if rec.ReadOnly {
		return
	}
	rec.ExDateTimes = insertSortedUniqueTime(rec.ExDateTimes, t)
	rec.recurrenceChanged(nil)
}

// insertSortedUniqueTime inserts t into a sorted, duplicate-free list using
// binary search, so a single insert never re-sorts the whole slice.
func insertSortedUniqueTime(list []time.Time, t time.Time) []time.Time {
	i := sort.Search(len(list), func(i int) bool { return !list[i].Before(t) })
	if i < len(list) && list[i].Equal(t) {
		return list
	}
	list = append(list, time.Time{})
	copy(list[i+1:], list[i:])
	list[i] = t
	return list
}

func insertSortedUniqueDate(list []time.Time, d time.Time) []time.Time {
	key := dateOnly(d)
	return insertSortedUniqueTime(list, key)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func containsDate(list []time.Time, d time.Time) bool {
	key := dateOnly(d)
	i := sort.Search(len(list), func(i int) bool { return !list[i].Before(key) })
	return i < len(list) && list[i].Equal(key)
}

func containsInstant(list []time.Time, t time.Time) bool {
	i := sort.Search(len(list), func(i int) bool { return !list[i].Before(t) })
	return i < len(list) && list[i].Equal(t)
}

// RecursAt reports whether t is an occurrence: admitted by some inclusion
// source and not denied by any exclusion source.
func (rec *Recurrence) RecursAt(t time.Time) bool {
	if rec == nil {
		return false
	}
	if containsInstant(rec.ExDateTimes, t) {
		return false
	}
	if containsDate(rec.ExDates, t) {
		return false
	}
	for _, er := range rec.ExRules {
		if er.RecursAt(t) {
			return false
		}
	}
	if t.Equal(rec.Anchor) {
		return true
	}
	if containsInstant(rec.RDateTimes, t) {
		return true
	}
	for _, rr := range rec.RRules {
		if rr.RecursAt(t) {
			return true
		}
	}
	for _, cs := range rec.CronSources {
		if cs.RecursAt(t) {
			return true
		}
	}
	return false
}

// RecursOn reports whether the Recurrence occurs on date when projected
// into zone.
func (rec *Recurrence) RecursOn(date time.Time, zone *time.Location) bool {
	if rec == nil {
		return false
	}
	if zone == nil {
		zone = time.UTC
	}

	anchorDate := dateOnly(rec.Anchor.In(zone))
	queryDate := dateOnly(date.In(zone))
	if queryDate.Before(anchorDate) {
		return false
	}

	if containsDate(rec.ExDates, queryDate) {
		return false
	}
	if rec.AllDay {
		for _, er := range rec.ExRules {
			if er.RecursOn(queryDate, zone) {
				return false
			}
		}
	}
	if containsDate(rec.RDates, queryDate) {
		return true
	}

	candidate := queryDate.Equal(anchorDate)
	if !candidate {
		for _, t := range rec.RDateTimes {
			if dateOnly(t.In(zone)).Equal(queryDate) {
				candidate = true
				break
			}
		}
	}
	if !candidate {
		for _, rr := range rec.RRules {
			if rr.RecursOn(queryDate, zone) {
				candidate = true
				break
			}
		}
	}
	if !candidate {
		dayStart := time.Date(queryDate.Year(), queryDate.Month(), queryDate.Day(), 0, 0, 0, 0, zone)
		dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
		for _, cs := range rec.CronSources {
			if len(cs.TimesInInterval(dayStart, dayEnd)) > 0 {
				candidate = true
				break
			}
		}
	}
	if !candidate {
		return false
	}

	return len(rec.RecurTimesOn(queryDate, zone)) > 0
}

// RecurTimesOn returns every occurrence wall-clock time on date in zone,
// sorted ascending and duplicate-free.
func (rec *Recurrence) RecurTimesOn(date time.Time, zone *time.Location) []time.Time {
	if rec == nil {
		return nil
	}
	if zone == nil {
		zone = time.UTC
	}
	queryDate := dateOnly(date.In(zone))

	included := map[int64]time.Time{}
	add := func(t time.Time) { included[t.UTC().UnixNano()] = t }

	if dateOnly(rec.Anchor.In(zone)).Equal(queryDate) {
		add(rec.Anchor)
	}
	for _, t := range rec.RDateTimes {
		if dateOnly(t.In(zone)).Equal(queryDate) {
			add(t)
		}
	}
	for _, rr := range rec.RRules {
		for _, t := range rr.RecurTimesOn(queryDate, zone) {
			add(t)
		}
	}
	for _, cs := range rec.CronSources {
		dayStart := time.Date(queryDate.Year(), queryDate.Month(), queryDate.Day(), 0, 0, 0, 0, zone)
		dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
		for _, t := range cs.TimesInInterval(dayStart, dayEnd) {
			add(t)
		}
	}

	excluded := map[int64]struct{}{}
	for _, t := range rec.ExDateTimes {
		excluded[t.UTC().UnixNano()] = struct{}{}
	}
	if !rec.AllDay {
		for _, er := range rec.ExRules {
			for _, t := range er.RecurTimesOn(queryDate, zone) {
				excluded[t.UTC().UnixNano()] = struct{}{}
			}
		}
	}

	var out []time.Time
	for k, t := range included {
		if _, denied := excluded[k]; !denied {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// TimesInInterval returns every occurrence in [start, end], inclusive of
// both endpoints, sorted ascending and duplicate-free.
func (rec *Recurrence) TimesInInterval(start, end time.Time) []time.Time {
	if rec == nil || end.Before(start) {
		return nil
	}

	included := map[int64]time.Time{}
	add := func(t time.Time) {
		if !t.Before(start) && !t.After(end) {
			included[t.UTC().UnixNano()] = t
		}
	}

	anchorInstant := rec.Anchor
	add(anchorInstant)
	for _, t := range rec.RDateTimes {
		add(t)
	}
	for _, d := range rec.RDates {
		add(rec.promoteDate(d))
	}
	for _, rr := range rec.RRules {
		for _, t := range rr.TimesInInterval(start, end) {
			add(t)
		}
	}
	for _, cs := range rec.CronSources {
		for _, t := range cs.TimesInInterval(start, end) {
			add(t)
		}
	}

	excluded := map[int64]struct{}{}
	for _, t := range rec.ExDateTimes {
		excluded[t.UTC().UnixNano()] = struct{}{}
	}
	for _, d := range rec.ExDates {
		excluded[rec.promoteDate(d).UTC().UnixNano()] = struct{}{}
	}
	for _, er := range rec.ExRules {
		for _, t := range er.TimesInInterval(start, end) {
			excluded[t.UTC().UnixNano()] = struct{}{}
		}
	}

	var out []time.Time
	for k, t := range included {
		if _, denied := excluded[k]; !denied {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// promoteDate converts an all-day RDate/ExDate into an instant, using the
// anchor's time-of-day or midnight when the Recurrence is all-day.
func (rec *Recurrence) promoteDate(d time.Time) time.Time {
	if rec.AllDay {
		return dateOnly(d)
	}
	h, m, s := rec.Anchor.Clock()
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, rec.Anchor.Nanosecond(), d.Location())
}

// GetNextDateTime finds the smallest occurrence strictly greater than
// after, retrying past excluded candidates up to defaultIterationBudget
// times.
func (rec *Recurrence) GetNextDateTime(after time.Time) (time.Time, bool) {
	return rec.searchDateTime(after, true)
}

// GetPreviousDateTime is the mirror of GetNextDateTime.
func (rec *Recurrence) GetPreviousDateTime(before time.Time) (time.Time, bool) {
	return rec.searchDateTime(before, false)
}

func (rec *Recurrence) searchDateTime(ref time.Time, forward bool) (time.Time, bool) {
	if rec == nil {
		return time.Time{}, false
	}
	cursor := ref
	for attempts := 0; attempts < defaultIterationBudget; attempts++ {
		candidate, ok := rec.nearestCandidate(cursor, forward)
		if !ok {
			return time.Time{}, false
		}
		if rec.isExcluded(candidate) {
			cursor = candidate
			continue
		}
		return candidate, true
	}
	return time.Time{}, false
}

func (rec *Recurrence) nearestCandidate(cursor time.Time, forward bool) (time.Time, bool) {
	var best time.Time
	found := false

	consider := func(t time.Time, ok bool) {
		if !ok {
			return
		}
		if forward && !t.After(cursor) {
			return
		}
		if !forward && !t.Before(cursor) {
			return
		}
		if !found {
			best, found = t, true
			return
		}
		if forward && t.Before(best) {
			best = t
		}
		if !forward && t.After(best) {
			best = t
		}
	}

	consider(rec.Anchor, true)
	consider(nearestInList(rec.RDateTimes, cursor, forward))
	for _, d := range rec.RDates {
		consider(rec.promoteDate(d), true)
	}
	for _, rr := range rec.RRules {
		if forward {
			consider(rr.GetNextDate(cursor))
		} else {
			consider(rr.GetPreviousDate(cursor))
		}
	}
	for _, cs := range rec.CronSources {
		if forward {
			consider(cs.GetNextDate(cursor))
		} else {
			consider(cs.GetPreviousDate(cursor))
		}
	}

	return best, found
}

func nearestInList(list []time.Time, cursor time.Time, forward bool) (time.Time, bool) {
	if forward {
		i := sort.Search(len(list), func(i int) bool { return list[i].After(cursor) })
		if i >= len(list) {
			return time.Time{}, false
		}
		return list[i], true
	}
	i := sort.Search(len(list), func(i int) bool { return !list[i].Before(cursor) })
	if i == 0 {
		return time.Time{}, false
	}
	return list[i-1], true
}

func (rec *Recurrence) isExcluded(t time.Time) bool {
	if containsInstant(rec.ExDateTimes, t) {
		return true
	}
	if containsDate(rec.ExDates, t) {
		return true
	}
	for _, er := range rec.ExRules {
		if er.RecursAt(t) {
			return true
		}
	}
	return false
}

// EndDateTime returns none if any rule is unbounded, else the maximum of
// the anchor, the last RDate/RDateTime, and every rule's end instant.
func (rec *Recurrence) EndDateTime() (time.Time, bool) {
	if rec == nil {
		return time.Time{}, false
	}
	for _, rr := range rec.RRules {
		if rr.Termination.IsNever() {
			return time.Time{}, false
		}
	}

	max := rec.Anchor
	found := true
	bump := func(t time.Time, ok bool) {
		if ok && t.After(max) {
			max = t
		}
	}
	if len(rec.RDates) > 0 {
		bump(rec.promoteDate(rec.RDates[len(rec.RDates)-1]), true)
	}
	if len(rec.RDateTimes) > 0 {
		bump(rec.RDateTimes[len(rec.RDateTimes)-1], true)
	}
	for _, rr := range rec.RRules {
		bump(rr.EndInstant())
	}
	return max, found
}

// SetAnchor cascades the new anchor to every rule's StartInstant and fires
// one notification, unless unchanged or the Recurrence is
// read-only.
func (rec *Recurrence) SetAnchor(t time.Time) {
	if rec.ReadOnly || rec.Anchor.Equal(t) {
		return
	}
	rec.Anchor = t
	for _, rr := range rec.RRules {
		rr.StartInstant = t
		_ = rr.rebuild()
	}
	for _, er := range rec.ExRules {
		er.StartInstant = t
		_ = er.rebuild()
	}
	rec.recurrenceChanged(nil)
}

// SetAllDay cascades the flag to every rule and fires one notification.
// Idempotent: calling with the current value does nothing.
func (rec *Recurrence) SetAllDay(b bool) {
	if rec.ReadOnly || rec.AllDay == b {
		return
	}
	rec.AllDay = b
	for _, rr := range rec.RRules {
		rr.AllDay = b
	}
	for _, er := range rec.ExRules {
		er.AllDay = b
	}
	rec.recurrenceChanged(nil)
}

// Clear empties all lists, rules and caches and fires one notification
// unconditionally.
func (rec *Recurrence) Clear() {
	if rec.ReadOnly {
		return
	}
	for _, rr := range rec.RRules {
		rr.detach()
	}
	for _, er := range rec.ExRules {
		er.detach()
	}
	rec.RRules = nil
	rec.ExRules = nil
	rec.RDates = nil
	rec.ExDates = nil
	rec.RDateTimes = nil
	rec.ExDateTimes = nil
	rec.CronSources = nil
	rec.recurrenceChanged(nil)
}

// ShiftTimes reinterprets every stored instant and rule as if its
// wall-clock reading always belonged to newZone: it projects from the
// current zone to oldZone, then stamps the zone as newZone, preserving the
// (Y,M,D,h,m,s) tuple. No-op if the zones are equal or either is nil.
func (rec *Recurrence) ShiftTimes(oldZone, newZone *time.Location) {
	if rec.ReadOnly || oldZone == nil || newZone == nil || oldZone == newZone {
		return
	}
	shift := func(t time.Time) time.Time {
		projected := t.In(oldZone)
		return time.Date(projected.Year(), projected.Month(), projected.Day(),
			projected.Hour(), projected.Minute(), projected.Second(), projected.Nanosecond(), newZone)
	}

	rec.Anchor = shift(rec.Anchor)
	for i, t := range rec.RDateTimes {
		rec.RDateTimes[i] = shift(t)
	}
	for i, t := range rec.ExDateTimes {
		rec.ExDateTimes[i] = shift(t)
	}
	for _, rr := range rec.RRules {
		rr.StartInstant = shift(rr.StartInstant)
		_ = rr.rebuild()
	}
	for _, er := range rec.ExRules {
		er.StartInstant = shift(er.StartInstant)
		_ = er.rebuild()
	}
	rec.recurrenceChanged(nil)
}

// RecurrenceType returns the cached classification, computing it from the
// first inclusion rule if the cache is stale.
func (rec *Recurrence) RecurrenceType() RecurrenceKind {
	if rec == nil {
		return KindNone
	}
	if rec.classificationCached {
		return rec.classification
	}
	if len(rec.RRules) == 0 {
		rec.classification = KindNone
	} else {
		rec.classification = classify(rec.RRules[0])
	}
	rec.classificationCached = true
	return rec.classification
}

// recurrenceChanged invalidates the classification cache and fires one
// external notification.
func (rec *Recurrence) recurrenceChanged(_ *RecurrenceRule) {
	rec.classificationCached = false
	rec.observers.notify(rec)
}

// RegisterListener adds an external change listener, idempotently.
func (rec *Recurrence) RegisterListener(l ChangeListener) RegistrationHandle {
	return rec.observers.Register(l)
}

// DeregisterListener removes a listener by handle, tolerating unknown
// handles.
func (rec *Recurrence) DeregisterListener(h RegistrationHandle) {
	rec.observers.Deregister(h)
}

// Clone deep-copies every rule and explicit list, re-registers observers,
// and never aliases storage with rec.
func (rec *Recurrence) Clone() *Recurrence {
	if rec == nil {
		return nil
	}
	out := &Recurrence{
		Anchor:   rec.Anchor,
		AllDay:   rec.AllDay,
		ReadOnly: rec.ReadOnly,
	}
	out.RDates = append([]time.Time{}, rec.RDates...)
	out.ExDates = append([]time.Time{}, rec.ExDates...)
	out.RDateTimes = append([]time.Time{}, rec.RDateTimes...)
	out.ExDateTimes = append([]time.Time{}, rec.ExDateTimes...)
	out.CronSources = append([]*CronSource{}, rec.CronSources...)

	for _, rr := range rec.RRules {
		clone := rr.Clone()
		clone.setOwner(out)
		out.RRules = append(out.RRules, clone)
	}
	for _, er := range rec.ExRules {
		clone := er.Clone()
		clone.setOwner(out)
		out.ExRules = append(out.ExRules, clone)
	}
	return out
}

// AllOccurrences returns up to cap occurrences from the anchor forward. It
// is a bounded convenience for free/busy-style collaborators; a
// Never-terminated recurrence never causes it to run unbounded.
func (rec *Recurrence) AllOccurrences(cap int) []time.Time {
	if rec == nil || cap <= 0 {
		return nil
	}
	var out []time.Time
	cursor := rec.Anchor.Add(-time.Nanosecond)
	for i := 0; i < cap; i++ {
		next, ok := rec.GetNextDateTime(cursor)
		if !ok {
			break
		}
		out = append(out, next)
		cursor = next
	}
	return out
}

// Equals reports whether rec and other have the same anchor, allDay,
// readOnly, all four date/instant lists (order-insensitive after sort,
// which they already maintain), and both rule lists (positionally, by deep
// field-wise comparison). CronSources are deliberately excluded.
func (rec *Recurrence) Equals(other *Recurrence) bool {
	if rec == nil || other == nil {
		return rec == other
	}
	if !rec.Anchor.Equal(other.Anchor) || rec.AllDay != other.AllDay || rec.ReadOnly != other.ReadOnly {
		return false
	}
	if !timeListEqual(rec.RDates, other.RDates) || !timeListEqual(rec.ExDates, other.ExDates) {
		return false
	}
	if !timeListEqual(rec.RDateTimes, other.RDateTimes) || !timeListEqual(rec.ExDateTimes, other.ExDateTimes) {
		return false
	}
	if !ruleListEqual(rec.RRules, other.RRules) || !ruleListEqual(rec.ExRules, other.ExRules) {
		return false
	}
	return true
}

func timeListEqual(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func ruleListEqual(a, b []*RecurrenceRule) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ruleEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func ruleEqual(a, b *RecurrenceRule) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Frequency != b.Frequency || a.Period != b.Period || a.AllDay != b.AllDay || a.WeekStart != b.WeekStart {
		return false
	}
	if !a.StartInstant.Equal(b.StartInstant) || a.Termination != b.Termination {
		return false
	}
	return intListEqual(a.BySecond, b.BySecond) &&
		intListEqual(a.ByMinute, b.ByMinute) &&
		intListEqual(a.ByHour, b.ByHour) &&
		intListEqual(a.ByMonthDay, b.ByMonthDay) &&
		intListEqual(a.ByYearDay, b.ByYearDay) &&
		intListEqual(a.ByWeekNumber, b.ByWeekNumber) &&
		intListEqual(a.ByMonth, b.ByMonth) &&
		intListEqual(a.BySetPos, b.BySetPos) &&
		weekdayPositionListEqual(a.ByDay, b.ByDay)
}

func intListEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func weekdayPositionListEqual(a, b []WeekdayPosition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
