package rrecur

import "fmt"

// InvalidReason discriminates why RecurrenceRule construction was rejected.
type InvalidReason string

const (
	ReasonBadFrequency           InvalidReason = "bad_frequency"
	ReasonBadPeriod              InvalidReason = "bad_period"
	ReasonConflictingTermination InvalidReason = "conflicting_termination"
	ReasonBadCount               InvalidReason = "bad_count"
	ReasonOutOfRange             InvalidReason = "out_of_range"
	ReasonBadSetPos              InvalidReason = "bad_set_pos"
	ReasonBadWeekStart           InvalidReason = "bad_week_start"
)

// InvalidRuleError is returned by NewRecurrenceRule when a rule's options
// fail construction-time validation, and by NewCronSource when its
// expression does not parse. Query operations never return an error; only
// construction does.
type InvalidRuleError struct {
	Reason InvalidReason
	Field  string
	Value  interface{}
}

func (e *InvalidRuleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid recurrence rule: %s (field=%s, value=%v)", e.Reason, e.Field, e.Value)
}

func newInvalidRuleError(reason InvalidReason, field string, value interface{}) *InvalidRuleError {
	return &InvalidRuleError{Reason: reason, Field: field, Value: value}
}
