// Package rrecur is the recurrence engine of the calendaring library: given
// a compact RFC 5545 description of a repeating event anchored at a start
// instant, it answers when the event occurs.
//
// The engine is pure, deterministic and single-threaded: RecurrenceRule
// wraps github.com/teambition/rrule-go for the RFC 5545 BY-filter
// expand/limit lattice, and Recurrence composes zero or more inclusion and
// exclusion rules with explicit RDATE/EXDATE lists. Nothing in this
// package performs I/O.
package rrecur
