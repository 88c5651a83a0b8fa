package alog

import (
	"strings"
)

// WriterType names one of the output sinks a Channel can log to.
type WriterType string

// IsEmpty checks if the WriterType is empty after trimming spaces.
func (rt WriterType) IsEmpty() bool {
	return strings.TrimSpace(string(rt)) == ""
}

// String converts the WriterType to a string.
func (rt WriterType) String() string {
	return string(rt)
}

// HasMatch checks if the WriterType matches the provided WriterType.
func (rt WriterType) HasMatch(rtType WriterType) bool {
	return rt == rtType
}

// WriterTypes defines a slice of WriterType.
type WriterTypes []WriterType

// HasMatch checks if any WriterType in the slice matches the provided WriterType.
func (rts WriterTypes) HasMatch(rType WriterType) bool {
	for _, rt := range rts {
		if rt == rType {
			return true
		}
	}
	return false
}
