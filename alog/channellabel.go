package alog

import (
	"strings"
)

// ChannelLabel names a logging channel (e.g. "app", "auth", "sql", "http").
type ChannelLabel string

// IsEmpty checks if the ChannelLabel is empty after trimming whitespace.
func (cl ChannelLabel) IsEmpty() bool {
	return strings.TrimSpace(string(cl)) == ""
}

// String converts the ChannelLabel to a string.
func (cl ChannelLabel) String() string {
	return string(cl)
}
