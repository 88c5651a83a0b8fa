package alog

import (
	"github.com/rs/zerolog"
)

// LoggerMap indexes a zerolog.Logger per channel, built once by
// setGlobalLogger from a Channels slice.
type LoggerMap map[ChannelLabel]*zerolog.Logger

// Get returns the logger for name, or nil if no channel by that name exists.
func (lm LoggerMap) Get(name ChannelLabel) *zerolog.Logger {
	return lm[name]
}
