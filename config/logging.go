package config

import (
	"github.com/calcore/recur/alog"
)

// defaultLogChannels is the channel set every process starts with: one
// channel per concern, each defaulting to error-level console output.
// LogChannels overrides adjust level and/or writer types per channel; they
// never add or remove channels.
func defaultLogChannels() alog.Channels {
	return alog.Channels{
		&alog.Channel{Name: alog.LOGGER_APP, LogLevel: "error", WriterTypes: alog.WriterTypes{alog.WRITERTYPE_CONSOLE_STDOUT, alog.WRITERTYPE_CONSOLE_STDERR}},
		&alog.Channel{Name: alog.LOGGER_AUTH, LogLevel: "error", WriterTypes: alog.WriterTypes{alog.WRITERTYPE_CONSOLE_STDERR}},
		&alog.Channel{Name: alog.LOGGER_SQL, LogLevel: "error", WriterTypes: alog.WriterTypes{alog.WRITERTYPE_CONSOLE_STDERR}},
		&alog.Channel{Name: alog.LOGGER_HTTP, LogLevel: "error", WriterTypes: alog.WriterTypes{alog.WRITERTYPE_CONSOLE_STDERR}},
	}
}

// initLogging builds the process's logging channels, applies any per-channel
// overrides, and installs them as the global logger exactly once (repeat
// calls, e.g. from a tunables file reload, are no-ops: alog.SetGlobalLogger
// only takes effect the first time it runs). logDir is only consulted by
// channels whose writer types include the file writer.
func initLogging(logDir string, overrides alog.LogChannelConfigMap) error {
	channels := defaultLogChannels()
	if len(overrides) > 0 {
		var err error
		channels, _, err = channels.ApplyOverrides(overrides)
		if err != nil {
			return err
		}
	}

	prov := &alog.ChannelProvisioner{
		ChannelProvisionerBase: alog.ChannelProvisionerBase{DirLog: logDir},
		App:                    "recur",
	}
	return alog.SetGlobalLogger("", channels, prov)
}
