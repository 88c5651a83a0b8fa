package alog

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Channel labels every process built on this package starts with.
const (
	LOGGER_APP  ChannelLabel = "app"
	LOGGER_AUTH ChannelLabel = "auth"
	LOGGER_SQL  ChannelLabel = "sql"
	LOGGER_HTTP ChannelLabel = "http"
)

var (
	globalLM *globalLoggerMap
	// once guards globalLM: whichever of LOGGER's lazy default or an
	// explicit SetGlobalLogger call runs first wins, and every later
	// call is a no-op.
	once sync.Once
)

// globalLoggerMap is the process-wide logger set: one *zerolog.Logger per
// configured channel, plus a catch-all for unrecognized channel names.
type globalLoggerMap struct {
	Map           LoggerMap
	Channels      Channels
	unknownLogger *zerolog.Logger
}

// Get returns the logger for name, falling back to the unknown-channel
// logger if name was never configured.
func (glm *globalLoggerMap) Get(name ChannelLabel) *zerolog.Logger {
	if lg, ok := glm.Map[name]; ok {
		return lg
	}
	return glm.unknownLogger
}

// LOGGER returns the logger for the named channel. On first call, if no
// one has called SetGlobalLogger yet, it bootstraps a single app channel
// logging errors to stdout/stderr so LOGGER is always safe to call.
func LOGGER(name ChannelLabel) *zerolog.Logger {
	once.Do(func() {
		if globalLM != nil {
			return
		}
		app := &Channel{Name: LOGGER_APP, LogLevel: "err", WriterTypes: WriterTypes{WRITERTYPE_CONSOLE_STDOUT, WRITERTYPE_CONSOLE_STDERR}}
		globalLM = &globalLoggerMap{
			Map:           make(LoggerMap),
			Channels:      Channels{app},
			unknownLogger: &zerolog.Logger{},
		}
		if err := app.Initialize(&ChannelProvisioner{}); err == nil {
			globalLM.Map[LOGGER_APP] = &app.logger
		}
	})
	if globalLM == nil {
		return &zerolog.Logger{}
	}
	return globalLM.Get(name)
}

// GetGlobalLoggerConfig reports the Channels the global logger currently
// runs with, or nil if nothing has configured it yet.
func GetGlobalLoggerConfig() *LoggerConfig {
	if globalLM == nil {
		return nil
	}
	return &LoggerConfig{Channels: globalLM.Channels}
}

// SetGlobalLogger installs channels as the process-wide logger set. Only
// the first call (across LOGGER's own lazy bootstrap and any other
// SetGlobalLogger call) takes effect; later calls are no-ops.
func SetGlobalLogger(defaultTimeFormat string, channels Channels, prov IChannelProvisioner) error {
	var err error
	once.Do(func() {
		err = setGlobalLogger(defaultTimeFormat, channels, prov)
	})
	return err
}

func setGlobalLogger(defaultTimeFormat string, channels Channels, prov IChannelProvisioner) error {
	if len(channels) == 0 {
		return fmt.Errorf("channels are empty")
	}
	if prov == nil {
		return fmt.Errorf("provisioner is nil")
	}

	if defaultTimeFormat == "" {
		defaultTimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = defaultTimeFormat
	zerolog.TimestampFieldName = "time"

	for _, ch := range channels {
		if err := ch.Initialize(prov); err != nil {
			return fmt.Errorf("failed to initialize log channel '%s': %v", ch.Name.String(), err)
		}
	}

	mp := make(LoggerMap)
	for _, ch := range channels {
		mp[ch.Name] = &ch.logger
	}

	ul := prov.AddWith(zerolog.New(os.Stderr).Level(zerolog.ErrorLevel))

	globalLM = &globalLoggerMap{
		Map:           mp,
		Channels:      channels,
		unknownLogger: &ul,
	}
	return nil
}
