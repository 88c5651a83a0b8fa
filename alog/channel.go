package alog

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Writer kinds a Channel can fan its output to.
const (
	WRITERTYPE_CONSOLE_STDOUT WriterType = "console-stdout"
	WRITERTYPE_CONSOLE_STDERR WriterType = "console-stderr"
	WRITERTYPE_STDOUT         WriterType = "stdout"
	WRITERTYPE_STDERR         WriterType = "stderr"
	WRITERTYPE_FILE           WriterType = "file"
)

// Channel is one named logging sink: a level, a set of writer types, and
// (once Initialize runs) the zerolog.Logger built from them.
type Channel struct {
	Name              ChannelLabel       `json:"name,omitempty"`
	LogLevel          string             `json:"logLevel,omitempty"`
	WriterTypes       WriterTypes        `json:"writerTypes,omitempty"`
	FileLoggerOptions *FileLoggerOptions `json:"fileLoggerOptions,omitempty"`

	level  zerolog.Level
	logger zerolog.Logger
}

// Channels is a set of channel configurations, typically the whole set a
// process logs through.
type Channels []*Channel

// Initialize parses ch's level, resolves its file-rotation options if it
// writes to a file, asks prov for its writers, and builds ch's logger.
func (ch *Channel) Initialize(prov IChannelProvisioner) error {
	if ch == nil {
		return fmt.Errorf("channel is nil")
	}
	if prov == nil {
		return fmt.Errorf("channel provisioner is nil")
	}
	if ch.Name.IsEmpty() {
		return fmt.Errorf("channel name is empty")
	}

	lvl, err := zerolog.ParseLevel(ch.LogLevel)
	if err != nil {
		ch.level = zerolog.ErrorLevel
	} else {
		ch.level = lvl
	}

	if ch.WriterTypes.HasMatch(WRITERTYPE_FILE) && ch.FileLoggerOptions == nil {
		ch.FileLoggerOptions = prov.GetFileLoggerOptions()
		if ch.FileLoggerOptions == nil {
			ch.FileLoggerOptions = &FileLoggerOptions{
				MaxSize:    25,
				MaxBackups: 10,
				MaxAge:     14,
				Compress:   true,
			}
		}
	}

	writers, err := prov.GetWriters(ch, prov)
	if err != nil {
		return fmt.Errorf("get channel writers failed: %s", err)
	}
	if len(writers) == 0 {
		return fmt.Errorf("no writer types found")
	}

	ch.logger = prov.AddWith(zerolog.New(io.MultiWriter(writers...)).Level(ch.level))
	return nil
}

// Validate reports whether ch has the minimum fields a channel needs
// before Initialize can run.
func (ch *Channel) Validate() error {
	if ch == nil {
		return fmt.Errorf("channel is nil")
	}
	if ch.Name.IsEmpty() {
		return fmt.Errorf("channel name is empty")
	}
	if strings.TrimSpace(ch.LogLevel) == "" {
		return fmt.Errorf("channel log level is empty")
	}
	if len(ch.WriterTypes) == 0 {
		return fmt.Errorf("channel writer types is empty")
	}
	return nil
}

// ApplyOverrides returns a copy of cns with overrideMap's per-channel
// overrides applied, the original left untouched. The second return value
// reports whether any channel actually changed.
func (cns Channels) ApplyOverrides(overrideMap LogChannelConfigMap) (Channels, bool, error) {
	if len(cns) == 0 {
		return nil, false, fmt.Errorf("no channels to apply overrides to")
	}

	var result Channels
	changed := false

	for _, channel := range cns {
		if channel == nil {
			return nil, false, fmt.Errorf("encountered a nil channel in Channels array")
		}

		newChannel := *channel
		if overrideMap.HasOverride(channel.Name) {
			changed = true
			overrideMap.ApplyOverrides(&newChannel)
		}

		if err := newChannel.Validate(); err != nil {
			return nil, false, fmt.Errorf("channel validation failed for name '%s': %s", newChannel.Name.String(), err)
		}
		result = append(result, &newChannel)
	}

	return result, changed, nil
}

// ToMap flattens cns into a LogChannelConfigMap, one entry per channel.
func (cns Channels) ToMap() LogChannelConfigMap {
	result := make(LogChannelConfigMap)
	for _, channel := range cns {
		if channel == nil {
			continue
		}
		result[channel.Name] = LogChannelConfig{
			LogLevel:    channel.LogLevel,
			WriterTypes: channel.WriterTypes,
		}
	}
	return result
}
