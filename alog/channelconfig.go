package alog

// LogChannelConfig is a per-channel override: set only the fields a caller
// wants to change from a channel's built-in defaults.
type LogChannelConfig struct {
	LogLevel    string
	WriterTypes WriterTypes
}

// LogChannelConfigMap keys overrides by channel name. A config package
// typically builds one of these from a settings file and feeds it to
// Channels.ApplyOverrides.
type LogChannelConfigMap map[ChannelLabel]LogChannelConfig

// HasOverride reports whether channel has a non-empty override entry.
func (lc LogChannelConfigMap) HasOverride(channel ChannelLabel) bool {
	config, exists := lc[channel]
	if !exists {
		return false
	}
	return config.LogLevel != "" || len(config.WriterTypes) > 0
}

// ApplyOverrides mutates channel in place, replacing LogLevel and/or
// WriterTypes with whichever of this map's override fields are set.
func (lc LogChannelConfigMap) ApplyOverrides(channel *Channel) {
	config, exists := lc[channel.Name]
	if !exists {
		return
	}
	if config.LogLevel != "" {
		channel.LogLevel = config.LogLevel
	}
	if len(config.WriterTypes) > 0 {
		channel.WriterTypes = config.WriterTypes
	}
}

// HasChannel reports whether channel has any entry in the map at all.
func (lc LogChannelConfigMap) HasChannel(channel ChannelLabel) bool {
	_, exists := lc[channel]
	return exists
}
