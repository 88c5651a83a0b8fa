package alog

// FileLoggerOptions configures the lumberjack rotation behind a Channel's
// file writer.
type FileLoggerOptions struct {
	MaxSize    int  `json:"maxSize,omitempty"`
	MaxBackups int  `json:"maxBackups,omitempty"`
	MaxAge     int  `json:"maxAge,omitempty"`
	Compress   bool `json:"compress,omitempty"`
}
