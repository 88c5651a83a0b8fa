package alog

import (
	"testing"
)

func TestWriterTypeIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		writer   WriterType
		expected bool
	}{
		{"Empty", "", true},
		{"Whitespace", "   ", true},
		{"NotEmpty", "file", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.writer.IsEmpty(); got != test.expected {
				t.Errorf("WriterType.IsEmpty() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestWriterTypeString(t *testing.T) {
	tests := []struct {
		name     string
		writer   WriterType
		expected string
	}{
		{"Simple", "file", "file"},
		{"Complex", "console-stdout", "console-stdout"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.writer.String(); got != test.expected {
				t.Errorf("WriterType.String() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestWriterTypeHasMatch(t *testing.T) {
	tests := []struct {
		name     string
		writer   WriterType
		arg      WriterType
		expected bool
	}{
		{"Match", "file", "file", true},
		{"NoMatch", "file", "console", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.writer.HasMatch(test.arg); got != test.expected {
				t.Errorf("WriterType.HasMatch() = %v, want %v", got, test.expected)
			}
		})
	}
}

func TestWriterTypesHasMatch(t *testing.T) {
	types := WriterTypes{WRITERTYPE_CONSOLE_STDOUT, WRITERTYPE_FILE}
	if !types.HasMatch(WRITERTYPE_FILE) {
		t.Error("expected WriterTypes to match WRITERTYPE_FILE")
	}
	if types.HasMatch(WRITERTYPE_STDERR) {
		t.Error("expected WriterTypes not to match WRITERTYPE_STDERR")
	}
}
