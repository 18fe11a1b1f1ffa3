package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/platinummonkey/gvserver/pkg/contextkeys"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to unmarshal log entry %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		if buf.Len() > 0 {
			t.Error("Debug message should not be logged at Info level")
		}
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")

		entry := decodeEntry(t, &buf)
		if entry["level"] != "info" {
			t.Errorf("Expected level info, got %v", entry["level"])
		}
		if entry["message"] != "info message" {
			t.Errorf("Expected message 'info message', got %v", entry["message"])
		}
		if _, ok := entry["timestamp"]; !ok {
			t.Error("Expected timestamp field")
		}
	})

	t.Run("warn and error logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Warn("warn message")
		if buf.Len() == 0 {
			t.Error("Warn message should be logged at Info level")
		}

		buf.Reset()
		logger.Error("error message")
		if buf.Len() == 0 {
			t.Error("Error message should be logged at Info level")
		}
	})

	t.Run("info not logged at error level", func(t *testing.T) {
		var quiet bytes.Buffer
		NewLogger(ErrorLevel, &quiet).Info("hidden")
		if quiet.Len() > 0 {
			t.Error("Info message should not be logged at Error level")
		}
	})
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	logger.WithField("key", "value").
		WithFields(map[string]interface{}{"count": 42}).
		WithError(errors.New("boom")).
		Debugf("test %s %d", "string", 7)

	entry := decodeEntry(t, &buf)
	if entry["key"] != "value" {
		t.Errorf("Expected key=value, got %v", entry["key"])
	}
	if entry["count"] != float64(42) {
		t.Errorf("Expected count=42, got %v", entry["count"])
	}
	if entry["error"] != "boom" {
		t.Errorf("Expected error=boom, got %v", entry["error"])
	}
	if entry["message"] != "test string 7" {
		t.Errorf("Expected formatted message, got %v", entry["message"])
	}
}

func TestLogger_WithNilError(t *testing.T) {
	logger := NewLogger(InfoLevel, nil)
	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := WithLogger(context.Background(), logger)
	ctx = contextkeys.WithRequestID(ctx, "req-123")

	FromContext(ctx).Info("test message")

	entry := decodeEntry(t, &buf)
	if entry["request_id"] != "req-123" {
		t.Errorf("Expected request_id 'req-123', got %v", entry["request_id"])
	}
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id should be absent without a recording span")
	}
}

func TestGetLogger_Default(t *testing.T) {
	if GetLogger(context.Background()) == nil {
		t.Error("GetLogger should never return nil")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"warn":    WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
		"":        InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level LogLevel
		want  string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
