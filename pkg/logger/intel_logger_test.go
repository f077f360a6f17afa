package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"fatal":   LevelFatal,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, Service: "intel-test"})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "owner-1")

	l.WithContext(ctx).
		WithError(errors.New("boom")).
		WithDuration(1500*time.Microsecond).
		WithField("email_id", "m-1").
		Warn("classified %d", 3)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "classified 3", entry["message"])
	assert.Equal(t, "intel-test", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "owner-1", entry["user_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, 1.5, entry["duration_ms"])
	assert.Equal(t, "m-1", entry["email_id"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf})

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Error("kept")
	assert.Equal(t, "intel", decodeLine(t, &buf)["service"])
}

func TestNilErrorKeepsLogger(t *testing.T) {
	l := Nop()
	assert.Same(t, l, l.WithError(nil))
	assert.Same(t, l, l.WithFields(nil))
}
