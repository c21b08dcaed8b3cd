package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNew_ContextValuesAreAttached(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf, Service: "stockledger"})

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithPrincipal(ctx, "clerk-7")
	log.InfoContext(ctx, "movement applied", slog.Int64("warehouse_id", 1))

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "clerk-7", line["user_id"])
	assert.Equal(t, "stockledger", line["service"])
	assert.Equal(t, "INFO", line["severity"])
	assert.EqualValues(t, 1, line["warehouse_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestSanitization(t *testing.T) {
	tests := []struct {
		name    string
		log     func(*slog.Logger)
		key     string
		want    string
		notWant string
	}{
		{
			name: "sensitive_key",
			log:  func(l *slog.Logger) { l.Info("connect", slog.String("db_password", "hunter2")) },
			key:  "db_password",
			want: redacted,
		},
		{
			name:    "dsn_in_value",
			log:     func(l *slog.Logger) { l.Info("connect", slog.String("url", "postgres://app:hunter2@db:5432/x")) },
			key:     "url",
			notWant: "hunter2",
		},
		{
			name:    "inline_secret_in_message",
			log:     func(l *slog.Logger) { l.Info("bad config token=abc123") },
			key:     "msg",
			notWant: "abc123",
		},
		{
			name: "with_attrs_are_sanitized",
			log:  func(l *slog.Logger) { l.With(slog.String("api_key", "k")).Info("x") },
			key:  "api_key",
			want: redacted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(Config{Format: "json", Output: &buf}))

			got, _ := decodeLine(t, &buf)[tt.key].(string)
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
			}
			if tt.notWant != "" {
				assert.NotContains(t, got, tt.notWant)
				assert.Contains(t, got, redacted)
			}
		})
	}
}

func TestDurationMillis(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "json", Output: &buf}).Info("done", slog.Duration("duration_ms", 1500*time.Microsecond))

	assert.InDelta(t, 1.5, decodeLine(t, &buf)["duration_ms"], 0.0001)
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "text", Level: "debug", Output: &buf}).With(slog.String("component", "ledger"))

	log.DebugContext(WithRequestID(context.Background(), "r1"), "hello", slog.Int("n", 3))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "request_id")
	assert.Contains(t, out, "n")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
