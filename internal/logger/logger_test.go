package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONLoggerRedactsSecrets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	log.Info("login attempt", "username", "doctor", "password", "password123", "Authorization", "Bearer abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "doctor", line["username"])
	require.Equal(t, redacted, line["password"])
	require.Equal(t, redacted, line["Authorization"])
	require.NotContains(t, buf.String(), "password123")
}

func TestPrettyLoggerRedactsSecrets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "debug", "pretty").With("token", "eyJhbGciOi")

	log.Debug("verify", "user_id", 7)

	out := buf.String()
	require.Contains(t, out, "user_id")
	require.Contains(t, out, redacted)
	require.NotContains(t, out, "eyJhbGciOi")
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info("hidden")
	require.Zero(t, buf.Len())

	log.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
