package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/goap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetup_Stderr(t *testing.T) {
	t.Setenv("GOAP_LOG_LEVEL", "")
	t.Setenv("GOAP_LOG_FILE", "")

	var stderr bytes.Buffer
	logger, closer, err := Setup("", "warn", config.NewConfig(), &stderr)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	out := stderr.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "k=1")
}

func TestSetup_LevelPrecedence(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetGlobalOption("log.level", "error")

	t.Setenv("GOAP_LOG_FILE", "")
	t.Setenv("GOAP_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("GOAP_LOG_LEVEL"))
	var stderr bytes.Buffer
	logger, _, err := Setup("", "", cfg, &stderr)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelWarn), "config level applies")

	t.Setenv("GOAP_LOG_LEVEL", "debug")
	logger, _, err = Setup("", "", cfg, &stderr)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug), "env beats config")

	logger, _, err = Setup("", "info", cfg, &stderr)
	require.NoError(t, err)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelDebug), "flag beats env")

	_, _, err = Setup("", "chatty", cfg, &stderr)
	assert.ErrorContains(t, err, "invalid log level")
}

func TestSetup_File(t *testing.T) {
	t.Setenv("GOAP_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "goap.log")
	t.Setenv("GOAP_LOG_FILE", path)

	var stderr bytes.Buffer
	logger, closer, err := Setup("", "debug", nil, &stderr)
	require.NoError(t, err)
	logger.Debug("[test] to file", "n", 3)
	require.NoError(t, closer.Close())

	assert.Zero(t, stderr.Len())
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	assert.Equal(t, "[test] to file", record["msg"])
	assert.Equal(t, float64(3), record["n"])
	assert.Equal(t, "DEBUG", record["level"])
}
