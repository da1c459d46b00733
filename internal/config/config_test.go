package config

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.ServiceURL)
	assert.Equal(t, 30, cfg.StatsWindowDays)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, ".moodbuddy", filepath.Base(filepath.Dir(cfg.TokenFile)))
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MOODBUDDY_SERVICE_URL", "https://mood.example.com/api/")
	t.Setenv("MOODBUDDY_STATS_WINDOW_DAYS", "7")
	t.Setenv("MOODBUDDY_TOKEN_FILE", "/tmp/mb-token")
	t.Setenv("MOODBUDDY_LOG_LEVEL", "warn")
	t.Setenv("MOODBUDDY_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://mood.example.com/api", cfg.ServiceURL)
	assert.Equal(t, 7, cfg.StatsWindowDays)
	assert.Equal(t, "/tmp/mb-token", cfg.TokenFile)
	assert.Equal(t, zerolog.WarnLevel, cfg.Level())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MOODBUDDY_TOKEN_FILE", "/tmp/mb-token")

	t.Run("window", func(t *testing.T) {
		t.Setenv("MOODBUDDY_STATS_WINDOW_DAYS", "0")
		_, err := Load()
		require.Error(t, err)
	})
	t.Run("timezone", func(t *testing.T) {
		t.Setenv("MOODBUDDY_TIMEZONE", "Not/AZone")
		_, err := Load()
		require.Error(t, err)
	})
}

func TestLevel_DebugFlagWins(t *testing.T) {
	cfg := &Config{LogLevel: "error", Debug: true}
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestNewLogger_StackOnPlainError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("moodctl").Output(&buf)
	logger.Error().Stack().Err(errors.New("boom")).Msg("failed")

	out := buf.String()
	assert.True(t, strings.Contains(out, `"service":"moodctl"`), out)
	assert.True(t, strings.Contains(out, `"stack"`), out)
}
