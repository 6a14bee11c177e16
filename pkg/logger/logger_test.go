package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SetsGlobalLevel(t *testing.T) {
	testCases := []struct {
		name          string
		level         string
		expectedLevel zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"warning alias", "WARNING", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"empty defaults to info", "", zerolog.InfoLevel},
		{"unknown defaults to info", "verbose", zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			New(Config{Level: tc.level})
			assert.Equal(t, tc.expectedLevel, zerolog.GlobalLevel())
		})
	}
}

func TestNew_TimestampFormat(t *testing.T) {
	New(Config{Level: "info"})
	assert.Equal(t, "2006-01-02T15:04:05Z07:00", zerolog.TimeFieldFormat)
}

func TestNew_ErrorLevelFiltersLower(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "error"}).Output(&buf)

	logger.Info().Msg("scored 12 records")
	assert.NotContains(t, buf.String(), "scored 12 records")

	logger.Error().Msg("snapshot reload failed")
	assert.Contains(t, buf.String(), "snapshot reload failed")
}

func TestNew_PrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Pretty: true}).Output(&buf)

	logger.Info().Str("sector", "Technology").Msg("working set filtered")
	assert.Contains(t, buf.String(), "working set filtered")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scorecard.log")

	logger := New(Config{Level: "info", File: path})
	logger.Info().Str("ticker", "AAPL").Msg("scored snapshot")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scored snapshot")
	assert.Contains(t, string(data), `"ticker":"AAPL"`)
}

func TestSetGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info"}).Output(&buf)

	SetGlobalLogger(logger)
	defer SetGlobalLogger(zerolog.Nop())

	logger.Info().Msg("global logger test")
	assert.Contains(t, buf.String(), "global logger test")
}

func TestNew_CustomOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "info", Output: &buf})

	logger.Info().Str("ticker", "AAPL").Msg("record scored")

	assert.Contains(t, buf.String(), `"ticker":"AAPL"`)
	assert.Contains(t, buf.String(), "record scored")
}
