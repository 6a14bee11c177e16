// Package logger provides structured logging for scorecard.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Enable pretty console output
	File   string    // Optional log file, rotated by size (written in addition to Output)
	Output io.Writer // Defaults to stdout
}

// Rotation limits for file output
const (
	fileMaxSizeMB  = 100
	fileMaxBackups = 5
	fileMaxAgeDays = 28
)

// New creates a new structured logger
func New(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	// Configure output
	var output io.Writer = os.Stdout
	if cfg.Output != nil {
		output = cfg.Output
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	if cfg.File != "" {
		output = zerolog.MultiLevelWriter(output, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		})
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ParseLevel maps a level name to a zerolog level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetGlobalLogger sets the package-level logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
