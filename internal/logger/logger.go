// Package logger builds the application's zerolog logger.
//
// Development (dev): human-readable console output at DEBUG level.
// Staging (staging): JSON output at DEBUG level.
// Production (prod): JSON output at INFO level.
//
// JSON logs are easy to ingest by log aggregators (Loki, CloudWatch, etc.)
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger for env writing to stdout.
func New(env string) zerolog.Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) zerolog.Logger {
	switch env {
	case "prod":
		return zerolog.New(w).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	case "staging":
		return zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	default: // "dev" and anything unrecognised
		console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
		return zerolog.New(console).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}
}
