// Package logging is the zerolog setup shared by the checker, the reconciler
// and the CLI. Loggers travel in the context (see WithLogger and FromContext);
// code without one falls back to the package default.
//
//	ctx := logging.WithStream(logging.WithRun(ctx, runID), "deals")
//	logging.FromContext(ctx).Debug().Int("records", n).Msg("Reconciling")
package logging

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment variables read when the package default is built. The CLI
// replaces the default from its own configuration.
const (
	EnvLevel  = "PARITY_LOG_LEVEL"
	EnvFormat = "PARITY_LOG_FORMAT"
)

var defaultLogger = NewLoggerFromConfig(ConfigFromEnv())

// ConfigFromEnv is DefaultConfig adjusted by PARITY_LOG_LEVEL and
// PARITY_LOG_FORMAT.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if level := os.Getenv(EnvLevel); level != "" {
		cfg.Level = level
	}
	if format := os.Getenv(EnvFormat); format != "" {
		cfg.Format = format
	}
	return cfg
}

// Default returns the package logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the package logger and zerolog's global one.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Info starts an info event on the package logger.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a warning event on the package logger.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

func terminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
