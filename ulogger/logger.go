// Package ulogger is a small structured-logging wrapper around
// github.com/rs/zerolog, layering printf-style convenience methods
// (Debugf/Infof/Warnf/Errorf/Fatalf) over the zerolog event API. Console
// formatting for interactive use goes through zerolog's own ConsoleWriter.
package ulogger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the interface every chain core package logs through.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	With() zerolog.Context
	Level(level zerolog.Level) zerolog.Logger
}

// ZLogger wraps a zerolog.Logger with the printf-style convenience methods
// the rest of this module's code calls.
type ZLogger struct {
	zerolog.Logger
	service string
}

// New builds a Logger writing structured JSON to w, tagged with service.
func New(service string, w io.Writer, level zerolog.Level) *ZLogger {
	if w == nil {
		w = os.Stderr
	}
	l := zerolog.New(w).Level(level).With().Timestamp().Str("service", service).Logger()
	return &ZLogger{Logger: l, service: service}
}

// NewPretty builds a Logger writing a colorized, human-readable console
// format, for local/interactive use (cmd/ironfishd).
func NewPretty(service string, level zerolog.Level) *ZLogger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	l := zerolog.New(cw).Level(level).With().Timestamp().Str("service", service).Logger()
	return &ZLogger{Logger: l, service: service}
}

// NewTestLogger gives tests a no-op-safe logger that discards everything,
// for unit tests that don't care about log output.
func NewTestLogger() *ZLogger {
	return New("test", io.Discard, zerolog.Disabled)
}

func (l *ZLogger) Debugf(format string, args ...interface{}) {
	l.Logger.Debug().Msgf(format, args...)
}

func (l *ZLogger) Infof(format string, args ...interface{}) {
	l.Logger.Info().Msgf(format, args...)
}

func (l *ZLogger) Warnf(format string, args ...interface{}) {
	l.Logger.Warn().Msgf(format, args...)
}

func (l *ZLogger) Errorf(format string, args ...interface{}) {
	l.Logger.Error().Msgf(format, args...)
}

func (l *ZLogger) Fatalf(format string, args ...interface{}) {
	l.Logger.Fatal().Msgf(format, args...)
}

func (l *ZLogger) With() zerolog.Context {
	return l.Logger.With()
}

func (l *ZLogger) Level(level zerolog.Level) zerolog.Logger {
	return l.Logger.Level(level)
}
