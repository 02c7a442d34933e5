// Package logger builds the structured loggers used across ignitekv's
// subsystems. Every component takes a *zap.SugaredLogger through its Config
// struct rather than reaching for a package-level global, so tests can
// inject an observer logger and production callers can route output
// wherever they like.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production SugaredLogger tagged with the given service name:
// JSON output at info level. NewWithLevel with development set to true
// gives human-readable console output at debug level instead.
func New(service string) *zap.SugaredLogger {
	return NewWithLevel(service, false)
}

// NewWithLevel builds a SugaredLogger for service, choosing between the
// production JSON encoder and the development console encoder.
func NewWithLevel(service string, development bool) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		// Falling back to a no-op logger keeps callers from having to
		// handle a logger construction error on every startup path.
		log = zap.NewNop()
	}

	return log.Named(service).Sugar()
}

// Noop returns a logger that discards everything. Handy for unit tests that
// construct subsystems directly and don't want test output cluttered with
// structured logs.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
