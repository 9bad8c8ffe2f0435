// Package logging builds the zap logger shared across the gateway's
// components, following the structured-logging style used by the
// in-corpus Telegram streaming servers rather than the teacher's plain
// log.Printf calls (see DESIGN.md).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger. debug enables development-style
// console encoding with debug-level verbosity, mirroring how the
// original Python service toggled verbose logging.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests and for any
// component constructed without an injected logger.
func Nop() *zap.Logger {
	return zap.NewNop()
}
