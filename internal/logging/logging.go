// Package logging builds the *zap.Logger every DualLink component takes
// as a constructor argument, replacing the teacher's package-level
// log.New(os.Stdout, ...) singleton (logger.go) with per-process
// structured logging, grounded on
// _examples/LanternOps-breeze/apps/agent's zap.NewProduction()/
// zap.NewDevelopment() bootstrap used from its cobra root command.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the teacher's LogLevel enum (Debug/Info/Error/Silent) in
// logger.go, translated to zap's level type.
type Level string

const (
	LevelDebug  Level = "debug"
	LevelInfo   Level = "info"
	LevelError  Level = "error"
	LevelSilent Level = "silent"
)

// New builds a *zap.Logger for the given component name and level.
// LevelSilent maps to a level above zap's highest (Fatal), which
// suppresses all ordinary logging the way the teacher's SetLogLevel(Silent)
// discards output entirely.
func New(component string, level Level) (*zap.Logger, error) {
	var zl zapcore.Level
	switch level {
	case LevelDebug:
		zl = zapcore.DebugLevel
	case LevelInfo:
		zl = zapcore.InfoLevel
	case LevelError:
		zl = zapcore.ErrorLevel
	case LevelSilent:
		zl = zapcore.FatalLevel + 1
	default:
		return nil, fmt.Errorf("logging: unknown level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return logger.Named(component), nil
}

// NewDevelopment builds a human-readable console logger, for local runs
// outside a container — the development-mode analogue of the teacher's
// stdout logger.
func NewDevelopment(component string) (*zap.Logger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("logging: build development logger: %w", err)
	}
	return logger.Named(component), nil
}
