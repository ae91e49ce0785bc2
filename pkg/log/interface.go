// Package log provides a structured logging interface for the prediction service.
//
// The interface is slog-compatible in shape so call sites stay independent of
// the backend. Production code uses the zerolog implementation in zerolog.go;
// tests use TestLogger from testing.go.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "housing",
//	    log.ModelNameKey, "LogisticRegression",
//	)
//	logger.Info("artifact loaded",
//	    log.ArtifactPathKey, path,
//	    log.FeaturesKey, 4,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. Error additionally
// accepts an error value as its first field, which backends render with its
// stack trace.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	Warn(msg string, fields ...any)

	// Error logs an error-level message. If the first field is an error it is
	// attached as the record's error.
	//
	//	logger.Error("artifact load failed", err,
	//	    log.ArtifactKey, "scaler",
	//	)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
