// Package log is the structured logging layer shared by the profiler, the
// classifier tasks and the host server.
//
// Call sites depend on the small Logger interface below. The production
// backend is zerolog (NewZerologProvider); tests inject a TestLogger and
// assert on the captured records. Field names come from attributes.go so a
// skipped report item and a failed retrain can be filtered the same way:
//
//	logger := log.GetLoggerWithName("profiler").With(log.DatasetIDKey, id)
//	logger.Warn("report item skipped",
//	    log.SectionKey, "Numerical Analysis",
//	    log.ColumnKey, "age",
//	    log.ErrAttrKey, err,
//	)
package log

import "context"

// Logger takes a message followed by alternating key/value pairs. Values that
// implement error are rendered as their message; on Error a leading error
// value (without a key) is attached together with its stack trace.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a child logger that adds fields to every record, e.g. the
	// dataset id for all lines of one profiling run.
	With(fields ...any) Logger

	// Enabled lets callers skip building expensive fields (per-column
	// summaries, hyperparameter dumps) that would be dropped anyway.
	Enabled(ctx context.Context, level Level) bool
}

// Level uses the same numeric values as slog.Level.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

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

// LoggerProvider creates component loggers. The server installs one at
// startup through SetGlobalProvider; packages that are not handed a Logger
// explicitly resolve theirs from it.
type LoggerProvider interface {
	GetLogger() Logger
	// GetLoggerWithName tags every record with ComponentKey = name.
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
