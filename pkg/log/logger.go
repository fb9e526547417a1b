package log

import (
	"fmt"
	"strings"
)

// ErrAttrKey is the field an error is logged under. The zerolog backend
// also attaches the stack trace and structured detail for it.
const ErrAttrKey = "error"

// ParseLevel converts a textual level ("debug", "info", "warn", "error")
// into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ToLogLevel is ParseLevel for constant input; it panics on an unknown level.
func ToLogLevel(level string) Level {
	l, err := ParseLevel(level)
	if err != nil {
		panic(err.Error())
	}
	return l
}
