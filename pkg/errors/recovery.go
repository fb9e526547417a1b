package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// PanicError is a panic caught while rendering one report item or running
// one worker chunk. The profiler logs it and moves on to the next item.
type PanicError struct {
	Operation string
	Value     any
	Stack     string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.Value)
}

// Unwrap returns the panic value when it is an error, e.g. a runtime
// index-out-of-range from a chart renderer.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *PanicError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Str("panic", fmt.Sprint(e.Value)).
		Str("stack", e.Stack).
		Str("type", "PanicError")
}

// SafeExecute runs fn and returns its error, or a *PanicError if fn panics.
func SafeExecute(operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Operation: operation, Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}
