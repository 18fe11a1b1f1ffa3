package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with its stack trace.
// It must be called directly in a defer statement:
//
//	defer observability.RecoverPanic(logger, "ops server")
//
// The panic is not re-raised.
func RecoverPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		LogPanic(logger, where, r)
	}
}

// LogPanic logs a recovered panic value with the current stack
func LogPanic(logger *Logger, where string, r interface{}) {
	logger.WithField("panic", fmt.Sprint(r)).
		WithField("stack", string(debug.Stack())).
		WithField("context", where).
		Error("PANIC recovered")
}

// MustRecover converts a recovered value to an error; nil stays nil.
//
//	defer func() { err = observability.MustRecover(recover()) }()
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}
