package reactive

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrUpdateLoop is surfaced when a watcher re-schedules itself more than
// the configured bound within a single flush. The offending watcher is
// skipped for the remainder of that flush; the failure is recoverable.
var ErrUpdateLoop = errors.New("ripple: reentrant update limit exceeded")

// ErrBadPath is returned by ParsePath for path expressions containing
// characters outside [A-Za-z0-9_.$].
var ErrBadPath = errors.New("ripple: invalid watch path")

// ErrorHandler receives errors raised by user watcher callbacks and render
// computations. The context string describes where the error came from.
// The default handler logs through slog; hosts replace it to surface
// errors their own way. Errors funneled here are never fatal.
type ErrorHandler func(err error, context string)

var errorHandler ErrorHandler = func(err error, context string) {
	slog.Error("ripple: unhandled error", "context", context, "err", err)
}

// SetErrorHandler replaces the global error handler. Passing nil restores
// the default slog handler. Not safe to call mid-flush.
func SetErrorHandler(h ErrorHandler) {
	if h == nil {
		errorHandler = func(err error, context string) {
			slog.Error("ripple: unhandled error", "context", context, "err", err)
		}
		return
	}
	errorHandler = h
}

// handleError funnels an error to the configured handler.
func handleError(err error, context string) {
	errorHandler(err, context)
}

// recoveredError normalizes a recover() value into an error.
func recoveredError(r any) error {
	switch v := r.(type) {
	case error:
		return v
	default:
		return fmt.Errorf("panic: %v", v)
	}
}
