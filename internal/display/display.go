package display

import (
	"context"

	"github.com/jmylchreest/toastd/internal/model"
)

// Display shows a single notification. Implementations may block until
// the notification is dismissed; callers that must not block run Show in
// its own goroutine.
type Display interface {
	Show(ctx context.Context, n *model.Notification) error
}

// Func adapts an ordinary function to the Display interface.
type Func func(ctx context.Context, n *model.Notification) error

// Show calls f(ctx, n).
func (f Func) Show(ctx context.Context, n *model.Notification) error {
	return f(ctx, n)
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Backend string
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	msg := e.Message
	if e.Backend != "" {
		msg = e.Backend + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
