package model

import (
	"errors"
)

// Kind classifies an Error.
type Kind int

const (
	// KindValidation is an invalid Notification or encode argument.
	KindValidation Kind = iota + 1
	// KindPrecondition is a decode of a path that is not an existing regular file.
	KindPrecondition
	// KindDecode is malformed JSON, a missing key or an unparsable timestamp.
	KindDecode
	// KindIO is a read, write or delete failure.
	KindIO
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindDecode:
		return "decode"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Validation errors.
var (
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrNilNotification = errors.New("notification cannot be nil")
)

// Decode errors.
var (
	ErrNotRegularFile = errors.New("not a regular file")
	ErrMissingKey     = errors.New("missing required key")
	ErrInvalidExpiry  = errors.New("invalid expiry_time")
)

// Error is the single error type returned by model and codec operations.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "decode"
	Path string // file involved, if any
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
