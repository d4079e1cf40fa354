// Package model defines the core data structures for toastd.
package model

import (
	"time"
)

// Notification represents one pending toast.
// It is built once by NewNotification and never mutated afterwards.
type Notification struct {
	title       string
	message     string
	iconPath    *string
	closable    bool
	minimizable bool
	expiryTime  *time.Time
}

// Option configures optional Notification fields.
type Option func(*Notification)

// WithIconPath sets the icon path. The path is not checked for existence.
func WithIconPath(path string) Option {
	return func(n *Notification) {
		n.iconPath = &path
	}
}

// WithClosable sets the advisory closable flag (default true).
func WithClosable(closable bool) Option {
	return func(n *Notification) {
		n.closable = closable
	}
}

// WithMinimizable sets the advisory minimizable flag (default true).
func WithMinimizable(minimizable bool) Option {
	return func(n *Notification) {
		n.minimizable = minimizable
	}
}

// WithExpiryTime sets the advisory expiry time.
func WithExpiryTime(t time.Time) Option {
	return func(n *Notification) {
		n.expiryTime = &t
	}
}

// NewNotification creates a Notification.
// Title and message must be non-empty; everything else is passed through.
func NewNotification(title, message string, opts ...Option) (*Notification, error) {
	if title == "" {
		return nil, &Error{Kind: KindValidation, Op: "new notification", Err: ErrEmptyTitle}
	}
	if message == "" {
		return nil, &Error{Kind: KindValidation, Op: "new notification", Err: ErrEmptyMessage}
	}

	n := &Notification{
		title:       title,
		message:     message,
		closable:    true,
		minimizable: true,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Title returns the notification title.
func (n *Notification) Title() string {
	return n.title
}

// Message returns the notification body.
func (n *Notification) Message() string {
	return n.message
}

// IconPath returns the icon path and whether one was set.
func (n *Notification) IconPath() (string, bool) {
	if n.iconPath == nil {
		return "", false
	}
	return *n.iconPath, true
}

// Closable reports whether the display should offer a close control.
func (n *Notification) Closable() bool {
	return n.closable
}

// Minimizable reports whether the display should offer a minimize control.
func (n *Notification) Minimizable() bool {
	return n.minimizable
}

// ExpiryTime returns the expiry time and whether one was set.
func (n *Notification) ExpiryTime() (time.Time, bool) {
	if n.expiryTime == nil {
		return time.Time{}, false
	}
	return *n.expiryTime, true
}

// IsExpired reports whether the expiry time is set and not after now.
// Nothing in the poll path filters on this; displays use it for rendering.
func (n *Notification) IsExpired(now time.Time) bool {
	exp, ok := n.ExpiryTime()
	return ok && !exp.After(now)
}

// ExpiresIn returns the time left until expiry.
// Returns 0 and false when no expiry is set.
func (n *Notification) ExpiresIn(now time.Time) (time.Duration, bool) {
	exp, ok := n.ExpiryTime()
	if !ok {
		return 0, false
	}
	return exp.Sub(now), true
}

// Equal reports whether two notifications hold the same values.
// Expiry times compare by instant, so a timestamp that went through a
// different zone offset is still equal.
func (n *Notification) Equal(other *Notification) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.title != other.title ||
		n.message != other.message ||
		n.closable != other.closable ||
		n.minimizable != other.minimizable {
		return false
	}

	icon, hasIcon := n.IconPath()
	otherIcon, otherHasIcon := other.IconPath()
	if hasIcon != otherHasIcon || icon != otherIcon {
		return false
	}

	exp, hasExp := n.ExpiryTime()
	otherExp, otherHasExp := other.ExpiryTime()
	if hasExp != otherHasExp {
		return false
	}
	return !hasExp || exp.Equal(otherExp)
}
