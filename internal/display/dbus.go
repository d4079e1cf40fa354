package display

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/model"
)

// closeTimeout bounds the CloseNotification call made at expiry.
const closeTimeout = 5 * time.Second

// notifier is the part of dbus.Client used by DBusDisplay.
type notifier interface {
	Notify(ctx context.Context, n *dbus.DBusNotification) (uint32, error)
	CloseNotification(ctx context.Context, id uint32) error
}

// DBusDisplay sends notifications to the session notification server.
type DBusDisplay struct {
	client         notifier
	appName        string
	defaultTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
	afterFunc      func(d time.Duration, f func())
}

// NewDBusDisplay creates a D-Bus backend around a connected client.
func NewDBusDisplay(client notifier, appName string, defaultTimeout time.Duration, logger *slog.Logger) *DBusDisplay {
	if logger == nil {
		logger = slog.Default()
	}
	return &DBusDisplay{
		client:         client,
		appName:        appName,
		defaultTimeout: defaultTimeout,
		logger:         logger,
		now:            time.Now,
		afterFunc:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Show implements Display.
func (d *DBusDisplay) Show(ctx context.Context, n *model.Notification) error {
	req := toDBusNotification(n, d.appName, d.defaultTimeout, d.now())

	id, err := d.client.Notify(ctx, req)
	if err != nil {
		return &DisplayError{Backend: "dbus", Message: "notify failed", Cause: err}
	}

	d.logger.Debug("notification sent",
		"dbus_id", id,
		"summary", req.Summary,
		"expire_timeout", req.ExpireTimeout,
	)

	// Pinned toasts are sent without a timeout, so close them ourselves
	// once they expire.
	if !n.Closable() {
		if remaining, ok := n.ExpiresIn(d.now()); ok && remaining > 0 {
			d.afterFunc(remaining, func() { d.close(id) })
		}
	}
	return nil
}

func (d *DBusDisplay) close(id uint32) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := d.client.CloseNotification(ctx, id); err != nil {
		d.logger.Debug("failed to close expired notification", "dbus_id", id, "error", err)
		return
	}
	d.logger.Debug("expired notification closed", "dbus_id", id)
}

// toDBusNotification maps a notification onto a Notify request.
// A notification that cannot be closed is sent resident and critical so
// servers keep it until acted on. Minimizable has no freedesktop
// equivalent.
func toDBusNotification(n *model.Notification, appName string, defaultTimeout time.Duration, now time.Time) *dbus.DBusNotification {
	req := dbus.NewDBusNotification(appName, n.Title(), n.Message())
	req.SetHint("desktop-entry", appName)

	if icon, ok := n.IconPath(); ok {
		req.AppIcon = icon
		req.SetHint("image-path", icon)
	}

	if !n.Closable() {
		req.SetHint("urgency", dbus.UrgencyCritical)
		req.SetHint("resident", true)
		req.ExpireTimeout = dbus.ExpireNever
		return req
	}

	req.SetHint("urgency", dbus.UrgencyNormal)

	if remaining, ok := n.ExpiresIn(now); ok {
		// Expired toasts still show, with the server's default timeout.
		if remaining > 0 {
			req.ExpireTimeout = millis(remaining)
		}
		return req
	}

	if defaultTimeout > 0 {
		req.ExpireTimeout = millis(defaultTimeout)
	}
	return req
}

func millis(d time.Duration) int32 {
	ms := d.Milliseconds()
	if ms < 1 {
		return 1
	}
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(ms)
}
