package dbus

import (
	"github.com/godbus/dbus/v5"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name owned by the notification server.
	DBusBusName = "org.freedesktop.Notifications"
)

// Urgency levels from the freedesktop spec.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Expire timeout sentinels for Notify.
const (
	ExpireDefault int32 = -1
	ExpireNever   int32 = 0
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved by the freedesktop protocol.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// DBusNotification holds the parameters of an org.freedesktop.Notifications.Notify call.
type DBusNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// NewDBusNotification creates a request with empty actions and hints.
func NewDBusNotification(appName, summary, body string) *DBusNotification {
	return &DBusNotification{
		AppName:       appName,
		Summary:       summary,
		Body:          body,
		Actions:       []string{},
		Hints:         make(map[string]dbus.Variant),
		ExpireTimeout: ExpireDefault,
	}
}

// SetHint sets a hint, creating the hint map if needed.
func (n *DBusNotification) SetHint(key string, value any) {
	if n.Hints == nil {
		n.Hints = make(map[string]dbus.Variant)
	}
	n.Hints[key] = dbus.MakeVariant(value)
}

// Urgency extracts the urgency hint from the notification.
// Returns UrgencyNormal if not specified.
func (n *DBusNotification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint from the notification.
// Returns empty string if not specified.
func (n *DBusNotification) Category() string {
	return n.stringHint("category")
}

// DesktopEntry extracts the desktop-entry hint.
func (n *DBusNotification) DesktopEntry() string {
	return n.stringHint("desktop-entry")
}

// ImagePath extracts the image-path hint.
func (n *DBusNotification) ImagePath() string {
	return n.stringHint("image-path")
}

// Transient returns true if the transient hint is set.
// Transient notifications bypass the server's persistence.
func (n *DBusNotification) Transient() bool {
	return n.boolHint("transient")
}

// Resident returns true if the resident hint is set.
// Resident notifications stay until the user closes them.
func (n *DBusNotification) Resident() bool {
	return n.boolHint("resident")
}

func (n *DBusNotification) stringHint(key string) string {
	if v, ok := n.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (n *DBusNotification) boolHint(key string) bool {
	if v, ok := n.Hints[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}
