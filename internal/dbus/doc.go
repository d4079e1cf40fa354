// Package dbus talks to the org.freedesktop.Notifications D-Bus interface.
// It provides a client that sends Notify and CloseNotification calls and
// queries GetCapabilities and GetServerInformation on the session bus.
package dbus
