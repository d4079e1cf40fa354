package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

// caller is the subset of dbus.BusObject used by Client.
type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Client sends notifications to the session's notification server.
type Client struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	obj    caller
	logger *slog.Logger
}

// NewClient creates a Client. Connect must be called before use.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger}
}

// newClientWithObject creates a Client bound to an existing object.
func newClientWithObject(obj caller, logger *slog.Logger) *Client {
	c := NewClient(logger)
	c.obj = obj
	return c
}

// Connect opens a private session bus connection.
// Calling Connect on a connected client is a no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.obj != nil {
		return nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	c.conn = conn
	c.obj = conn.Object(DBusBusName, DBusPath)

	c.logger.Debug("connected to session bus", "destination", DBusBusName)
	return nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.obj = nil
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) object() (caller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.obj == nil {
		return nil, fmt.Errorf("not connected to D-Bus")
	}
	return c.obj, nil
}

// Notify sends a notification and returns the server-assigned ID.
func (c *Client) Notify(ctx context.Context, n *DBusNotification) (uint32, error) {
	obj, err := c.object()
	if err != nil {
		return 0, err
	}

	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}

	call := obj.CallWithContext(ctx, DBusInterface+".Notify", 0,
		n.AppName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		actions,
		hints,
		n.ExpireTimeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("notify call failed: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}

	c.logger.Debug("sent notification", "id", id, "summary", n.Summary)
	return id, nil
}

// CloseNotification asks the server to close a notification.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	obj, err := c.object()
	if err != nil {
		return err
	}
	call := obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id)
	if call.Err != nil {
		return fmt.Errorf("close call failed: %w", call.Err)
	}
	return nil
}

// GetCapabilities returns the capabilities advertised by the server.
func (c *Client) GetCapabilities(ctx context.Context) ([]string, error) {
	obj, err := c.object()
	if err != nil {
		return nil, err
	}
	var caps []string
	if err := obj.CallWithContext(ctx, DBusInterface+".GetCapabilities", 0).Store(&caps); err != nil {
		return nil, fmt.Errorf("get capabilities failed: %w", err)
	}
	return caps, nil
}

// GetServerInformation returns the server's name, vendor and versions.
func (c *Client) GetServerInformation(ctx context.Context) (ServerInfo, error) {
	obj, err := c.object()
	if err != nil {
		return ServerInfo{}, err
	}
	var info ServerInfo
	call := obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0)
	if err := call.Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion); err != nil {
		return ServerInfo{}, fmt.Errorf("get server information failed: %w", err)
	}
	return info, nil
}
