package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/model"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warnings. They stay until dismissed.
	NotificationLevelWarning
)

// internalExpiry is how long informational self-notifications stay relevant.
const internalExpiry = 5 * time.Second

// InternalNotifier sends toasts about toastd's own events through the
// display. Repeats of the same event are rate limited.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	display display.Display

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications
	now            func() time.Time

	enabled bool
}

// NewInternalNotifier creates a notifier that shows toasts on disp.
func NewInternalNotifier(disp display.Display, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		display:        disp,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify shows an internal notification unless the same key was shown
// within the minimum interval. It returns whether a toast was sent.
// The display runs on its own goroutine.
func (n *InternalNotifier) Notify(ctx context.Context, key, title, message string, level NotificationLevel) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled || n.display == nil {
		return false
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.logger.Debug("internal notification rate-limited", "key", key, "title", title)
		return false
	}

	var opts []model.Option
	switch level {
	case NotificationLevelWarning:
		opts = append(opts, model.WithClosable(false))
	default:
		opts = append(opts, model.WithExpiryTime(now.Add(internalExpiry)))
	}

	toast, err := model.NewNotification(title, message, opts...)
	if err != nil {
		n.logger.Warn("invalid internal notification", "key", key, "error", err)
		return false
	}
	n.lastNotifyTime[key] = now

	n.logger.Debug("sending internal notification", "key", key, "title", title, "level", level)

	go func() {
		if err := n.display.Show(ctx, toast); err != nil {
			n.logger.Debug("internal notification failed", "key", key, "error", err)
		}
	}()
	return true
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded(ctx context.Context) bool {
	return n.Notify(ctx,
		"config-reload",
		"Configuration Reloaded",
		"toastd configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(ctx context.Context, err error) bool {
	return n.Notify(ctx,
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}
