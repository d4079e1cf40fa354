package display

import (
	"context"

	"github.com/gen2brain/beeep"

	"github.com/jmylchreest/toastd/internal/model"
)

// BeeepDisplay shows toasts through the platform notifier via beeep.
type BeeepDisplay struct {
	notify func(title, message, icon string) error
	alert  func(title, message, icon string) error
}

// NewBeeepDisplay creates a beeep backend reporting as appName.
func NewBeeepDisplay(appName string) *BeeepDisplay {
	if appName != "" {
		beeep.AppName = appName
	}
	return &BeeepDisplay{
		notify: func(title, message, icon string) error { return beeep.Notify(title, message, icon) },
		alert:  func(title, message, icon string) error { return beeep.Alert(title, message, icon) },
	}
}

// Show implements Display. Toasts that cannot be closed are raised as alerts.
func (d *BeeepDisplay) Show(_ context.Context, n *model.Notification) error {
	icon, _ := n.IconPath()

	send := d.notify
	if !n.Closable() {
		send = d.alert
	}
	if err := send(n.Title(), n.Message(), icon); err != nil {
		return &DisplayError{Backend: "beeep", Message: "notify failed", Cause: err}
	}
	return nil
}
