package display

import (
	"context"

	"github.com/sqweek/dialog"

	"github.com/jmylchreest/toastd/internal/model"
)

// DialogDisplay shows each toast as a native modal message box.
// Show blocks until the user dismisses the box.
type DialogDisplay struct {
	info  func(title, message string)
	alert func(title, message string)
}

// NewDialogDisplay creates a dialog backend.
func NewDialogDisplay() *DialogDisplay {
	return &DialogDisplay{
		info:  func(title, message string) { dialog.Message("%s", message).Title(title).Info() },
		alert: func(title, message string) { dialog.Message("%s", message).Title(title).Error() },
	}
}

// Show implements Display.
func (d *DialogDisplay) Show(ctx context.Context, n *model.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if n.Closable() {
		d.info(n.Title(), n.Message())
	} else {
		d.alert(n.Title(), n.Message())
	}
	return nil
}
