package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/toastd/internal/model"
)

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Display shows toasts in the toast window.
type Display struct {
	program Sender
}

// NewDisplay creates a display feeding p.
func NewDisplay(p Sender) *Display {
	return &Display{program: p}
}

// Show sends n to the window. It blocks until the window accepts the
// message or has exited.
func (d *Display) Show(ctx context.Context, n *model.Notification) error {
	if n == nil {
		return &model.Error{Kind: model.KindValidation, Op: "show", Err: model.ErrNilNotification}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	d.program.Send(ToastMsg{Notification: n})
	return nil
}

// Run opens the toast window and blocks until the user quits or ctx is
// done. start is called with the window's display before the window opens.
func Run(ctx context.Context, start func(d *Display)) error {
	p := tea.NewProgram(New(), tea.WithAltScreen(), tea.WithContext(ctx))
	if start != nil {
		start(NewDisplay(p))
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
