package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastd/internal/model"
)

// Terminal styles.
var (
	toastBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	pinnedBorderStyle = toastBorderStyle.
				BorderForeground(lipgloss.Color("196"))

	toastTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	toastMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// TerminalDisplay writes each toast as a bordered box.
type TerminalDisplay struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewTerminalDisplay creates a terminal backend writing to out.
func NewTerminalDisplay(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{out: out, now: time.Now}
}

// Show implements Display.
func (d *TerminalDisplay) Show(_ context.Context, n *model.Notification) error {
	box := RenderToast(n, d.now())

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := fmt.Fprintln(d.out, box); err != nil {
		return &DisplayError{Backend: "terminal", Message: "write failed", Cause: err}
	}
	return nil
}

// RenderToast renders a notification as a styled box.
func RenderToast(n *model.Notification, now time.Time) string {
	lines := []string{
		toastTitleStyle.Render(n.Title()),
		n.Message(),
	}

	var meta []string
	if icon, ok := n.IconPath(); ok {
		meta = append(meta, "icon: "+icon)
	}
	if line := ExpiryLine(n, now); line != "" {
		meta = append(meta, line)
	}
	if !n.Closable() {
		meta = append(meta, "pinned")
	}
	if len(meta) > 0 {
		lines = append(lines, toastMetaStyle.Render(strings.Join(meta, " · ")))
	}

	style := toastBorderStyle
	if !n.Closable() {
		style = pinnedBorderStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

// ExpiryLine describes when a notification expires relative to now.
// Returns an empty string when no expiry is set.
func ExpiryLine(n *model.Notification, now time.Time) string {
	expiry, ok := n.ExpiryTime()
	if !ok {
		return ""
	}
	if n.IsExpired(now) {
		return "expired " + humanize.RelTime(expiry, now, "ago", "from now")
	}
	return "expires " + humanize.RelTime(expiry, now, "ago", "from now")
}
