// Package tui provides the BubbleTea-based toast window.
package tui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastd/internal/adapter/output"
	"github.com/jmylchreest/toastd/internal/codec"
	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/model"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeHelp
)

// ToastMsg delivers a notification to the window.
type ToastMsg struct {
	Notification *model.Notification
}

// toast is a received notification and its window state.
type toast struct {
	id           int
	notification *model.Notification
	received     time.Time
	minimized    bool
}

// toastItem wraps a toast for the list component.
type toastItem struct {
	toast *toast
	now   time.Time
}

func (i toastItem) Title() string {
	return i.toast.notification.Title()
}

func (i toastItem) Description() string {
	if i.toast.minimized {
		return ""
	}

	desc := strings.ReplaceAll(i.toast.notification.Message(), "\n", " ")
	parts := []string{humanize.RelTime(i.toast.received, i.now, "ago", "from now")}
	if line := display.ExpiryLine(i.toast.notification, i.now); line != "" {
		parts = append(parts, line)
	}
	return fmt.Sprintf("[%s] %s", strings.Join(parts, ", "), desc)
}

func (i toastItem) FilterValue() string {
	return i.toast.notification.Title() + " " + i.toast.notification.Message()
}

// toastDelegate styles pinned, minimized and expired toasts.
type toastDelegate struct {
	list.DefaultDelegate
}

func newToastDelegate() toastDelegate {
	return toastDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item. All items keep the same height.
func (d toastDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(toastItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	n := ti.toast.notification

	titleStyle := d.Styles.NormalTitle
	descStyle := d.Styles.NormalDesc
	if isSelected {
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
	}
	switch {
	case n.IsExpired(ti.now):
		titleStyle = titleStyle.Foreground(lipgloss.Color("8"))
		descStyle = descStyle.Foreground(lipgloss.Color("8"))
	case !n.Closable():
		titleStyle = titleStyle.Foreground(lipgloss.Color("196"))
	}

	title := ti.Title()
	if !n.Closable() {
		title = "[pinned] " + title
	}
	if ti.toast.minimized {
		title = "[-] " + title
	}

	itemWidth := m.Width() - d.Styles.NormalTitle.GetHorizontalPadding()
	title = clip(title, itemWidth)
	desc := clip(ti.Description(), itemWidth)

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

func clip(s string, width int) string {
	r := []rune(s)
	if width > 1 && len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

// Model is the toast window model.
type Model struct {
	mode Mode

	// Components
	list     list.Model
	viewport viewport.Model
	help     help.Model

	// State
	toasts   []*toast // Newest first
	nextID   int
	selected *toast
	width    int
	height   int
	ready    bool
	now      func() time.Time

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool

	// Replaced in tests
	copy func(text string) error
}

// New creates a new toast window model.
func New() Model {
	l := list.New(nil, newToastDelegate(), 0, 0)
	l.Title = "Toasts"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		mode: ModeList,
		list: l,
		help: help.New(),
		keys: DefaultKeyMap(),
		now:  time.Now,
		copy: copyText,
	}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tick()
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.list.SetSize(msg.Width, msg.Height-2)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		return m, nil

	case ToastMsg:
		if msg.Notification == nil {
			return m, nil
		}
		m.nextID++
		t := &toast{id: m.nextID, notification: msg.Notification, received: m.now()}
		m.toasts = append([]*toast{t}, m.toasts...)
		m.list.SetItems(m.buildListItems())
		m.list.Select(0)
		return m, nil

	case tickMsg:
		// Refresh relative times.
		m.list.SetItems(m.buildListItems())
		return m, tick()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeList:
		m.list, cmd = m.list.Update(msg)
	case ModeDetail:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}
	return m, nil
}

func (m Model) selectedToast() *toast {
	if item, ok := m.list.SelectedItem().(toastItem); ok {
		return item.toast
	}
	return nil
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.selectedToast()

	switch {
	case key.Matches(msg, m.keys.Enter):
		if t != nil {
			m.selected = t
			m.mode = ModeDetail
			m.viewport.SetContent(m.renderDetail(t))
			m.viewport.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if t == nil {
			return m, nil
		}
		return m.dismiss(t)

	case key.Matches(msg, m.keys.Minimize):
		if t == nil {
			return m, nil
		}
		if !t.notification.Minimizable() {
			return m, status("This toast cannot be minimized", true)
		}
		t.minimized = !t.minimized
		m.list.SetItems(m.buildListItems())
		return m, nil
	}

	if t != nil {
		if cmd := m.copyKey(msg, t); cmd != nil {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.selected == nil {
			return m, nil
		}
		return m.dismiss(m.selected)
	}

	if m.selected != nil {
		if cmd := m.copyKey(msg, m.selected); cmd != nil {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// dismiss removes t unless the toast is pinned.
func (m Model) dismiss(t *toast) (tea.Model, tea.Cmd) {
	if !t.notification.Closable() {
		return m, status("This toast cannot be dismissed", true)
	}

	kept := m.toasts[:0:0]
	for _, other := range m.toasts {
		if other.id != t.id {
			kept = append(kept, other)
		}
	}
	m.toasts = kept
	m.list.SetItems(m.buildListItems())

	if m.selected != nil && m.selected.id == t.id {
		m.selected = nil
		m.mode = ModeList
	}
	return m, status("Toast dismissed", false)
}

// copyKey returns a clipboard command for copy bindings, or nil.
func (m Model) copyKey(msg tea.KeyMsg, t *toast) tea.Cmd {
	n := t.notification

	switch {
	case key.Matches(msg, m.keys.Copy):
		return m.copyToClipboard(n.Message())
	case key.Matches(msg, m.keys.CopyTitle):
		return m.copyToClipboard(n.Title())
	case key.Matches(msg, m.keys.CopyJSON):
		data, err := codec.Marshal(n)
		if err != nil {
			return status("Failed to marshal JSON: "+err.Error(), true)
		}
		return m.copyToClipboard(string(data))
	case key.Matches(msg, m.keys.CopyYAML):
		var buf bytes.Buffer
		if err := output.NewYAMLFormatter(output.FormatterOptions{}).Format(&buf, n); err != nil {
			return status("Failed to marshal YAML: "+err.Error(), true)
		}
		return m.copyToClipboard(buf.String())
	}
	return nil
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	copyFn := m.copy
	return func() tea.Msg {
		return copyResultMsg{err: copyFn(text)}
	}
}

func (m Model) buildListItems() []list.Item {
	now := m.now()
	items := make([]list.Item, len(m.toasts))
	for i, t := range m.toasts {
		items[i] = toastItem{toast: t, now: now}
	}
	return items
}

// Count returns the number of toasts in the window.
func (m Model) Count() int {
	return len(m.toasts)
}

// renderDetail renders the full toast for the detail view.
func (m Model) renderDetail(t *toast) string {
	n := t.notification
	now := m.now()

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("170"))
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(n.Title()) + "\n\n")
	sb.WriteString(labelStyle.Render("Received: ") + humanize.RelTime(t.received, now, "ago", "from now") + "\n")
	if icon, ok := n.IconPath(); ok {
		sb.WriteString(labelStyle.Render("Icon: ") + icon + "\n")
	}
	if line := display.ExpiryLine(n, now); line != "" {
		sb.WriteString(labelStyle.Render("Expiry: ") + line + "\n")
	}
	sb.WriteString(labelStyle.Render("Closable: ") + fmt.Sprint(n.Closable()) + "\n")
	sb.WriteString(labelStyle.Render("Minimizable: ") + fmt.Sprint(n.Minimizable()) + "\n")
	sb.WriteString("\n" + labelStyle.Render("Message:") + "\n")
	sb.WriteString(n.Message() + "\n")
	return sb.String()
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Waiting for toasts..."
	}

	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeDetail:
		return m.viewDetail()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m Model) viewList() string {
	s := m.list.View()
	if len(m.toasts) == 0 {
		s = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(1, 2).
			Render("No toasts yet. Waiting for the trigger file...")
	}
	return s + "\n" + m.statusLine()
}

func (m Model) viewDetail() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Render("Toast Detail")

	return header + "\n" + m.viewport.View() + "\n" + m.statusLine()
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1)

	h := m.help
	h.ShowAll = true
	h.Width = m.width
	return titleStyle.Render("Keyboard Shortcuts") + "\n\n" + h.View(m.keys)
}

// statusLine shows the status message, or the short help.
func (m Model) statusLine() string {
	if m.statusMsg == "" {
		h := m.help
		h.Width = m.width
		return h.View(m.keys)
	}

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	if m.statusErr {
		statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
	}
	return statusStyle.Render(m.statusMsg)
}
