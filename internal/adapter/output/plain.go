package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastd/internal/codec"
	"github.com/jmylchreest/toastd/internal/model"
)

// PlainFormatter formats a notification as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
	now      func() time.Time
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{
		opts:     opts,
		template: parseTemplate("plain", opts.Template),
		now:      time.Now,
	}
}

// Format writes n as plain text.
func (f *PlainFormatter) Format(w io.Writer, n *model.Notification) error {
	if n == nil {
		return &model.Error{Kind: model.KindValidation, Op: "format", Err: model.ErrNilNotification}
	}

	// Use custom template if available
	if f.template != nil {
		return f.template.Execute(w, newTemplateData(n, f.now()))
	}

	var sb strings.Builder
	sb.WriteString(n.Title())

	var flags []string
	if !n.Closable() {
		flags = append(flags, "pinned")
	}
	if !n.Minimizable() {
		flags = append(flags, "no-minimize")
	}
	if len(flags) > 0 {
		sb.WriteString(" [" + strings.Join(flags, ",") + "]")
	}
	sb.WriteString("\n")

	body := n.Message()
	if !f.opts.IncludeNewline {
		body = strings.ReplaceAll(body, "\n", " ")
	}
	sb.WriteString("    " + truncate(body, f.opts.BodyMaxLen) + "\n")

	if icon, ok := n.IconPath(); ok {
		sb.WriteString("    icon: " + icon + "\n")
	}
	if exp, ok := n.ExpiryTime(); ok {
		sb.WriteString(fmt.Sprintf("    expires: %s (%s)\n",
			codec.FormatTimestamp(exp), humanize.RelTime(exp, f.now(), "ago", "from now")))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// templateData provides data for custom templates.
type templateData struct {
	Title        string
	Message      string
	IconPath     string
	Closable     bool
	Minimizable  bool
	Expiry       string // RFC 3339, empty when unset
	RelativeTime string // e.g. "3 minutes from now", empty when unset
	Expired      bool
}

func newTemplateData(n *model.Notification, now time.Time) templateData {
	icon, _ := n.IconPath()
	data := templateData{
		Title:       n.Title(),
		Message:     n.Message(),
		IconPath:    icon,
		Closable:    n.Closable(),
		Minimizable: n.Minimizable(),
		Expiry:      expiryString(n),
		Expired:     n.IsExpired(now),
	}
	if exp, ok := n.ExpiryTime(); ok {
		data.RelativeTime = humanize.RelTime(exp, now, "ago", "from now")
	}
	return data
}

// parseTemplate returns nil for an empty or invalid template.
func parseTemplate(name, text string) *template.Template {
	if text == "" {
		return nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil
	}
	return tmpl
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
	}
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func expiryString(n *model.Notification) string {
	exp, ok := n.ExpiryTime()
	if !ok {
		return ""
	}
	return codec.FormatTimestamp(exp)
}
