package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastd/internal/model"
)

// DmenuFormatter formats a notification as a single line for
// dmenu/rofi/fuzzel or for streaming into a log.
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
	now      func() time.Time
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	return &DmenuFormatter{
		opts:     opts,
		template: parseTemplate("dmenu", opts.Template),
		now:      time.Now,
	}
}

// Format writes n as one line.
func (f *DmenuFormatter) Format(w io.Writer, n *model.Notification) error {
	if n == nil {
		return &model.Error{Kind: model.KindValidation, Op: "format", Err: model.ErrNilNotification}
	}
	_, err := fmt.Fprintln(w, f.formatLine(n))
	return err
}

// formatLine formats a single notification line.
func (f *DmenuFormatter) formatLine(n *model.Notification) string {
	// Use custom template if available
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, newTemplateData(n, f.now())); err == nil {
			return buf.String()
		}
	}

	// Default format: title: message | expiry
	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	content := n.Title()
	if body := sanitizeBody(n.Message(), f.opts.BodyMaxLen, f.opts.IncludeNewline); body != "" {
		content += ": " + body
	}
	parts := []string{content}

	if exp, ok := n.ExpiryTime(); ok {
		parts = append(parts, humanize.RelTime(exp, f.now(), "ago", "from now"))
	}

	return strings.Join(parts, sep)
}

// sanitizeBody cleans up message text for single-line display.
func sanitizeBody(body string, maxLen int, includeNewline bool) string {
	// Replace newlines with spaces unless explicitly included
	if !includeNewline {
		body = strings.ReplaceAll(body, "\n", " ")
		body = strings.ReplaceAll(body, "\r", "")
	}

	// Collapse multiple spaces
	for strings.Contains(body, "  ") {
		body = strings.ReplaceAll(body, "  ", " ")
	}
	body = strings.TrimSpace(body)

	return truncate(body, maxLen)
}
