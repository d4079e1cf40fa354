// Package output provides output formatters for notifications.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/toastd/internal/model"
)

// Formatter formats a notification for output.
type Formatter interface {
	// Format writes a formatted notification to the writer.
	Format(w io.Writer, n *model.Notification) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
	FormatYAML  FormatType = "yaml"
)

// FormatTypes returns all supported format names.
func FormatTypes() []FormatType {
	return []FormatType{FormatJSON, FormatYAML, FormatPlain, FormatDmenu}
}

// ParseFormatType validates a format name.
func ParseFormatType(s string) (FormatType, error) {
	for _, f := range FormatTypes() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q, must be one of: %v", s, FormatTypes())
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template       string // Custom template for dmenu/plain format
	BodyMaxLen     int    // Maximum message length (0 = unlimited)
	Separator      string // Field separator for dmenu format
	IncludeNewline bool   // Include newlines in message (default: replace with space)
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		BodyMaxLen: 80,
		Separator:  " | ",
	}
}

// FormatField outputs a specific field from a notification.
func FormatField(n *model.Notification, field string) string {
	switch strings.ToLower(field) {
	case "title", "summary":
		return n.Title()
	case "message", "body":
		return n.Message()
	case "icon", "icon_path":
		icon, _ := n.IconPath()
		return icon
	case "closable":
		return fmt.Sprint(n.Closable())
	case "minimizable":
		return fmt.Sprint(n.Minimizable())
	case "expiry", "expiry_time":
		return expiryString(n)
	case "all", "full":
		return fmt.Sprintf("%s\n%s", n.Title(), n.Message())
	default:
		return n.Title()
	}
}
