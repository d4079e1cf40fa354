package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastd/internal/codec"
	"github.com/jmylchreest/toastd/internal/model"
)

// yamlNotification uses the trigger file keys.
type yamlNotification struct {
	Title       string  `yaml:"title"`
	Message     string  `yaml:"message"`
	IconPath    *string `yaml:"icon_path"`
	Closable    bool    `yaml:"closable"`
	Minimizable bool    `yaml:"minimizable"`
	ExpiryTime  *string `yaml:"expiry_time"`
}

// YAMLFormatter formats a notification as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes n as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, n *model.Notification) error {
	if n == nil {
		return &model.Error{Kind: model.KindValidation, Op: "format", Err: model.ErrNilNotification}
	}

	doc := yamlNotification{
		Title:       n.Title(),
		Message:     n.Message(),
		Closable:    n.Closable(),
		Minimizable: n.Minimizable(),
	}
	if icon, ok := n.IconPath(); ok {
		doc.IconPath = &icon
	}
	if exp, ok := n.ExpiryTime(); ok {
		s := codec.FormatTimestamp(exp)
		doc.ExpiryTime = &s
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
