package output

import (
	"io"

	"github.com/jmylchreest/toastd/internal/codec"
	"github.com/jmylchreest/toastd/internal/model"
)

// JSONFormatter writes a notification in trigger file form.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes n as JSON. The output can be used as a trigger file.
func (f *JSONFormatter) Format(w io.Writer, n *model.Notification) error {
	data, err := codec.Marshal(n)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
