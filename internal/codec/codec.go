// Package codec converts between model.Notification and the JSON trigger file.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmylchreest/toastd/internal/model"
)

// Wire keys, in the order they are written.
const (
	KeyTitle       = "title"
	KeyMessage     = "message"
	KeyIconPath    = "icon_path"
	KeyClosable    = "closable"
	KeyMinimizable = "minimizable"
	KeyExpiryTime  = "expiry_time"
)

// RequiredKeys lists every key a trigger file must contain.
var RequiredKeys = []string{
	KeyTitle,
	KeyMessage,
	KeyIconPath,
	KeyClosable,
	KeyMinimizable,
	KeyExpiryTime,
}

// wireNotification is the on-disk shape of a Notification.
// Field order matches RequiredKeys.
type wireNotification struct {
	Title       string  `json:"title"`
	Message     string  `json:"message"`
	IconPath    *string `json:"icon_path"`
	Closable    bool    `json:"closable"`
	Minimizable bool    `json:"minimizable"`
	ExpiryTime  *string `json:"expiry_time"`
}

// Decode reads the trigger file at path and builds a Notification from it.
// The file is only read; deleting it is up to the caller.
func Decode(path string) (*model.Notification, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &model.Error{Kind: model.KindPrecondition, Op: "decode", Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &model.Error{Kind: model.KindPrecondition, Op: "decode", Path: path, Err: model.ErrNotRegularFile}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.Error{Kind: model.KindIO, Op: "decode", Path: path, Err: err}
	}

	n, err := Unmarshal(data)
	if err != nil {
		if e, ok := err.(*model.Error); ok {
			e.Path = path
			return nil, e
		}
		return nil, err
	}
	return n, nil
}

// Unmarshal builds a Notification from a JSON document.
func Unmarshal(data []byte) (*model.Notification, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeError(fmt.Errorf("invalid json: %w", err))
	}
	if raw == nil {
		return nil, decodeError(fmt.Errorf("document is not a json object"))
	}

	for _, key := range RequiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, decodeError(fmt.Errorf("%w %q", model.ErrMissingKey, key))
		}
	}
	for _, key := range []string{KeyClosable, KeyMinimizable} {
		if string(bytes.TrimSpace(raw[key])) == "null" {
			return nil, decodeError(fmt.Errorf("%q must be a boolean, got null", key))
		}
	}

	var w wireNotification
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, decodeError(err)
	}

	opts := []model.Option{
		model.WithClosable(w.Closable),
		model.WithMinimizable(w.Minimizable),
	}
	if w.IconPath != nil {
		opts = append(opts, model.WithIconPath(*w.IconPath))
	}
	if w.ExpiryTime != nil {
		exp, err := ParseTimestamp(*w.ExpiryTime)
		if err != nil {
			return nil, decodeError(fmt.Errorf("%w: %w", model.ErrInvalidExpiry, err))
		}
		opts = append(opts, model.WithExpiryTime(exp))
	}

	return model.NewNotification(w.Title, w.Message, opts...)
}

// Marshal renders n as an indented JSON document with a trailing newline.
func Marshal(n *model.Notification) ([]byte, error) {
	if n == nil {
		return nil, &model.Error{Kind: model.KindValidation, Op: "encode", Err: model.ErrNilNotification}
	}

	w := wireNotification{
		Title:       n.Title(),
		Message:     n.Message(),
		Closable:    n.Closable(),
		Minimizable: n.Minimizable(),
	}
	if icon, ok := n.IconPath(); ok {
		w.IconPath = &icon
	}
	if exp, ok := n.ExpiryTime(); ok {
		s := FormatTimestamp(exp)
		w.ExpiryTime = &s
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(w); err != nil {
		return nil, &model.Error{Kind: model.KindIO, Op: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// Write serialises n to path, overwriting any existing content in place.
// A concurrent reader may observe a partially written file.
func Write(path string, n *model.Notification) error {
	data, err := Marshal(n)
	if err != nil {
		if e, ok := err.(*model.Error); ok {
			e.Path = path
		}
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return &model.Error{Kind: model.KindIO, Op: "encode", Path: path, Err: err}
	}
	return nil
}

// Encode writes n to path. Validation errors are returned; write faults are
// logged and swallowed, so a nil return does not mean the file exists.
// Use Write when the caller needs to know.
func Encode(path string, n *model.Notification) error {
	err := Write(path, n)
	if err == nil {
		return nil
	}
	if model.IsKind(err, model.KindValidation) {
		return err
	}
	slog.Warn("failed to write notification", "path", path, "error", err)
	return nil
}

func decodeError(err error) error {
	return &model.Error{Kind: model.KindDecode, Op: "decode", Err: err}
}
