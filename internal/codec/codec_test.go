package codec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/model"
)

const buildDone = `{"title":"Build","message":"Done","icon_path":null,"closable":true,"minimizable":true,"expiry_time":null}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notification.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDecode_Minimal(t *testing.T) {
	n, err := Decode(writeFile(t, buildDone))
	require.NoError(t, err)

	assert.Equal(t, "Build", n.Title())
	assert.Equal(t, "Done", n.Message())
	assert.True(t, n.Closable())
	assert.True(t, n.Minimizable())
	_, hasIcon := n.IconPath()
	assert.False(t, hasIcon)
	_, hasExpiry := n.ExpiryTime()
	assert.False(t, hasExpiry)
}

func TestDecode_AllFields(t *testing.T) {
	content := `{
    "title": "Backup",
    "message": "Snapshot complete",
    "icon_path": "/tmp/icon.png",
    "closable": false,
    "minimizable": false,
    "expiry_time": "2026-10-19T18:00:00+02:00",
    "extra": "ignored"
}`
	n, err := Decode(writeFile(t, content))
	require.NoError(t, err)

	icon, ok := n.IconPath()
	assert.True(t, ok)
	assert.Equal(t, "/tmp/icon.png", icon)
	assert.False(t, n.Closable())
	assert.False(t, n.Minimizable())

	exp, ok := n.ExpiryTime()
	require.True(t, ok)
	assert.True(t, exp.Equal(time.Date(2026, 10, 19, 16, 0, 0, 0, time.UTC)))
}

func TestDecode_MissingKeys(t *testing.T) {
	var full map[string]any
	require.NoError(t, json.Unmarshal([]byte(buildDone), &full))

	for _, key := range RequiredKeys {
		t.Run(key, func(t *testing.T) {
			doc := make(map[string]any, len(full))
			for k, v := range full {
				if k != key {
					doc[k] = v
				}
			}
			data, err := json.Marshal(doc)
			require.NoError(t, err)

			n, err := Decode(writeFile(t, string(data)))
			assert.Nil(t, n)
			assert.True(t, model.IsKind(err, model.KindDecode), "got %v", err)
			assert.ErrorIs(t, err, model.ErrMissingKey)
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantKind model.Kind
	}{
		{
			name:     "unparsable expiry",
			content:  `{"title":"t","message":"m","icon_path":null,"closable":true,"minimizable":true,"expiry_time":"not-a-date"}`,
			wantKind: model.KindDecode,
		},
		{
			name:     "malformed json",
			content:  `{"title":"t","message":`,
			wantKind: model.KindDecode,
		},
		{
			name:     "empty file",
			content:  ``,
			wantKind: model.KindDecode,
		},
		{
			name:     "not an object",
			content:  `["title","message"]`,
			wantKind: model.KindDecode,
		},
		{
			name:     "json null document",
			content:  `null`,
			wantKind: model.KindDecode,
		},
		{
			name:     "wrong type for closable",
			content:  `{"title":"t","message":"m","icon_path":null,"closable":"yes","minimizable":true,"expiry_time":null}`,
			wantKind: model.KindDecode,
		},
		{
			name:     "null minimizable",
			content:  `{"title":"t","message":"m","icon_path":null,"closable":true,"minimizable":null,"expiry_time":null}`,
			wantKind: model.KindDecode,
		},
		{
			name:     "numeric expiry",
			content:  `{"title":"t","message":"m","icon_path":null,"closable":true,"minimizable":true,"expiry_time":12}`,
			wantKind: model.KindDecode,
		},
		{
			name:     "empty title",
			content:  `{"title":"","message":"x","icon_path":null,"closable":true,"minimizable":true,"expiry_time":null}`,
			wantKind: model.KindValidation,
		},
		{
			name:     "null message",
			content:  `{"title":"t","message":null,"icon_path":null,"closable":true,"minimizable":true,"expiry_time":null}`,
			wantKind: model.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			n, err := Decode(path)
			assert.Nil(t, n)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, model.KindOf(err), "got %v", err)
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestDecode_Precondition(t *testing.T) {
	dir := t.TempDir()

	n, err := Decode(filepath.Join(dir, "missing.json"))
	assert.Nil(t, n)
	assert.True(t, model.IsKind(err, model.KindPrecondition))
	assert.ErrorIs(t, err, os.ErrNotExist)

	n, err = Decode(dir)
	assert.Nil(t, n)
	assert.True(t, model.IsKind(err, model.KindPrecondition))
	assert.ErrorIs(t, err, model.ErrNotRegularFile)
}

func TestDecode_DoesNotModifyFile(t *testing.T) {
	path := writeFile(t, buildDone)
	_, err := Decode(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buildDone, string(data))
}

func TestRoundTrip(t *testing.T) {
	local := time.Date(2026, 10, 19, 9, 15, 30, 123456789, time.Local)
	zoned := time.Date(2030, 2, 1, 23, 59, 59, 0, time.FixedZone("X", -5*3600))

	tests := []struct {
		name string
		opts []model.Option
	}{
		{"defaults", nil},
		{"icon only", []model.Option{model.WithIconPath("C:\\icons\\toast.ico")}},
		{"empty icon", []model.Option{model.WithIconPath("")}},
		{"flags off", []model.Option{model.WithClosable(false), model.WithMinimizable(false)}},
		{"local expiry with nanos", []model.Option{model.WithExpiryTime(local)}},
		{"zoned expiry", []model.Option{model.WithExpiryTime(zoned), model.WithIconPath("/i.png")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := model.NewNotification("Title <&>", "Message \"quoted\"\nline two", tt.opts...)
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "notification.json")
			require.NoError(t, Encode(path, want))

			got, err := Decode(path)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "round trip mismatch")
		})
	}
}

func TestMarshal_Format(t *testing.T) {
	exp := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	n, err := model.NewNotification("Build", "Done", model.WithExpiryTime(exp))
	require.NoError(t, err)

	data, err := Marshal(n)
	require.NoError(t, err)

	want := `{
    "title": "Build",
    "message": "Done",
    "icon_path": null,
    "closable": true,
    "minimizable": true,
    "expiry_time": "2026-10-19T12:00:00Z"
}
`
	assert.Equal(t, want, string(data))

	// Key set is exactly the required keys.
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc, len(RequiredKeys))
	for _, key := range RequiredKeys {
		assert.Contains(t, doc, key)
	}
}

func TestEncode_Overwrites(t *testing.T) {
	path := writeFile(t, strings.Repeat("x", 4096))

	n, err := model.NewNotification("a", "b")
	require.NoError(t, err)
	require.NoError(t, Encode(path, n))

	got, err := Decode(path)
	require.NoError(t, err)
	assert.True(t, n.Equal(got))
}

func TestEncode_NilNotification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notification.json")

	err := Encode(path, nil)
	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.ErrorIs(t, err, model.ErrNilNotification)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncode_SwallowsWriteFaults(t *testing.T) {
	n, err := model.NewNotification("a", "b")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "missing-dir", "notification.json")
	assert.NoError(t, Encode(path, n))

	err = Write(path, n)
	assert.True(t, model.IsKind(err, model.KindIO))
}
