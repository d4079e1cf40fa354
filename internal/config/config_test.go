package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "notification.json", cfg.Trigger.Path)
	assert.Equal(t, 5*time.Second, cfg.Trigger.Interval.Duration())
	assert.Equal(t, []string{"dbus"}, cfg.Display.Backends)
	assert.Equal(t, "toastd", cfg.Display.AppName)
	assert.Equal(t, 10*time.Second, cfg.Display.DefaultTimeout.Duration())
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 80, cfg.Audio.Volume)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/toastd.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toastd.toml")

	content := `
[trigger]
path = "/run/user/1000/toast.json"
interval = "250ms"

[display]
backends = ["terminal", "beeep"]
app_name = "builder"
default_timeout = "3000"

[audio]
enabled = true
volume = 40
sound = "~/sounds/ding.ogg"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/user/1000/toast.json", cfg.Trigger.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Trigger.Interval.Duration())
	assert.Equal(t, []string{"terminal", "beeep"}, cfg.Display.Backends)
	assert.Equal(t, "builder", cfg.Display.AppName)
	assert.Equal(t, 3*time.Second, cfg.Display.DefaultTimeout.Duration())
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 40, cfg.Audio.Volume)
	assert.Equal(t, "debug", cfg.Log.Level)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "sounds", "ding.ogg"), cfg.SoundPath())
}

func TestLoadConfig_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toastd.toml")

	content := `
[trigger]
interval = "1s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Trigger.Interval.Duration())

	// Unchanged fields keep their defaults
	assert.Equal(t, DefaultTriggerPath, cfg.Trigger.Path)
	assert.Equal(t, []string{"dbus"}, cfg.Display.Backends)
	assert.Equal(t, DefaultVolume, cfg.Audio.Volume)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid toml", `this is not valid toml [`},
		{"bad duration", "[trigger]\ninterval = \"soon\""},
		{"zero interval", "[trigger]\ninterval = \"0s\""},
		{"empty path", "[trigger]\npath = \"\""},
		{"unknown backend", "[display]\nbackends = [\"gtk\"]"},
		{"no backends", "[display]\nbackends = []"},
		{"negative timeout", "[display]\ndefault_timeout = \"-1s\""},
		{"volume too high", "[audio]\nvolume = 101"},
		{"bad log level", "[log]\nlevel = \"loud\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "toastd.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Save(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "toastd.toml")

	cfg := DefaultConfig()
	cfg.Trigger.Path = "/tmp/toast.json"
	cfg.Trigger.Interval = Duration(2 * time.Second)
	cfg.Display.Backends = []string{BackendTerminal}

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"5s", 5 * time.Second},
		{"1m30s", 90 * time.Second},
		{"1500", 1500 * time.Millisecond},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Duration
			require.NoError(t, d.UnmarshalText([]byte(tt.input)))
			assert.Equal(t, tt.want, d.Duration())
		})
	}

	var d Duration
	assert.Error(t, d.UnmarshalText([]byte("five seconds")))
}

func TestDuration_MarshalText(t *testing.T) {
	data, err := Duration(1500 * time.Millisecond).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(data))
	assert.Equal(t, 1500, Duration(1500*time.Millisecond).Milliseconds())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLogLevel("trace")
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	assert.Contains(t, ConfigPath(), filepath.Join("toastd", "toastd.toml"))
}
