package audio

import (
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/toastd/internal/config"
)

// player is the playback surface used by Manager.
type player interface {
	Play(path string) error
	SetVolume(volume float64)
	ClearCache()
	Close()
}

// Manager plays the configured toast sound.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  player
	enabled bool
	sound   string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return newManager(cfg, NewPlayer(logger), logger)
}

func newManager(cfg *config.Config, p player, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Manager{
		logger: logger,
		player: p,
	}
	m.apply(cfg)
	return m
}

// apply loads sound settings from the configuration.
func (m *Manager) apply(cfg *config.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enabled = cfg.Audio.Enabled
	m.sound = ""
	m.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	if !m.enabled {
		return
	}

	path := cfg.SoundPath()
	if path == "" {
		m.logger.Debug("audio enabled but no sound configured")
		return
	}
	if _, err := os.Stat(path); err != nil {
		m.logger.Warn("sound file not found", "path", path)
		return
	}
	m.sound = path
	m.logger.Debug("loaded sound", "path", path)
}

// Enabled reports whether a sound will be played.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled && m.sound != ""
}

// Play plays the configured sound, if any.
func (m *Manager) Play() error {
	m.mu.RLock()
	enabled, sound := m.enabled, m.sound
	m.mu.RUnlock()

	if !enabled || sound == "" {
		return nil
	}
	return m.player.Play(sound)
}

// UpdateConfig updates the configuration and reloads the sound.
// This is called when the config file is hot-reloaded.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.player.ClearCache()
	m.apply(cfg)
	m.logger.Debug("audio manager config updated")
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.player.Close()
	m.logger.Debug("audio manager stopped")
}
