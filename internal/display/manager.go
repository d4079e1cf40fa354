package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/dbus"
	"github.com/jmylchreest/toastd/internal/model"
)

// Sound plays the toast sound alongside a notification.
type Sound interface {
	Play() error
	UpdateConfig(cfg *config.Config)
}

// BackendFactory builds a named backend from the configuration.
type BackendFactory func(name string, cfg *config.Config) (Display, error)

type backend struct {
	name    string
	display Display
}

// Manager fans notifications out to the configured backends.
type Manager struct {
	mu       sync.RWMutex
	backends []backend
	sound    Sound
	factory  BackendFactory
	logger   *slog.Logger
}

// NewManager builds the backends named in cfg.Display.Backends.
// sound may be nil.
func NewManager(cfg *config.Config, sound Sound, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return NewManagerWithFactory(cfg, sound, DefaultFactory(os.Stdout, logger), logger)
}

// NewManagerWithFactory is NewManager with a custom backend factory.
func NewManagerWithFactory(cfg *config.Config, sound Sound, factory BackendFactory, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Manager{
		sound:   sound,
		factory: factory,
		logger:  logger,
	}

	backends, err := m.build(cfg)
	if err != nil {
		return nil, err
	}
	m.backends = backends

	logger.Info("display manager started", "backends", cfg.Display.Backends)
	return m, nil
}

// DefaultFactory builds the stock backends. Terminal output goes to out.
func DefaultFactory(out io.Writer, logger *slog.Logger) BackendFactory {
	return func(name string, cfg *config.Config) (Display, error) {
		switch name {
		case config.BackendDBus:
			client := dbus.NewClient(logger)
			if err := client.Connect(); err != nil {
				return nil, &DisplayError{Backend: name, Message: "failed to connect", Cause: err}
			}
			if info, err := client.GetServerInformation(context.Background()); err == nil {
				logger.Info("notification server found", "name", info.Name, "vendor", info.Vendor, "version", info.Version)
			} else {
				logger.Warn("notification server did not identify itself", "error", err)
			}
			d := NewDBusDisplay(client, cfg.Display.AppName, cfg.Display.DefaultTimeout.Duration(), logger)
			return &closingDisplay{Display: d, closer: client}, nil
		case config.BackendBeeep:
			return NewBeeepDisplay(cfg.Display.AppName), nil
		case config.BackendDialog:
			return NewDialogDisplay(), nil
		case config.BackendTerminal:
			return NewTerminalDisplay(out), nil
		default:
			return nil, &DisplayError{Backend: name, Message: "unknown backend"}
		}
	}
}

// closingDisplay owns a resource released when the backend is replaced.
type closingDisplay struct {
	Display
	closer io.Closer
}

func (c *closingDisplay) Close() error {
	return c.closer.Close()
}

func (m *Manager) build(cfg *config.Config) ([]backend, error) {
	backends := make([]backend, 0, len(cfg.Display.Backends))
	for _, name := range cfg.Display.Backends {
		d, err := m.factory(name, cfg)
		if err != nil {
			closeBackends(backends)
			return nil, fmt.Errorf("failed to create %s backend: %w", name, err)
		}
		backends = append(backends, backend{name: name, display: d})
	}
	return backends, nil
}

// Show plays the toast sound and shows n on every backend at once, so a
// modal backend such as dialog does not hold back the others. It returns
// when every backend has returned. Errors are joined in backend order.
func (m *Manager) Show(ctx context.Context, n *model.Notification) error {
	if n == nil {
		return &model.Error{Kind: model.KindValidation, Op: "show", Err: model.ErrNilNotification}
	}

	m.mu.RLock()
	backends := m.backends
	sound := m.sound
	m.mu.RUnlock()

	if sound != nil {
		if err := sound.Play(); err != nil {
			m.logger.Warn("failed to play sound", "error", err)
		}
	}

	errs := make([]error, len(backends))
	var wg sync.WaitGroup
	for i, b := range backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.display.Show(ctx, n); err != nil {
				m.logger.Debug("backend failed", "backend", b.name, "error", err)
				errs[i] = err
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Backends returns the names of the active backends.
func (m *Manager) Backends() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.backends))
	for i, b := range m.backends {
		names[i] = b.name
	}
	return names
}

// UpdateConfig rebuilds the backends from cfg.
// This is called when the config file is hot-reloaded. On error the
// previous backends stay active.
func (m *Manager) UpdateConfig(cfg *config.Config) error {
	backends, err := m.build(cfg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.backends
	m.backends = backends
	sound := m.sound
	m.mu.Unlock()

	closeBackends(old)
	if sound != nil {
		sound.UpdateConfig(cfg)
	}

	m.logger.Debug("display manager config updated", "backends", cfg.Display.Backends)
	return nil
}

// Stop releases backend resources.
func (m *Manager) Stop() {
	m.mu.Lock()
	old := m.backends
	m.backends = nil
	m.mu.Unlock()

	closeBackends(old)
	m.logger.Info("display manager stopped")
}

func closeBackends(backends []backend) {
	for _, b := range backends {
		if c, ok := b.display.(io.Closer); ok {
			_ = c.Close()
		}
	}
}
