package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/audio"
	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/poller"
)

const (
	// dispatchRetention is how long finished dispatches stay in the tracker.
	dispatchRetention = 10 * time.Minute
	// pruneInterval paces tracker pruning.
	pruneInterval = time.Minute
)

// Option configures a Daemon.
type Option func(*Daemon)

// WithBackendFactory replaces the display backend factory.
func WithBackendFactory(factory display.BackendFactory) Option {
	return func(d *Daemon) {
		d.factory = factory
	}
}

// WithConfigWatch enables or disables config hot reload. Enabled by default.
func WithConfigWatch(enabled bool) Option {
	return func(d *Daemon) {
		d.watch = enabled
	}
}

// WithTriggerOverride pins the trigger file path. It takes precedence over
// trigger.path in the initial config and in every reloaded config.
func WithTriggerOverride(path string) Option {
	return func(d *Daemon) {
		d.triggerOverride = path
	}
}

// Daemon polls the trigger file and shows each toast it finds.
type Daemon struct {
	logger          *slog.Logger
	configPath      string
	factory         display.BackendFactory
	watch           bool
	triggerOverride string

	sound    *audio.Manager
	display  *display.Manager
	tracker  *DispatchTracker
	notifier *InternalNotifier

	mu       sync.Mutex
	cfg      *config.Config
	poller   *poller.Poller
	pollDone chan struct{}
}

// New builds a daemon from cfg. configPath is the file watched for reloads.
func New(cfg *config.Config, configPath string, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	d := &Daemon{
		logger:     logger,
		configPath: configPath,
		watch:      true,
		tracker:    NewDispatchTracker(dispatchRetention),
	}
	for _, opt := range opts {
		opt(d)
	}
	cfg = d.withOverrides(cfg)
	d.cfg = cfg
	if d.factory == nil {
		d.factory = display.DefaultFactory(os.Stdout, logger)
	}

	d.sound = audio.NewManager(cfg, logger.With("component", "audio"))

	mgr, err := display.NewManagerWithFactory(cfg, d.sound, d.factory, logger.With("component", "display"))
	if err != nil {
		return nil, err
	}
	d.display = mgr
	d.notifier = NewInternalNotifier(mgr, logger.With("component", "notifier"))

	return d, nil
}

// Run starts the daemon and blocks until ctx is done.
func Run(ctx context.Context, cfg *config.Config, configPath string, logger *slog.Logger, opts ...Option) error {
	d, err := New(cfg, configPath, logger, opts...)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}

// Tracker returns the dispatch tracker.
func (d *Daemon) Tracker() *DispatchTracker {
	return d.tracker
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run blocks until ctx is done. In-flight displays are not waited for.
func (d *Daemon) Run(ctx context.Context) error {
	if d.watch {
		watcher, err := NewConfigWatcher(d.configPath, d.logger.With("component", "config"))
		if err != nil {
			d.logger.Warn("config hot reload disabled", "error", err)
		} else {
			watcher.SetReloadCallback(func(cfg *config.Config) { d.applyConfig(ctx, cfg) })
			watcher.SetErrorCallback(func(err error) { d.notifier.NotifyConfigError(ctx, err) })
			if err := watcher.Start(ctx); err != nil {
				d.logger.Warn("config hot reload disabled", "path", d.configPath, "error", err)
				watcher.Stop()
			} else {
				defer watcher.Stop()
			}
		}
	}

	d.startPoller(ctx)

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	d.logger.Info("toastd running", "backends", d.display.Backends())

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return nil
		case <-ticker.C:
			if n := d.tracker.Prune(); n > 0 {
				d.logger.Debug("pruned finished dispatches", "count", n)
			}
		}
	}
}

// startPoller starts a poller for the current trigger settings.
func (d *Daemon) startPoller(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p := poller.New(poller.Config{
		Path:     d.cfg.Trigger.Path,
		Interval: d.cfg.Trigger.Interval.Duration(),
	}, d.display, d.logger.With("component", "poller"))
	p.OnDispatch(d.tracker.Track)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	d.poller = p
	d.pollDone = done
}

// stopPoller stops the running poller and waits for its loop to exit.
// Toasts already being shown are left to finish.
func (d *Daemon) stopPoller() *poller.Poller {
	d.mu.Lock()
	p, done := d.poller, d.pollDone
	d.poller, d.pollDone = nil, nil
	d.mu.Unlock()

	if p != nil {
		p.Stop()
		<-done
	}
	return p
}

// applyConfig switches to a reloaded configuration. The poller restarts
// only when the trigger settings changed.
func (d *Daemon) applyConfig(ctx context.Context, cfg *config.Config) {
	cfg = d.withOverrides(cfg)

	if err := d.display.UpdateConfig(cfg); err != nil {
		d.logger.Warn("failed to apply display config", "error", err)
		d.notifier.NotifyConfigError(ctx, err)
		return
	}

	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if old.Trigger != cfg.Trigger {
		d.logger.Info("trigger settings changed, restarting poller",
			"path", cfg.Trigger.Path,
			"interval", cfg.Trigger.Interval.Duration(),
		)
		if showing := d.showingTitles(); len(showing) > 0 {
			d.logger.Info("toasts still showing carry on across the restart", "titles", showing)
		}
		d.stopPoller()
		if ctx.Err() == nil {
			d.startPoller(ctx)
		}
	}

	d.notifier.NotifyConfigReloaded(ctx)
}

// withOverrides returns cfg with the command line overrides applied.
// cfg itself is not modified.
func (d *Daemon) withOverrides(cfg *config.Config) *config.Config {
	if d.triggerOverride == "" || cfg.Trigger.Path == d.triggerOverride {
		return cfg
	}
	c := *cfg
	c.Trigger.Path = d.triggerOverride
	return &c
}

// showingTitles returns the titles of dispatches still being displayed,
// oldest first.
func (d *Daemon) showingTitles() []string {
	ids := d.tracker.Active()
	titles := make([]string, 0, len(ids))
	for _, id := range ids {
		if state, ok := d.tracker.Get(id); ok {
			titles = append(titles, state.Title)
		}
	}
	return titles
}

func (d *Daemon) shutdown() {
	if p := d.stopPoller(); p != nil {
		stats := p.Stats()
		d.logger.Info("poller stats",
			"polls", stats.Polls,
			"dispatched", stats.Dispatched,
			"dropped", stats.Dropped,
			"delete_failures", stats.DeleteFailures,
			"display_failures", stats.DisplayFailures,
		)
	}
	d.logger.Info("dispatch summary",
		"tracked", d.tracker.Count(),
		"active", d.tracker.CountByStatus(DispatchStatusActive),
		"failed", d.tracker.CountByStatus(DispatchStatusFailed),
		"still_showing", d.showingTitles(),
	)
	d.display.Stop()
	d.sound.Stop()
	d.logger.Info("toastd stopped")
}
