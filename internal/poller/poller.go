// Package poller watches the trigger file and dispatches the toasts it
// carries.
//
// Each pass checks whether the trigger file exists. If it does, the file is
// decoded, the notification is handed to the display on its own goroutine,
// and the file is deleted whether or not it decoded. Display latency never
// holds up the next pass.
package poller

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/toastd/internal/codec"
	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/model"
)

// State is the poller's position in a pass.
type State int32

const (
	StateIdle State = iota
	StateChecking
	StateDecoding
	StateDispatching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateDecoding:
		return "decoding"
	case StateDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single pass.
type Outcome int

const (
	// OutcomeIdle means no trigger file was present.
	OutcomeIdle Outcome = iota
	// OutcomeDispatched means a notification was handed to the display.
	OutcomeDispatched
	// OutcomeDropped means the trigger file could not be decoded.
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Config locates and paces the trigger file poll.
type Config struct {
	Path     string
	Interval time.Duration
}

// DispatchEvent reports a dispatch starting (Finished is zero) or ending.
type DispatchEvent struct {
	ID           string
	Notification *model.Notification
	Started      time.Time
	Finished     time.Time
	Err          error
}

// Done reports whether the dispatch has finished.
func (e DispatchEvent) Done() bool {
	return !e.Finished.IsZero()
}

// Stats holds poller counters.
type Stats struct {
	Polls           uint64
	Dispatched      uint64
	Dropped         uint64
	DeleteFailures  uint64
	DisplayFailures uint64
}

// Poller polls one trigger file.
type Poller struct {
	path     string
	interval time.Duration
	display  display.Display
	logger   *slog.Logger

	state atomic.Int32

	polls           atomic.Uint64
	dispatched      atomic.Uint64
	dropped         atomic.Uint64
	deleteFailures  atomic.Uint64
	displayFailures atomic.Uint64

	mu         sync.RWMutex
	onDispatch func(DispatchEvent)

	inflight sync.WaitGroup

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a poller. Zero config values take the defaults.
func New(cfg Config, disp display.Display, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		cfg.Path = config.DefaultTriggerPath
	}
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultPollInterval
	}

	return &Poller{
		path:     cfg.Path,
		interval: cfg.Interval,
		display:  disp,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Path returns the trigger file path.
func (p *Poller) Path() string {
	return p.path
}

// Interval returns the time between passes.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// State returns the current state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// OnDispatch sets a hook called when each dispatch starts and ends.
// The hook runs on the dispatch goroutine.
func (p *Poller) OnDispatch(fn func(DispatchEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDispatch = fn
}

// Stats returns a snapshot of the counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Polls:           p.polls.Load(),
		Dispatched:      p.dispatched.Load(),
		Dropped:         p.dropped.Load(),
		DeleteFailures:  p.deleteFailures.Load(),
		DisplayFailures: p.displayFailures.Load(),
	}
}

// Run polls immediately and then once per interval until ctx is done or
// Stop is called. Dispatches receive ctx. In-flight dispatches are not
// waited for; use Wait.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started", "path", p.path, "interval", p.interval)
	defer p.logger.Info("poller stopped")

	p.Tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Stop ends Run without cancelling dispatches already in flight.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
}

// Wait blocks until every dispatch started so far has finished.
func (p *Poller) Wait() {
	p.inflight.Wait()
}

// Tick runs one pass and returns what happened. It never blocks on the display.
func (p *Poller) Tick(ctx context.Context) Outcome {
	p.polls.Add(1)
	defer p.setState(StateIdle)

	p.setState(StateChecking)
	info, err := os.Stat(p.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Debug("trigger file not readable", "path", p.path, "error", err)
		}
		return OutcomeIdle
	}
	// Only regular files are consumed; anything else is left in place.
	if !info.Mode().IsRegular() {
		p.dropped.Add(1)
		p.logger.Warn("trigger path is not a regular file", "path", p.path, "mode", info.Mode())
		return OutcomeDropped
	}

	p.setState(StateDecoding)
	n, err := codec.Decode(p.path)
	if err != nil {
		p.dropped.Add(1)
		p.logger.Warn("dropping trigger file",
			"path", p.path,
			"kind", model.KindOf(err),
			"error", err,
		)
		p.remove()
		return OutcomeDropped
	}

	p.setState(StateDispatching)
	p.dispatch(ctx, n)
	p.remove()
	return OutcomeDispatched
}

func (p *Poller) setState(s State) {
	p.state.Store(int32(s))
}

func (p *Poller) dispatch(ctx context.Context, n *model.Notification) {
	id := ulid.Make().String()
	p.dispatched.Add(1)

	p.mu.RLock()
	hook := p.onDispatch
	p.mu.RUnlock()

	p.logger.Info("dispatching notification", "id", id, "title", n.Title())

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()

		event := DispatchEvent{ID: id, Notification: n, Started: time.Now()}
		if hook != nil {
			hook(event)
		}

		event.Err = p.display.Show(ctx, n)
		event.Finished = time.Now()

		if event.Err != nil {
			p.displayFailures.Add(1)
			p.logger.Warn("display failed", "id", id, "error", event.Err)
		} else {
			p.logger.Debug("notification shown", "id", id, "elapsed", event.Finished.Sub(event.Started))
		}

		if hook != nil {
			hook(event)
		}
	}()
}

// remove deletes the trigger file. A failure is logged and counted only.
func (p *Poller) remove() {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.deleteFailures.Add(1)
		p.logger.Warn("failed to delete trigger file", "path", p.path, "error", err)
	}
}
