package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastd/internal/config"
	"github.com/jmylchreest/toastd/internal/display"
	"github.com/jmylchreest/toastd/internal/model"
	"github.com/jmylchreest/toastd/internal/poller"
)

type recordingDisplay struct {
	mu    sync.Mutex
	shown []*model.Notification
}

func (r *recordingDisplay) Show(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, n)
	return nil
}

func (r *recordingDisplay) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, len(r.shown))
	for i, n := range r.shown {
		titles[i] = n.Title()
	}
	return titles
}

func recordingFactory(rec *recordingDisplay) display.BackendFactory {
	return func(string, *config.Config) (display.Display, error) {
		return rec, nil
	}
}

func writeTrigger(t *testing.T, path, title string) {
	t.Helper()
	replaceFile(t, path, `{"title":"`+title+`","message":"m","icon_path":null,"closable":true,"minimizable":true,"expiry_time":null}`)
}

// replaceFile swaps content in with a rename so watchers never see a
// half-written file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0644))
	require.NoError(t, os.Rename(tmp, path))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Trigger.Path = filepath.Join(t.TempDir(), "notification.json")
	cfg.Trigger.Interval = config.Duration(10 * time.Millisecond)
	return cfg
}

func TestDispatchTracker_Lifecycle(t *testing.T) {
	tracker := NewDispatchTracker(time.Minute)
	n, err := model.NewNotification("Build", "Done")
	require.NoError(t, err)

	started := time.Now()
	tracker.Track(poller.DispatchEvent{ID: "01A", Notification: n, Started: started})

	state, ok := tracker.Get("01A")
	require.True(t, ok)
	assert.Equal(t, DispatchStatusActive, state.Status)
	assert.Equal(t, "Build", state.Title)
	assert.Equal(t, []string{"01A"}, tracker.Active())

	tracker.Track(poller.DispatchEvent{ID: "01A", Notification: n, Started: started, Finished: started.Add(time.Second)})
	state, _ = tracker.Get("01A")
	assert.Equal(t, DispatchStatusDone, state.Status)
	assert.True(t, state.Finished())
	assert.Empty(t, tracker.Active())

	tracker.Track(poller.DispatchEvent{ID: "01B", Notification: n, Started: started, Finished: started, Err: errors.New("boom")})
	state, _ = tracker.Get("01B")
	assert.Equal(t, DispatchStatusFailed, state.Status)
	assert.EqualError(t, state.Err, "boom")

	assert.Equal(t, 1, tracker.CountByStatus(DispatchStatusDone))
	assert.Equal(t, 1, tracker.CountByStatus(DispatchStatusFailed))
}

func TestDispatchTracker_RegisterIsPending(t *testing.T) {
	tracker := NewDispatchTracker(time.Minute)
	tracker.Register("01C", "Backup")
	tracker.Register("01C", "ignored")

	state, ok := tracker.Get("01C")
	require.True(t, ok)
	assert.Equal(t, DispatchStatusPending, state.Status)
	assert.Equal(t, "Backup", state.Title)
	assert.Equal(t, 1, tracker.Count())

	_, ok = tracker.Get("missing")
	assert.False(t, ok)
}

func TestDispatchTracker_Prune(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewDispatchTracker(time.Minute)
	tracker.now = func() time.Time { return now }

	tracker.Track(poller.DispatchEvent{ID: "old", Started: now.Add(-time.Hour), Finished: now.Add(-time.Hour)})
	tracker.Track(poller.DispatchEvent{ID: "recent", Started: now, Finished: now.Add(-time.Second)})
	tracker.Track(poller.DispatchEvent{ID: "active", Started: now.Add(-time.Hour)})

	assert.Equal(t, 1, tracker.Prune())
	_, ok := tracker.Get("old")
	assert.False(t, ok)
	assert.Equal(t, 2, tracker.Count())
}

func TestDispatchStatus_String(t *testing.T) {
	assert.Equal(t, "pending", DispatchStatusPending.String())
	assert.Equal(t, "active", DispatchStatusActive.String())
	assert.Equal(t, "done", DispatchStatusDone.String())
	assert.Equal(t, "failed", DispatchStatusFailed.String())
	assert.Equal(t, "unknown", DispatchStatus(42).String())
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	rec := &recordingDisplay{}
	n := NewInternalNotifier(rec, nil)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	ctx := context.Background()
	assert.True(t, n.NotifyConfigReloaded(ctx))
	assert.False(t, n.NotifyConfigReloaded(ctx))
	assert.True(t, n.NotifyConfigError(ctx, errors.New("bad toml")))

	now = now.Add(6 * time.Second)
	assert.True(t, n.NotifyConfigReloaded(ctx))

	require.Eventually(t, func() bool { return len(rec.titles()) == 3 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t,
		[]string{"Configuration Reloaded", "Configuration Error", "Configuration Reloaded"},
		rec.titles())
}

func TestInternalNotifier_Levels(t *testing.T) {
	rec := &recordingDisplay{}
	n := NewInternalNotifier(rec, nil)
	ctx := context.Background()

	require.True(t, n.Notify(ctx, "info", "Info", "body", NotificationLevelInfo))
	require.True(t, n.Notify(ctx, "warn", "Warn", "body", NotificationLevelWarning))
	require.Eventually(t, func() bool { return len(rec.titles()) == 2 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, toast := range rec.shown {
		_, hasExpiry := toast.ExpiryTime()
		switch toast.Title() {
		case "Info":
			assert.True(t, toast.Closable())
			assert.True(t, hasExpiry)
		case "Warn":
			assert.False(t, toast.Closable())
			assert.False(t, hasExpiry)
		}
	}
}

func TestInternalNotifier_Disabled(t *testing.T) {
	n := NewInternalNotifier(&recordingDisplay{}, nil)
	n.SetEnabled(false)
	assert.False(t, n.NotifyConfigReloaded(context.Background()))

	n = NewInternalNotifier(nil, nil)
	assert.False(t, n.NotifyConfigReloaded(context.Background()))

	n = NewInternalNotifier(&recordingDisplay{}, nil)
	assert.False(t, n.Notify(context.Background(), "empty", "", "body", NotificationLevelInfo))
}

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toastd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[trigger]\ninterval = \"1s\"\n"), 0644))

	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)

	reloaded := make(chan *config.Config, 4)
	failed := make(chan error, 4)
	w.SetReloadCallback(func(cfg *config.Config) { reloaded <- cfg })
	w.SetErrorCallback(func(err error) { failed <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	replaceFile(t, path, "[trigger]\ninterval = \"2s\"\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 2*time.Second, cfg.Trigger.Interval.Duration())
	case <-time.After(2 * time.Second):
		t.Fatal("config was not reloaded")
	}

	replaceFile(t, path, "[audio]\nvolume = 500\n")
	select {
	case err := <-failed:
		assert.ErrorContains(t, err, "volume")
	case <-time.After(2 * time.Second):
		t.Fatal("invalid config was not reported")
	}

	// The invalid file never reaches the reload callback.
	for len(reloaded) > 0 {
		cfg := <-reloaded
		assert.Equal(t, config.DefaultVolume, cfg.Audio.Volume)
	}
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	w, err := NewConfigWatcher(filepath.Join(t.TempDir(), "nope", "toastd.toml"), nil)
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	w.Stop()

	// The inotify handle is released even though the watcher never ran.
	assert.ErrorIs(t, w.watcher.Add(t.TempDir()), fsnotify.ErrClosed)
}

func TestDaemon_DispatchesTriggerFile(t *testing.T) {
	cfg := testConfig(t)
	rec := &recordingDisplay{}

	d, err := New(cfg, "", nil, WithBackendFactory(recordingFactory(rec)), WithConfigWatch(false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	writeTrigger(t, cfg.Trigger.Path, "Build")
	require.Eventually(t, func() bool { return len(rec.titles()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return d.Tracker().CountByStatus(DispatchStatusDone) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestDaemon_ApplyConfigMovesTrigger(t *testing.T) {
	cfg := testConfig(t)
	rec := &recordingDisplay{}

	d, err := New(cfg, "", nil, WithBackendFactory(recordingFactory(rec)), WithConfigWatch(false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.poller != nil
	}, 2*time.Second, 5*time.Millisecond)

	moved := testConfig(t)
	d.applyConfig(ctx, moved)
	assert.Equal(t, moved.Trigger.Path, d.Config().Trigger.Path)

	writeTrigger(t, moved.Trigger.Path, "Moved")
	require.Eventually(t, func() bool {
		for _, title := range rec.titles() {
			if title == "Moved" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestNew_BackendError(t *testing.T) {
	factory := func(string, *config.Config) (display.Display, error) {
		return nil, errors.New("no bus")
	}
	_, err := New(testConfig(t), "", nil, WithBackendFactory(factory))
	assert.ErrorContains(t, err, "no bus")
}

func TestDaemon_TriggerOverrideSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "toastd.toml")
	override := filepath.Join(dir, "override.json")
	replaceFile(t, cfgPath, "[trigger]\npath = \"notification.json\"\ninterval = \"10ms\"\n")

	cfg, err := config.LoadConfig(cfgPath)
	require.NoError(t, err)

	rec := &recordingDisplay{}
	d, err := New(cfg, cfgPath, nil,
		WithBackendFactory(recordingFactory(rec)),
		WithTriggerOverride(override),
	)
	require.NoError(t, err)
	assert.Equal(t, override, d.Config().Trigger.Path)
	assert.Equal(t, "notification.json", cfg.Trigger.Path)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.poller != nil
	}, 2*time.Second, 5*time.Millisecond)

	// An unrelated edit reloads the file, whose trigger.path differs.
	replaceFile(t, cfgPath, "[trigger]\npath = \"notification.json\"\ninterval = \"10ms\"\n\n[audio]\nvolume = 40\n")
	require.Eventually(t, func() bool {
		return d.Config().Audio.Volume == 40
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, override, d.Config().Trigger.Path)
	d.mu.Lock()
	pollPath := d.poller.Path()
	d.mu.Unlock()
	assert.Equal(t, override, pollPath)

	writeTrigger(t, override, "Pinned path")
	require.Eventually(t, func() bool {
		for _, title := range rec.titles() {
			if title == "Pinned path" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDaemon_ApplyConfigKeepsOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "override.json")
	d, err := New(testConfig(t), "", nil,
		WithBackendFactory(recordingFactory(&recordingDisplay{})),
		WithConfigWatch(false),
		WithTriggerOverride(override),
	)
	require.NoError(t, err)

	reloaded := testConfig(t)
	d.applyConfig(context.Background(), reloaded)

	assert.Equal(t, override, d.Config().Trigger.Path)
	assert.NotEqual(t, override, reloaded.Trigger.Path)
}

// blockingDisplay holds every Show until release is closed.
type blockingDisplay struct {
	entered chan string
	release chan struct{}
}

func (b *blockingDisplay) Show(_ context.Context, n *model.Notification) error {
	b.entered <- n.Title()
	<-b.release
	return nil
}

func TestDaemon_ShowingTitles(t *testing.T) {
	cfg := testConfig(t)
	disp := &blockingDisplay{entered: make(chan string, 1), release: make(chan struct{})}
	factory := func(string, *config.Config) (display.Display, error) { return disp, nil }

	d, err := New(cfg, "", nil, WithBackendFactory(factory), WithConfigWatch(false))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	writeTrigger(t, cfg.Trigger.Path, "Modal")
	assert.Equal(t, "Modal", <-disp.entered)
	require.Eventually(t, func() bool {
		return len(d.showingTitles()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Modal"}, d.showingTitles())

	close(disp.release)
	require.Eventually(t, func() bool {
		return len(d.showingTitles()) == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, d.Tracker().CountByStatus(DispatchStatusDone))

	cancel()
	require.NoError(t, <-done)
}

func TestDaemon_RunsWithoutConfigDirectory(t *testing.T) {
	cfg := testConfig(t)
	rec := &recordingDisplay{}
	missing := filepath.Join(t.TempDir(), "nope", "toastd.toml")

	d, err := New(cfg, missing, nil, WithBackendFactory(recordingFactory(rec)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	writeTrigger(t, cfg.Trigger.Path, "Build")
	require.Eventually(t, func() bool { return len(rec.titles()) == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
