package daemon

import (
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/poller"
)

// DispatchStatus represents where a dispatched notification is.
type DispatchStatus int

const (
	// DispatchStatusPending means the notification has an ID but no display yet.
	DispatchStatusPending DispatchStatus = iota
	// DispatchStatusActive means a display is showing the notification.
	DispatchStatusActive
	// DispatchStatusDone means every display finished without error.
	DispatchStatusDone
	// DispatchStatusFailed means at least one display returned an error.
	DispatchStatusFailed
)

// String returns the string representation of DispatchStatus.
func (s DispatchStatus) String() string {
	switch s {
	case DispatchStatusPending:
		return "pending"
	case DispatchStatusActive:
		return "active"
	case DispatchStatusDone:
		return "done"
	case DispatchStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DispatchState tracks one dispatched notification.
type DispatchState struct {
	ID         string         // Dispatch ULID
	Title      string         // Notification title, for logs
	Status     DispatchStatus // Current status
	StartedAt  time.Time      // When the display was started
	FinishedAt time.Time      // When the display returned
	Err        error          // Display error, if failed
}

// Finished reports whether the dispatch has ended.
func (s DispatchState) Finished() bool {
	return s.Status == DispatchStatusDone || s.Status == DispatchStatusFailed
}

// DispatchTracker maps dispatch IDs to their state.
type DispatchTracker struct {
	mu        sync.RWMutex
	byID      map[string]*DispatchState
	retention time.Duration
	now       func() time.Time
}

// NewDispatchTracker creates a tracker that keeps finished entries for retention.
func NewDispatchTracker(retention time.Duration) *DispatchTracker {
	return &DispatchTracker{
		byID:      make(map[string]*DispatchState),
		retention: retention,
		now:       time.Now,
	}
}

// Register adds a pending entry.
func (t *DispatchTracker) Register(id, title string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byID[id]; exists {
		return
	}
	t.byID[id] = &DispatchState{ID: id, Title: title, Status: DispatchStatusPending}
}

// Track records a poller dispatch event. Suitable as a poller.OnDispatch hook.
func (t *DispatchTracker) Track(e poller.DispatchEvent) {
	title := ""
	if e.Notification != nil {
		title = e.Notification.Title()
	}
	t.Register(e.ID, title)

	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.byID[e.ID]
	state.StartedAt = e.Started

	if !e.Done() {
		state.Status = DispatchStatusActive
		return
	}

	state.FinishedAt = e.Finished
	state.Err = e.Err
	if e.Err != nil {
		state.Status = DispatchStatusFailed
	} else {
		state.Status = DispatchStatusDone
	}
}

// Get returns a copy of the state for id.
func (t *DispatchTracker) Get(id string) (DispatchState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, exists := t.byID[id]
	if !exists {
		return DispatchState{}, false
	}
	return *state, true
}

// Active returns the IDs of dispatches still being displayed, oldest first.
func (t *DispatchTracker) Active() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var active []string
	for id, state := range t.byID {
		if state.Status == DispatchStatusActive {
			active = append(active, id)
		}
	}
	// ULIDs sort by creation time.
	slices.Sort(active)
	return active
}

// Count returns the number of tracked dispatches.
func (t *DispatchTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// CountByStatus returns how many dispatches are in status.
func (t *DispatchTracker) CountByStatus(status DispatchStatus) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, state := range t.byID {
		if state.Status == status {
			count++
		}
	}
	return count
}

// Prune removes finished entries older than the retention period and
// returns how many were removed.
func (t *DispatchTracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.retention)
	removed := 0
	for id, state := range t.byID {
		if state.Finished() && !state.FinishedAt.After(cutoff) {
			delete(t.byID, id)
			removed++
		}
	}
	return removed
}
