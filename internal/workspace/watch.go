package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/logforge/logforge/pkg/filemonitor"
)

// watchDebounce coalesces a burst of filesystem events (an editor's
// save-as-rename-then-write, a multi-file copy) into a single refresh
// rather than one per event.
const watchDebounce = 500 * time.Millisecond

// WatchWorkspace starts watching a workspace's root path for changes,
// triggering a debounced RefreshWorkspace on every burst of activity.
// Calling it twice for the same workspace replaces the previous watch.
func (o *Orchestrator) WatchWorkspace(workspaceID string) error {
	w, err := o.lookup(workspaceID)
	if err != nil {
		return err
	}
	_ = o.UnwatchWorkspace(workspaceID)

	group, err := o.monitor.CreateGroup(workspaceID, w.RootPath, ".*", nil)
	if err != nil {
		return err
	}

	debouncer := &watchTrigger{
		fire: func() {
			if _, err := o.RefreshWorkspace(context.Background(), workspaceID); err != nil {
				log.Warn().Err(err).Str("workspace_id", workspaceID).Msg("watch-triggered refresh failed")
			}
		},
	}
	group.AddCallback(func(event fsnotify.Event) error {
		debouncer.schedule()
		return nil
	})

	if !o.monitor.IsRunning() {
		if err := o.monitor.Start(); err != nil {
			return err
		}
	}

	o.mu.Lock()
	w.watchGroup = group
	o.mu.Unlock()
	return nil
}

// UnwatchWorkspace stops watching workspaceID's root path, if it was
// being watched. A no-op otherwise.
func (o *Orchestrator) UnwatchWorkspace(workspaceID string) error {
	w, err := o.lookup(workspaceID)
	if err != nil {
		return err
	}
	o.mu.Lock()
	had := w.watchGroup != nil
	w.watchGroup = nil
	o.mu.Unlock()
	if !had {
		return nil
	}
	return o.monitor.RemoveGroup(workspaceID)
}

// watchTrigger debounces repeated schedule() calls into a single fire
// after the events settle for watchDebounce.
type watchTrigger struct {
	mu    sync.Mutex
	timer *time.Timer
	fire  func()
}

func (d *watchTrigger) schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(watchDebounce, d.fire)
}
