package workspace

import (
	"context"
	"os"

	appErrors "github.com/logforge/logforge/internal/errors"
)

// DeleteWorkspace cancels any in-flight import/refresh for the
// workspace, closes its stores, removes its on-disk tree, and drops it
// from the registry. Returns WorkspaceNotFound if id is unknown.
func (o *Orchestrator) DeleteWorkspace(id string) error {
	o.mu.Lock()
	w, ok := o.workspaces[id]
	if !ok {
		o.mu.Unlock()
		return appErrors.WorkspaceNotFound(id)
	}
	delete(o.workspaces, id)
	cancel := w.cancelRun
	watchGroup := w.watchGroup
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watchGroup != nil {
		_ = o.monitor.RemoveGroup(id)
	}

	w.queryVersion.Add(1)
	o.resultCache.InvalidateWorkspace(id)

	if err := w.meta.Close(); err != nil {
		return appErrors.Internal("close metadata store", err)
	}
	if err := os.RemoveAll(w.dir); err != nil {
		return appErrors.Internal("remove workspace directory", err)
	}
	return nil
}

// CancelTask cancels taskID's in-flight import/refresh run, idempotent
// per the command surface: canceling an unknown or already-finished
// task id is not an error.
func (o *Orchestrator) CancelTask(taskID string) error {
	o.mu.RLock()
	var cancel context.CancelFunc
	for _, w := range o.workspaces {
		if w.activeTask == taskID {
			cancel = w.cancelRun
			break
		}
	}
	o.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
