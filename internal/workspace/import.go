package workspace

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/extract"
	"github.com/logforge/logforge/internal/task"
)

// progressAdapter turns extract.Event progress signals into task.Update
// calls: the extraction pipeline knows nothing about the task manager's
// mailbox, and the task manager knows nothing about archives or files.
type progressAdapter struct {
	tasks      *task.Manager
	taskID     string
	nextVer    func() int64
	filesDone  int
	lastReport time.Time
}

// reportEvery bounds how often a file-indexed event is allowed to push
// a task update, so a directory of thousands of small files doesn't
// flood the mailbox with one message per file.
const reportEvery = 200 * time.Millisecond

func (a *progressAdapter) Report(e extract.Event) {
	switch e.Kind {
	case extract.EventFileIndexed:
		a.filesDone++
		if time.Since(a.lastReport) < reportEvery {
			return
		}
		a.lastReport = time.Now()
		msg := "indexing"
		status := task.StatusRunning
		a.tasks.Update(a.taskID, task.Patch{Status: &status, Message: &msg}, a.nextVer())
	case extract.EventArchiveEntered, extract.EventArchiveExited:
		msg := "extracting " + e.VirtualPath
		status := task.StatusRunning
		a.tasks.Update(a.taskID, task.Patch{Status: &status, Message: &msg}, a.nextVer())
	case extract.EventSecurityHalt, extract.EventFileError:
		log.Warn().Str("virtual_path", e.VirtualPath).Err(e.Err).Msg("extraction entry skipped")
	}
}

// ImportFolder creates a new workspace rooted at path, runs the
// extraction pipeline against it as a background task, and returns the
// task id immediately; completion is observed via task-update events.
func (o *Orchestrator) ImportFolder(ctx context.Context, path string) (taskID string, err error) {
	id := newWorkspaceID()
	w, err := o.openWorkspace(id, id, path)
	if err != nil {
		return "", err
	}
	return o.runImportLike(ctx, w, "import", path, nil)
}

// ImportArchive is ImportFolder under a different command name: the
// extraction pipeline dispatches on what rootPath actually is (plain
// file, directory, or archive) rather than on how it was asked for, so
// the two command-surface entries share one implementation.
func (o *Orchestrator) ImportArchive(ctx context.Context, path string) (taskID string, err error) {
	return o.ImportFolder(ctx, path)
}

// RefreshWorkspace re-walks an existing workspace's root path,
// re-using its stores. Files whose (size, mtime) match what is already
// indexed are skipped without being re-read (extract.Config.ExistingFile).
func (o *Orchestrator) RefreshWorkspace(ctx context.Context, workspaceID string) (taskID string, err error) {
	w, err := o.lookup(workspaceID)
	if err != nil {
		return "", err
	}
	existing := func(virtualPath string) (int64, time.Time, bool) {
		rec, ok, err := w.meta.FileByVirtualPath(virtualPath)
		if err != nil || !ok {
			return 0, time.Time{}, false
		}
		return rec.Size, rec.MTime, true
	}
	return o.runImportLike(ctx, w, "refresh", w.RootPath, existing)
}

func (o *Orchestrator) runImportLike(ctx context.Context, w *Workspace, kind, srcPath string, existing func(string) (int64, time.Time, bool)) (string, error) {
	info := o.tasks.Create(task.Info{Kind: kind, WorkspaceID: w.ID, Status: task.StatusRunning, Message: "starting"})
	version := info.Version

	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	w.cancelRun = cancel
	w.activeTask = info.ID
	o.mu.Unlock()

	adapter := &progressAdapter{
		tasks:  o.tasks,
		taskID: info.ID,
		nextVer: func() int64 {
			version++
			return version
		},
	}

	cfg := o.extractCfg
	cfg.ExistingFile = existing
	pipeline := extract.New(w.cas, w.meta, cfg, adapter)

	go func() {
		defer cancel()
		result, err := pipeline.Run(runCtx, w.dir, srcPath)

		o.mu.Lock()
		w.cancelRun = nil
		w.activeTask = ""
		o.mu.Unlock()

		o.bumpQueryVersion(w)

		if err != nil {
			status := task.StatusFailed
			if appErrors.Is(err, appErrors.KindTaskCanceled) || runCtx.Err() != nil {
				status = task.StatusCanceled
			}
			msg := "failed"
			errStr := err.Error()
			o.setStatus(w, StatusFailed)
			o.tasks.Update(info.ID, task.Patch{Status: &status, Message: &msg, Err: &errStr}, adapter.nextVer())
			o.publish(WorkspaceEvent{WorkspaceID: w.ID, Kind: EventError, Err: err})
			return
		}

		o.setStatus(w, StatusReady)
		status := task.StatusSucceeded
		msg := "done"
		progress := 100
		o.tasks.Update(info.ID, task.Patch{Status: &status, Message: &msg, Progress: &progress}, adapter.nextVer())
		o.publish(WorkspaceEvent{WorkspaceID: w.ID, Kind: EventTaskCompleted,
			Message: summaryMessage(result)})
	}()

	return info.ID, nil
}

func summaryMessage(r *extract.Result) string {
	if r == nil {
		return ""
	}
	return "files_indexed=" + itoa(r.FilesIndexed) +
		" files_unchanged=" + itoa(r.FilesUnchanged) +
		" archives_indexed=" + itoa(r.ArchivesIndexed) +
		" entries_skipped=" + itoa(r.EntriesSkipped)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
