package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/logforge/logforge/internal/extract"
	"github.com/logforge/logforge/internal/query"
	"github.com/logforge/logforge/internal/regexcache"
	"github.com/logforge/logforge/internal/resultcache"
	"github.com/logforge/logforge/internal/task"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *task.Manager) {
	t.Helper()
	root := t.TempDir()

	tasks := task.New(task.DefaultConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go tasks.Run(ctx)
	t.Cleanup(cancel)

	orch := New(root, tasks,
		resultcache.New(64),
		regexcache.New(64),
		extract.Config{},
		nil)
	return orch, tasks
}

func waitForTerminal(t *testing.T, tasks *task.Manager, taskID string) task.Info {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		info, ok := tasks.Get(taskID)
		if !ok {
			t.Fatalf("task %s disappeared before reaching a terminal state", taskID)
		}
		if info.Status.Terminal() {
			return info
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never reached a terminal state", taskID)
	return task.Info{}
}

func writeSourceTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "app.log"), []byte("2024-01-01T00:00:00Z ERROR boom\nall good\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestImportFolderThenSearch(t *testing.T) {
	orch, tasks := newTestOrchestrator(t)
	src := writeSourceTree(t)

	taskID, err := orch.ImportFolder(context.Background(), src)
	if err != nil {
		t.Fatalf("ImportFolder: %v", err)
	}

	info := waitForTerminal(t, tasks, taskID)
	if info.Status != task.StatusSucceeded {
		t.Fatalf("import task ended %s: %s", info.Status, info.Err)
	}

	workspaces := orch.GetWorkspaces()
	if len(workspaces) != 1 {
		t.Fatalf("expected 1 workspace, got %d", len(workspaces))
	}
	w := workspaces[0]
	if w.Status != StatusReady {
		t.Fatalf("workspace status = %s, want READY", w.Status)
	}

	q := query.Query{
		Terms: []query.Term{{
			ID:       "t1",
			Value:    "boom",
			Operator: query.OperatorAnd,
			Enabled:  true,
		}},
		GlobalOperator: query.OperatorAnd,
		MaxResults:     10,
	}
	result, err := orch.Search(context.Background(), w.ID, q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 matching row, got %d", len(result.Rows))
	}

	// A second identical search must hit the result cache and return the
	// same row without needing the metadata store again.
	cached, err := orch.Search(context.Background(), w.ID, q)
	if err != nil {
		t.Fatalf("Search (cached): %v", err)
	}
	if len(cached.Rows) != len(result.Rows) {
		t.Fatalf("cached search returned %d rows, want %d", len(cached.Rows), len(result.Rows))
	}
}

func TestDeleteWorkspaceBumpsQueryVersionAndRemovesDir(t *testing.T) {
	orch, tasks := newTestOrchestrator(t)
	src := writeSourceTree(t)

	taskID, err := orch.ImportFolder(context.Background(), src)
	if err != nil {
		t.Fatalf("ImportFolder: %v", err)
	}
	waitForTerminal(t, tasks, taskID)

	workspaces := orch.GetWorkspaces()
	if len(workspaces) != 1 {
		t.Fatalf("expected 1 workspace, got %d", len(workspaces))
	}
	id := workspaces[0].ID
	dir := filepath.Join(orch.root, id)

	if err := orch.DeleteWorkspace(id); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("workspace directory still exists after delete: %v", err)
	}
	if _, err := orch.GetWorkspace(id); err == nil {
		t.Fatalf("expected GetWorkspace to fail for a deleted workspace")
	}
}

func TestCancelTaskIsIdempotentForUnknownID(t *testing.T) {
	orch, _ := newTestOrchestrator(t)
	if err := orch.CancelTask("does-not-exist"); err != nil {
		t.Fatalf("CancelTask on an unknown id should be a no-op, got %v", err)
	}
}

func TestGetFileContentRangeRead(t *testing.T) {
	orch, tasks := newTestOrchestrator(t)
	src := writeSourceTree(t)

	taskID, err := orch.ImportFolder(context.Background(), src)
	if err != nil {
		t.Fatalf("ImportFolder: %v", err)
	}
	waitForTerminal(t, tasks, taskID)

	orch.mu.RLock()
	var w *Workspace
	for _, ws := range orch.workspaces {
		w = ws
	}
	orch.mu.RUnlock()
	if w == nil {
		t.Fatal("no workspace registered after import")
	}

	virtualPath := filepath.Base(src) + "/app.log"
	rec, ok, err := w.meta.FileByVirtualPath(virtualPath)
	if err != nil || !ok {
		t.Fatalf("FileByVirtualPath(%s): ok=%v err=%v", virtualPath, ok, err)
	}

	full, err := orch.GetFileContent(w.ID, rec.SHA256Hash, 0, 0)
	if err != nil {
		t.Fatalf("GetFileContent(full): %v", err)
	}
	want := "2024-01-01T00:00:00Z ERROR boom\nall good\n"
	if string(full) != want {
		t.Fatalf("GetFileContent(full) = %q, want %q", full, want)
	}

	partial, err := orch.GetFileContent(w.ID, rec.SHA256Hash, int64(len("2024-01-01T00:00:00Z ERROR ")), int64(len("boom")))
	if err != nil {
		t.Fatalf("GetFileContent(partial): %v", err)
	}
	if string(partial) != "boom" {
		t.Fatalf("GetFileContent(partial) = %q, want %q", partial, "boom")
	}
}
