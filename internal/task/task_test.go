package task

import (
	"context"
	"sync"
	"testing"
	"time"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func startManager(t *testing.T, cfg Config, rec *eventRecorder) (*Manager, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	mgr := New(cfg, rec.record)
	go mgr.Run(ctx)
	t.Cleanup(cancel)
	return mgr, cancel
}

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	rec := &eventRecorder{}
	mgr, _ := startManager(t, DefaultConfig(), rec)

	info := mgr.Create(Info{Kind: "import", WorkspaceID: "ws1"})
	if info.ID == "" {
		t.Fatal("expected an auto-generated task id")
	}
	if info.Status != StatusPending {
		t.Fatalf("expected default status pending, got %s", info.Status)
	}
	if info.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", info.Version)
	}

	got, ok := mgr.Get(info.ID)
	if !ok {
		t.Fatal("expected Get to find the created task")
	}
	if got.ID != info.ID {
		t.Fatalf("mismatched task id: %s vs %s", got.ID, info.ID)
	}
}

func TestUpdateAppliesPatchWhenVersionAdvances(t *testing.T) {
	rec := &eventRecorder{}
	mgr, _ := startManager(t, DefaultConfig(), rec)
	info := mgr.Create(Info{Kind: "import", WorkspaceID: "ws1"})

	progress := 50
	mgr.Update(info.ID, Patch{Progress: &progress}, info.Version+1)

	// mailbox is a channel: poll briefly for the async update to land.
	var got Info
	for i := 0; i < 100; i++ {
		g, ok := mgr.Get(info.ID)
		if ok && g.Progress == 50 {
			got = g
			break
		}
		time.Sleep(time.Millisecond)
	}
	if got.Progress != 50 {
		t.Fatalf("expected progress 50 to apply, got %d", got.Progress)
	}
}

func TestUpdateDropsStaleVersion(t *testing.T) {
	rec := &eventRecorder{}
	mgr, _ := startManager(t, DefaultConfig(), rec)
	info := mgr.Create(Info{Kind: "import", WorkspaceID: "ws1"})

	progressHigh := 90
	mgr.Update(info.ID, Patch{Progress: &progressHigh}, info.Version+5)
	waitForProgress(t, mgr, info.ID, 90)

	progressStale := 10
	mgr.Update(info.ID, Patch{Progress: &progressStale}, info.Version+1) // stale: <= current

	time.Sleep(20 * time.Millisecond)
	got, _ := mgr.Get(info.ID)
	if got.Progress != 90 {
		t.Fatalf("expected stale update to be dropped, progress still 90, got %d", got.Progress)
	}
}

func waitForProgress(t *testing.T, mgr *Manager, taskID string, want int) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if got, ok := mgr.Get(taskID); ok && got.Progress == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("progress never reached %d", want)
}

func TestRemoveDeletesImmediatelyAndPublishesRemoved(t *testing.T) {
	rec := &eventRecorder{}
	mgr, _ := startManager(t, DefaultConfig(), rec)
	info := mgr.Create(Info{Kind: "import", WorkspaceID: "ws1"})

	mgr.Remove(info.ID)

	for i := 0; i < 200; i++ {
		if _, ok := mgr.Get(info.ID); !ok {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if _, ok := mgr.Get(info.ID); ok {
		t.Fatal("expected task to be gone after Remove")
	}

	found := false
	for _, e := range rec.snapshot() {
		if e.Kind == EventTaskRemoved && e.Task.ID == info.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a task-removed event")
	}
}

func TestAutoCleanupEvictsTerminalTasksAfterTTL(t *testing.T) {
	rec := &eventRecorder{}
	cfg := Config{CleanupInterval: 5 * time.Millisecond, CompletedTaskTTL: 10 * time.Millisecond, FailedTaskTTL: time.Hour}
	mgr, _ := startManager(t, cfg, rec)

	info := mgr.Create(Info{Kind: "import", WorkspaceID: "ws1"})
	succeeded := StatusSucceeded
	mgr.Update(info.ID, Patch{Status: &succeeded}, info.Version+1)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := mgr.Get(info.ID); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the succeeded task to be auto-evicted after its TTL")
}

func TestFailedTasksGetLongerTTLThanSucceeded(t *testing.T) {
	rec := &eventRecorder{}
	cfg := Config{CleanupInterval: 5 * time.Millisecond, CompletedTaskTTL: 10 * time.Millisecond, FailedTaskTTL: time.Hour}
	mgr, _ := startManager(t, cfg, rec)

	info := mgr.Create(Info{Kind: "import", WorkspaceID: "ws1"})
	failed := StatusFailed
	mgr.Update(info.ID, Patch{Status: &failed}, info.Version+1)

	time.Sleep(100 * time.Millisecond)
	if _, ok := mgr.Get(info.ID); !ok {
		t.Fatal("expected the failed task to survive past the (short) succeeded TTL, given its own long TTL")
	}
}

func TestShutdownStopsTheLoop(t *testing.T) {
	rec := &eventRecorder{}
	mgr := New(DefaultConfig(), rec.record)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	mgr.Shutdown() // must return once the loop has actually exited
}
