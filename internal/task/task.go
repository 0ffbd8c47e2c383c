// Package task implements the task manager actor: a single goroutine
// that owns all background-task state exclusively and is reached only
// by sending messages over its mailbox, never by a caller touching its
// map directly. This is the one piece of shared mutable state in the
// system that needs no mutex, by construction.
package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether s is an end state the auto-cleanup tick
// will eventually collect.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// Info is a snapshot of one task's state.
type Info struct {
	ID          string
	Kind        string // "import", "search", "refresh", "delete"
	WorkspaceID string
	Status      Status
	Progress    int // 0-100, or an item count for indeterminate work
	Message     string
	Err         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// Patch is a partial update to a task; nil fields are left unchanged.
type Patch struct {
	Status   *Status
	Progress *int
	Message  *string
	Err      *string
}

func (p Patch) apply(info Info, version int64) Info {
	if p.Status != nil {
		info.Status = *p.Status
	}
	if p.Progress != nil {
		info.Progress = *p.Progress
	}
	if p.Message != nil {
		info.Message = *p.Message
	}
	if p.Err != nil {
		info.Err = *p.Err
	}
	info.Version = version
	return info
}

// EventKind names the notifications the manager publishes, matching
// the `task-update` / `task-removed` wire event names.
type EventKind string

const (
	EventTaskUpdate  EventKind = "task-update"
	EventTaskRemoved EventKind = "task-removed"
)

// Event is one published notification.
type Event struct {
	Kind EventKind
	Task Info
}

// Config tunes the manager's auto-cleanup policy.
type Config struct {
	CleanupInterval  time.Duration
	CompletedTaskTTL time.Duration
	FailedTaskTTL    time.Duration
}

// DefaultConfig returns a 1s cleanup tick, 3s retention for
// succeeded/canceled tasks, 10s for failed ones (kept longer so a
// client has time to read the error before it's gone).
func DefaultConfig() Config {
	return Config{
		CleanupInterval:  time.Second,
		CompletedTaskTTL: 3 * time.Second,
		FailedTaskTTL:    10 * time.Second,
	}
}

type createMsg struct {
	info  Info
	reply chan Info
}

type updateMsg struct {
	taskID  string
	patch   Patch
	version int64
}

type removeMsg struct {
	taskID string
}

type getMsg struct {
	taskID string
	reply  chan getReply
}

type getReply struct {
	info Info
	ok   bool
}

type shutdownMsg struct {
	done chan struct{}
}

// Manager is the mailbox actor. Construct with New, start its loop with
// Run, and only ever interact with it through its exported methods.
type Manager struct {
	mailbox chan any
	cfg     Config
	onEvent func(Event)
	now     func() time.Time
	newID   func() string
}

// New creates a Manager. onEvent, if non-nil, is called synchronously
// from the manager's own goroutine for every task-update/task-removed
// notification; callers that need to fan it out further (SSE, logging)
// must not block in it.
func New(cfg Config, onEvent func(Event)) *Manager {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Second
	}
	if cfg.CompletedTaskTTL <= 0 {
		cfg.CompletedTaskTTL = 3 * time.Second
	}
	if cfg.FailedTaskTTL <= 0 {
		cfg.FailedTaskTTL = 10 * time.Second
	}
	return &Manager{
		mailbox: make(chan any, 64),
		cfg:     cfg,
		onEvent: onEvent,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Run drives the manager's loop until ctx is canceled. Callers spawn it
// with `go mgr.Run(ctx)`. Exactly one goroutine must run a given
// Manager at a time.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	tasks := make(map[string]Info)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanupExpired(tasks)
		case raw := <-m.mailbox:
			switch msg := raw.(type) {
			case createMsg:
				now := m.now()
				msg.info.CreatedAt = now
				msg.info.UpdatedAt = now
				msg.info.Version = 1
				tasks[msg.info.ID] = msg.info
				m.publish(EventTaskUpdate, msg.info)
				msg.reply <- msg.info
			case updateMsg:
				current, ok := tasks[msg.taskID]
				if !ok || msg.version <= current.Version {
					// Stale or unknown update: the version discipline is
					// the only correct idempotency rule here, so this is
					// silently dropped rather than applied out of order.
					continue
				}
				updated := msg.patch.apply(current, msg.version)
				updated.UpdatedAt = m.now()
				tasks[msg.taskID] = updated
				m.publish(EventTaskUpdate, updated)
			case removeMsg:
				if info, ok := tasks[msg.taskID]; ok {
					delete(tasks, msg.taskID)
					m.publish(EventTaskRemoved, info)
				}
			case getMsg:
				info, ok := tasks[msg.taskID]
				msg.reply <- getReply{info: info, ok: ok}
			case shutdownMsg:
				close(msg.done)
				return
			}
		}
	}
}

func (m *Manager) cleanupExpired(tasks map[string]Info) {
	now := m.now()
	for id, info := range tasks {
		if !info.Status.Terminal() {
			continue
		}
		ttl := m.cfg.CompletedTaskTTL
		if info.Status == StatusFailed {
			ttl = m.cfg.FailedTaskTTL
		}
		if now.Sub(info.UpdatedAt) >= ttl {
			delete(tasks, id)
			m.publish(EventTaskRemoved, info)
		}
	}
}

func (m *Manager) publish(kind EventKind, info Info) {
	if m.onEvent != nil {
		m.onEvent(Event{Kind: kind, Task: info})
	}
}

// Create registers a new task and returns its stored Info (with ID
// filled in if the caller left it empty, and timestamps/version set).
func (m *Manager) Create(info Info) Info {
	if info.ID == "" {
		info.ID = m.newID()
	}
	if info.Status == "" {
		info.Status = StatusPending
	}
	reply := make(chan Info, 1)
	m.mailbox <- createMsg{info: info, reply: reply}
	return <-reply
}

// Update applies patch to taskID if version is greater than the task's
// current version; stale or unknown updates are dropped without error,
// matching the actor's version discipline.
func (m *Manager) Update(taskID string, patch Patch, version int64) {
	m.mailbox <- updateMsg{taskID: taskID, patch: patch, version: version}
}

// Remove deletes taskID immediately, bypassing the TTL-based
// auto-cleanup; used when a caller explicitly dismisses a task.
func (m *Manager) Remove(taskID string) {
	m.mailbox <- removeMsg{taskID: taskID}
}

// Get returns taskID's current snapshot, or ok=false if it does not
// exist (never created, already removed, or auto-evicted).
func (m *Manager) Get(taskID string) (Info, bool) {
	reply := make(chan getReply, 1)
	m.mailbox <- getMsg{taskID: taskID, reply: reply}
	r := <-reply
	return r.info, r.ok
}

// Shutdown asks the actor's loop to return and blocks until it has.
// Safe to call instead of, or in addition to, canceling Run's context.
func (m *Manager) Shutdown() {
	done := make(chan struct{})
	m.mailbox <- shutdownMsg{done: done}
	<-done
}
