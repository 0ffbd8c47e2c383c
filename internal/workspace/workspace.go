// Package workspace is the orchestrator: it coordinates import, refresh,
// delete, and search against one workspace's CAS store, metadata store,
// and task lifecycle, wiring the lower-level packages (extract, query,
// resultcache, task) into the handful of operations the command surface
// exposes.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/logforge/logforge/internal/cas"
	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/extract"
	"github.com/logforge/logforge/internal/metadata"
	"github.com/logforge/logforge/internal/regexcache"
	"github.com/logforge/logforge/internal/resultcache"
	"github.com/logforge/logforge/internal/task"
	"github.com/logforge/logforge/pkg/filemonitor"
)

// Status is a workspace's lifecycle state.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusOffline    Status = "OFFLINE"
	StatusFailed     Status = "FAILED"
)

// Workspace is one imported collection: its own CAS root, metadata
// database, and query_version counter (I8).
type Workspace struct {
	ID        string
	Name      string
	RootPath  string // the source directory/archive that was imported
	Status    Status
	CreatedAt time.Time

	dir          string // <root>/<id>
	cas          *cas.Store
	meta         *metadata.Store
	queryVersion atomic.Int64
	activeTask   string             // task id of the in-flight import/refresh, "" if none
	cancelRun    context.CancelFunc // non-nil while an import/refresh task is in flight
	watchGroup   *filemonitor.FileGroup
}

// Snapshot returns a value copy safe to hand to a caller outside the
// orchestrator's lock.
func (w *Workspace) Snapshot() Workspace {
	cp := *w
	cp.cas = nil
	cp.meta = nil
	cp.cancelRun = nil
	cp.watchGroup = nil
	return cp
}

// Orchestrator owns every workspace's lifecycle plus the shared caches
// and task manager that cut across all of them.
type Orchestrator struct {
	root string // all workspaces live under <root>/<workspace_id>/

	mu         sync.RWMutex
	workspaces map[string]*Workspace

	tasks       *task.Manager
	resultCache *resultcache.Cache
	regexCache  *regexcache.Cache
	monitor     *filemonitor.FileMonitor
	extractCfg  extract.Config // resource caps applied to every import/refresh run

	onEvent func(WorkspaceEvent)
}

// EventKind distinguishes a workspace-event's cause.
type EventKind string

const (
	EventStatusChanged  EventKind = "StatusChanged"
	EventProgressUpdate EventKind = "ProgressUpdate"
	EventTaskCompleted  EventKind = "TaskCompleted"
	EventError          EventKind = "Error"
)

// WorkspaceEvent is the `workspace-event` wire notification.
type WorkspaceEvent struct {
	WorkspaceID string
	Kind        EventKind
	Message     string
	Err         error
}

// New constructs an Orchestrator rooted at root (the directory under
// which every <workspace_id>/ subtree lives). tasks, resultCache, and
// regexCache are shared across every workspace it manages; extractCfg
// carries the resource caps applied to every import/refresh run.
func New(root string, tasks *task.Manager, resultCache *resultcache.Cache, regexCache *regexcache.Cache, extractCfg extract.Config, onEvent func(WorkspaceEvent)) *Orchestrator {
	return &Orchestrator{
		root:        root,
		workspaces:  make(map[string]*Workspace),
		tasks:       tasks,
		resultCache: resultCache,
		regexCache:  regexCache,
		monitor:     filemonitor.NewFileMonitor(),
		extractCfg:  extractCfg,
		onEvent:     onEvent,
	}
}

func (o *Orchestrator) publish(e WorkspaceEvent) {
	if o.onEvent != nil {
		o.onEvent(e)
	}
}

// GetWorkspaces returns a snapshot of every known workspace.
func (o *Orchestrator) GetWorkspaces() []Workspace {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Workspace, 0, len(o.workspaces))
	for _, w := range o.workspaces {
		out = append(out, w.Snapshot())
	}
	return out
}

// GetWorkspace returns one workspace's snapshot by id.
func (o *Orchestrator) GetWorkspace(id string) (Workspace, error) {
	o.mu.RLock()
	w, ok := o.workspaces[id]
	o.mu.RUnlock()
	if !ok {
		return Workspace{}, appErrors.WorkspaceNotFound(id)
	}
	return w.Snapshot(), nil
}

func (o *Orchestrator) lookup(id string) (*Workspace, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	w, ok := o.workspaces[id]
	if !ok {
		return nil, appErrors.WorkspaceNotFound(id)
	}
	return w, nil
}

// openWorkspace creates (or re-opens) a workspace's on-disk stores.
func (o *Orchestrator) openWorkspace(id, name, rootPath string) (*Workspace, error) {
	dir := filepath.Join(o.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, appErrors.Internal("mkdir workspace dir", err)
	}

	casStore, err := cas.Open(filepath.Join(dir, "objects"))
	if err != nil {
		return nil, err
	}
	if err := casStore.Sweep(); err != nil {
		log.Warn().Err(err).Str("workspace_id", id).Msg("cas sweep failed at workspace open")
	}

	metaStore, err := metadata.Open(filepath.Join(dir, "metadata.db"))
	if err != nil {
		return nil, err
	}

	pruneOrphanedObjects(casStore, metaStore, id)

	w := &Workspace{
		ID:        id,
		Name:      name,
		RootPath:  rootPath,
		Status:    StatusProcessing,
		CreatedAt: time.Now(),
		dir:       dir,
		cas:       casStore,
		meta:      metaStore,
	}

	o.mu.Lock()
	o.workspaces[id] = w
	o.mu.Unlock()
	return w, nil
}

// pruneOrphanedObjects reconciles a workspace's CAS objects against its
// metadata store at open time, removing blobs left behind by a put that
// succeeded but whose metadata insert never committed. Best-effort: a
// failure here is logged and never blocks the workspace from opening.
func pruneOrphanedObjects(casStore *cas.Store, metaStore *metadata.Store, workspaceID string) {
	hashes, err := casStore.ListObjects()
	if err != nil {
		log.Warn().Err(err).Str("workspace_id", workspaceID).Msg("cas list objects failed during startup gc sweep")
		return
	}
	if len(hashes) == 0 {
		return
	}

	orphans, err := metaStore.PruneUnreferencedObjects(hashes)
	if err != nil {
		log.Warn().Err(err).Str("workspace_id", workspaceID).Msg("prune unreferenced objects failed during startup gc sweep")
		return
	}
	for _, sum := range orphans {
		if err := casStore.Delete(sum); err != nil {
			log.Warn().Err(err).Str("workspace_id", workspaceID).Str("sha256", sum).Msg("failed to delete orphaned cas object")
		}
	}
}

func (o *Orchestrator) setStatus(w *Workspace, status Status) {
	o.mu.Lock()
	w.Status = status
	o.mu.Unlock()
	o.publish(WorkspaceEvent{WorkspaceID: w.ID, Kind: EventStatusChanged, Message: string(status)})
}

// bumpQueryVersion advances w's query_version and evicts every cached
// result bound to an earlier version (P7): any successful mutation
// strictly increases the version before the next search can observe
// stale results.
func (o *Orchestrator) bumpQueryVersion(w *Workspace) {
	w.queryVersion.Add(1)
	o.resultCache.InvalidateWorkspace(w.ID)
}

func newWorkspaceID() string {
	return uuid.New().String()
}
