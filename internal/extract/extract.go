// Package extract drives the iterative archive-and-directory walk that
// populates a workspace's CAS and metadata stores from a root directory
// on disk. The walker is stack-based, not recursive, so an adversarially
// deep nesting of archives cannot grow the native call stack; depth is
// instead bounded explicitly by Config.MaxDepth.
package extract

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/logforge/logforge/internal/archive"
	"github.com/logforge/logforge/internal/cas"
	appErrors "github.com/logforge/logforge/internal/errors"
	"github.com/logforge/logforge/internal/metadata"
)

// DefaultMaxDepth caps how many levels of archive-within-archive are
// followed before extraction refuses to descend further.
const DefaultMaxDepth = 10

// Config bounds one pipeline run.
type Config struct {
	MaxDepth         int
	Quota            archive.Quota
	MaxParallelFiles int64 // 0 = auto-detect from cpu.Counts

	// ExistingFile, if set, lets the caller skip re-reading and
	// re-hashing a file whose (size, mtime) has not changed since it
	// was last indexed at this virtual path — the incremental-refresh
	// fast path. ok=false means "treat as new" (never indexed, or the
	// caller has no opinion).
	ExistingFile func(virtualPath string) (size int64, mtime time.Time, ok bool)
}

// Result tallies one Run's outcome for the caller (workspace orchestrator)
// to fold into a TaskUpdate summary.
type Result struct {
	FilesIndexed    int
	FilesUnchanged  int
	ArchivesIndexed int
	EntriesSkipped  int
}

// workItem is the explicit stack entry driving the iterative walk:
// (absolute_path, virtual_path, depth, parent_archive_id) exactly as
// specified.
type workItem struct {
	absPath         string
	virtualPath     string
	depth           int
	parentArchiveID *int64
}

// Pipeline owns the CAS/metadata stores and progress sink for one run.
// It holds no per-run state itself so a single Pipeline can drive
// Run calls for several workspaces sequentially.
type Pipeline struct {
	cas      *cas.Store
	meta     *metadata.Store
	cfg      Config
	reporter ProgressReporter
}

// New builds a Pipeline. A zero-value reporter is replaced with a no-op
// sink so callers that don't care about progress don't need a stub.
func New(casStore *cas.Store, metaStore *metadata.Store, cfg Config, reporter ProgressReporter) *Pipeline {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxParallelFiles <= 0 {
		cfg.MaxParallelFiles = autoParallelism()
	}
	if reporter == nil {
		reporter = noopReporter{}
	}
	return &Pipeline{cas: casStore, meta: metaStore, cfg: cfg, reporter: reporter}
}

func (p *Pipeline) report(e Event) {
	e.At = time.Now()
	p.reporter.Report(e)
}

func autoParallelism() int64 {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		if n/2 < 1 {
			return 1
		}
		return int64(n / 2)
	}
	if n := runtime.NumCPU() / 2; n > 0 {
		return int64(n)
	}
	return 1
}

// Run walks rootPath, indexing ordinary files into CAS/metadata and
// descending into recognized archives up to cfg.MaxDepth. ctx is polled
// at every stack-item boundary; a canceled context stops the walk after
// the in-flight item batch finishes and returns ctx.Err().
func (p *Pipeline) Run(ctx context.Context, workspaceRoot, rootPath string) (*Result, error) {
	result := &Result{}
	tally := &resultTally{r: result}
	quota := p.cfg.Quota

	// Scratch directories outlive extractArchive: the items extracted
	// into them are walked later from the stack, so they are removed
	// only when Run returns, on every exit path.
	var scratchDirs []string
	defer func() {
		for _, d := range scratchDirs {
			_ = os.RemoveAll(d)
		}
	}()

	stack := []workItem{{
		absPath:     rootPath,
		virtualPath: filepath.Base(rootPath),
		depth:       0,
	}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := os.Lstat(item.absPath)
		if err != nil {
			p.report(Event{Kind: EventFileError, VirtualPath: item.virtualPath, Err: err})
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// Symlinks that reach the stack are skipped, never followed
			// as a walk edge, so a symlink loop cannot grow the stack
			// unboundedly.
			continue
		}

		if info.IsDir() {
			children, err := p.listDir(item, tally)
			if err != nil {
				p.report(Event{Kind: EventFileError, VirtualPath: item.virtualPath, Err: err})
				continue
			}
			stack = append(stack, children...)
			continue
		}

		if h := archive.Detect(item.absPath); h != nil {
			if item.depth >= p.cfg.MaxDepth {
				p.report(Event{Kind: EventSecurityHalt, VirtualPath: item.virtualPath, Err: appErrors.SecurityLimitExceeded(item.virtualPath, "depth")})
				result.EntriesSkipped++
				skipped, err := p.indexFile(ctx, item)
				if err != nil {
					p.report(Event{Kind: EventFileError, VirtualPath: item.virtualPath, Err: err})
				} else if skipped {
					tally.unchanged()
				} else {
					tally.indexed()
				}
				continue
			}

			children, err := p.extractArchive(ctx, workspaceRoot, item, h, &quota, result, &scratchDirs)
			if err != nil {
				p.report(Event{Kind: EventFileError, VirtualPath: item.virtualPath, Err: err})
				continue
			}
			stack = append(stack, children...)
			continue
		}

		skipped, err := p.indexFile(ctx, item)
		if err != nil {
			p.report(Event{Kind: EventFileError, VirtualPath: item.virtualPath, Err: err})
			continue
		}
		if skipped {
			tally.unchanged()
			continue
		}
		tally.indexed()
		p.report(Event{Kind: EventFileIndexed, VirtualPath: item.virtualPath})
	}

	return result, nil
}

// resultTally accumulates Result counts safely across the single
// walking goroutine and the bounded-concurrency file batches spawned
// from listDir.
type resultTally struct {
	mu sync.Mutex
	r  *Result
}

func (t *resultTally) indexed() {
	t.mu.Lock()
	t.r.FilesIndexed++
	t.mu.Unlock()
}

func (t *resultTally) unchanged() {
	t.mu.Lock()
	t.r.FilesUnchanged++
	t.mu.Unlock()
}

// listDir enumerates one directory level. Subdirectories and recognized
// archives are returned to the caller for later stack processing;
// ordinary files are indexed immediately with bounded concurrency, since
// they carry no further descent and can safely run off the main walk
// goroutine.
func (p *Pipeline) listDir(item workItem, tally *resultTally) ([]workItem, error) {
	entries, err := os.ReadDir(item.absPath)
	if err != nil {
		return nil, appErrors.Internal("read_dir: "+item.absPath, err)
	}

	var toDescend []workItem
	var toIndex []workItem
	for _, e := range entries {
		child := workItem{
			absPath:         filepath.Join(item.absPath, e.Name()),
			virtualPath:     item.virtualPath + "/" + e.Name(),
			depth:           item.depth,
			parentArchiveID: item.parentArchiveID,
		}
		if e.IsDir() || archive.Detect(child.absPath) != nil {
			toDescend = append(toDescend, child)
			continue
		}
		toIndex = append(toIndex, child)
	}

	if len(toIndex) > 0 {
		if err := p.indexFilesConcurrently(context.Background(), toIndex, tally); err != nil {
			return nil, err
		}
	}
	return toDescend, nil
}

// indexFilesConcurrently runs indexFile over items bounded by
// cfg.MaxParallelFiles, a bounded-parallelism worker pool for
// file-level work inside a single archive, via x/sync's semaphore +
// errgroup fan-in of the first error.
func (p *Pipeline) indexFilesConcurrently(ctx context.Context, items []workItem, tally *resultTally) error {
	sem := semaphore.NewWeighted(p.cfg.MaxParallelFiles)
	g, gctx := errgroup.WithContext(ctx)

	for _, it := range items {
		it := it
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			skipped, err := p.indexFile(gctx, it)
			if err != nil {
				p.report(Event{Kind: EventFileError, VirtualPath: it.virtualPath, Err: err})
				return nil // one bad file does not abort its siblings
			}
			if skipped {
				tally.unchanged()
				return nil
			}
			tally.indexed()
			p.report(Event{Kind: EventFileIndexed, VirtualPath: it.virtualPath})
			return nil
		})
	}
	return g.Wait()
}

// extractArchive puts the archive's own bytes into CAS, records an
// archives row, extracts it into a fresh scratch directory, and returns
// the extracted children as depth+1 work items rooted at the new
// archive id. The scratch directory is appended to scratchDirs, which Run
// removes when it returns, so the returned children stay readable.
func (p *Pipeline) extractArchive(ctx context.Context, workspaceRoot string, item workItem, h archive.Handler, quota *archive.Quota, result *Result, scratchDirs *[]string) ([]workItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum, archiveSize, err := p.putFile(item.absPath)
	if err != nil {
		return nil, err
	}

	archiveID, err := p.meta.InsertArchive(metadata.Archive{
		SHA256Hash:      sum,
		VirtualPath:     item.virtualPath,
		Format:          h.Format(),
		Depth:           item.depth,
		ParentArchiveID: item.parentArchiveID,
	})
	if err != nil {
		return nil, err
	}

	// RAII-style cleanup: Run removes every recorded scratch directory
	// when it returns, success or error alike.
	scratchDir, err := cas.ScratchDir(workspaceRoot)
	if err != nil {
		return nil, err
	}
	*scratchDirs = append(*scratchDirs, scratchDir)

	summary, extractErr := h.Extract(item.absPath, scratchDir, quota)
	result.EntriesSkipped += summary.EntriesSkipped
	if extractErr != nil {
		if appErrors.Is(extractErr, appErrors.KindSecurityLimitExceeded) {
			p.report(Event{Kind: EventSecurityHalt, VirtualPath: item.virtualPath, Err: extractErr})
			return nil, nil
		}
		return nil, extractErr
	}

	if aggregateRiskExceeded(summary, archiveSize, item.depth+1) {
		p.report(Event{Kind: EventSecurityHalt, VirtualPath: item.virtualPath,
			Err: appErrors.SecurityLimitExceeded(item.virtualPath, "aggregate_ratio_depth")})
		return nil, nil
	}

	result.ArchivesIndexed++
	p.report(Event{Kind: EventArchiveEntered, VirtualPath: item.virtualPath})

	children, err := collectTree(scratchDir, item.virtualPath, item.depth+1, &archiveID)
	if err != nil {
		return nil, err
	}
	p.report(Event{Kind: EventArchiveExited, VirtualPath: item.virtualPath})
	return children, nil
}

// aggregateRiskExceeded implements the aggregate halt: ratio^depth,
// where ratio is this archive's own observed uncompressed:compressed
// ratio (its extracted total over its on-disk size) and depth is the
// nesting level its children sit at. A single deeply-compressible
// archive passes the per-entry cap comfortably on its own, but nesting
// several such archives compounds the expansion exponentially; this
// catches that compounding even when no single level looks dangerous.
func aggregateRiskExceeded(summary archive.Summary, archiveSize int64, childDepth int) bool {
	if childDepth == 0 || archiveSize == 0 || summary.TotalUncompressedSize == 0 {
		return false
	}
	ratio := float64(summary.TotalUncompressedSize) / float64(archiveSize)
	if ratio <= 1 {
		return false
	}
	return math.Pow(ratio, float64(childDepth)) > 1000
}

// collectTree lists one level of a freshly extracted scratch directory
// and returns every entry (files, subdirectories and nested archives
// alike, which the caller's own stack loop then classifies) as a work
// item at the given depth/parent.
func collectTree(root, virtualPrefix string, depth int, parentArchiveID *int64) ([]workItem, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, appErrors.Internal("collect_tree: "+root, err)
	}
	items := make([]workItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, workItem{
			absPath:         filepath.Join(root, e.Name()),
			virtualPath:     virtualPrefix + "/" + e.Name(),
			depth:           depth,
			parentArchiveID: parentArchiveID,
		})
	}
	return items, nil
}

func (p *Pipeline) putFile(absPath string) (sum string, size int64, err error) {
	f, err := os.Open(absPath)
	if err != nil {
		return "", 0, appErrors.Internal("open: "+absPath, err)
	}
	defer f.Close()
	return p.cas.Put(f)
}

// indexFile is the terminal step for any non-archive file: CAS put,
// binary/text classification, level/timestamp inference for text
// content, then a metadata upsert. It reports skipped=true when
// cfg.ExistingFile shows this virtual path's (size, mtime) has not
// changed since it was last indexed, in which case no I/O beyond the
// initial stat happens at all.
func (p *Pipeline) indexFile(ctx context.Context, item workItem) (skipped bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(item.absPath)
	if err != nil {
		return false, appErrors.Internal("stat: "+item.absPath, err)
	}

	if p.cfg.ExistingFile != nil {
		if size, mtime, ok := p.cfg.ExistingFile(item.virtualPath); ok {
			if size == info.Size() && mtime.Equal(info.ModTime()) {
				return true, nil
			}
		}
	}

	f, err := os.Open(item.absPath)
	if err != nil {
		return false, appErrors.Internal("open: "+item.absPath, err)
	}
	defer f.Close()

	content, sum, size, err := teeReadAndPut(p.cas, f)
	if err != nil {
		return false, err
	}

	rec := metadata.File{
		SHA256Hash:   sum,
		VirtualPath:  item.virtualPath,
		OriginalName: filepath.Base(item.absPath),
		Size:         size,
		MTime:        info.ModTime(),
		ArchiveID:    item.parentArchiveID,
	}

	var lines []string
	if isTextContent(content) {
		lines = splitLines(content)
		rec.InferredLevel, rec.InferredTimestamp = inferFromLines(lines)
	}

	_, err = p.meta.InsertFile(rec, lines)
	return false, err
}

// ProgressReporter receives pipeline events; the workspace orchestrator
// adapts this into internal/task's TaskUpdate messages. Kept as a small
// interface here rather than importing internal/task directly, so this
// package has no dependency on the task manager's mailbox actor.
type ProgressReporter interface {
	Report(Event)
}

type noopReporter struct{}

func (noopReporter) Report(Event) {}

// EventKind distinguishes the handful of progress signals the pipeline
// emits.
type EventKind int

const (
	EventFileIndexed EventKind = iota
	EventArchiveEntered
	EventArchiveExited
	EventSecurityHalt
	EventFileError
)

// Event is one progress signal, coarse-grained per file or per archive
// boundary rather than per byte.
type Event struct {
	Kind        EventKind
	VirtualPath string
	Err         error
	At          time.Time
}
