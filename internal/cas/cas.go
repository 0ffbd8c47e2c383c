// Package cas implements the content-addressable object store: immutable
// byte blobs keyed by their SHA-256, written with a rename-if-absent
// primitive so concurrent inserts of identical content never corrupt
// on-disk state and never require a check-then-write race.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/logforge/logforge/internal/errors"
)

// tempSweepAge is how old an orphaned temp file under objects/.tmp must
// be before Sweep reclaims it; crash recovery only, never a live put.
const tempSweepAge = 1 * time.Hour

// Store is a single workspace's CAS root: <workspace>/objects/.
type Store struct {
	root string

	mu         sync.Mutex
	finalizing map[string]chan struct{} // hash -> signal, short-circuit only
}

// Open creates (if absent) and returns the CAS store rooted at root.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, ".tmp"), 0o755); err != nil {
		return nil, appErrors.CasIo("open", err)
	}
	return &Store{root: root, finalizing: make(map[string]chan struct{})}, nil
}

func (s *Store) objectPath(sum string) string {
	return filepath.Join(s.root, sum[0:2], sum[2:])
}

// Put streams r into the store, computing its SHA-256 incrementally, and
// returns the resulting hash and length. If an object with that hash
// already exists the temp file is discarded and the existing hash is
// returned — this is the dedup path (I1/I4).
func (s *Store) Put(r io.Reader) (sum string, size int64, err error) {
	tmpDir := filepath.Join(s.root, ".tmp")
	tmp, err := os.CreateTemp(tmpDir, "put-*")
	if err != nil {
		return "", 0, appErrors.CasIo("put:create_temp", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// Best-effort cleanup of the temp name on every exit path. After a
		// successful hard-link finalize the object lives on under its
		// final name; after the rename fallback the temp name is already
		// gone and this is a no-op.
		_ = os.Remove(tmpPath)
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, appErrors.CasIo("put:write", err)
	}

	sum = hex.EncodeToString(h.Sum(nil))
	finalPath := s.objectPath(sum)

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", 0, appErrors.CasIo("put:mkdir", err)
	}

	// In-memory short-circuit: only saves a syscall round-trip, never a
	// correctness primitive (G2 is enforced by rename-if-absent below).
	s.mu.Lock()
	wait, inFlight := s.finalizing[sum]
	if !inFlight {
		s.finalizing[sum] = make(chan struct{})
	}
	s.mu.Unlock()
	if inFlight {
		<-wait
	}
	defer func() {
		s.mu.Lock()
		if ch, ok := s.finalizing[sum]; ok {
			close(ch)
			delete(s.finalizing, sum)
		}
		s.mu.Unlock()
	}()

	if err := renameIfAbsent(tmpPath, finalPath); err != nil {
		return "", 0, appErrors.CasIo("put:rename", err)
	}

	return sum, n, nil
}

// renameIfAbsent moves tmpPath to finalPath only if finalPath does not
// already exist; this is the store's sole correctness primitive for
// concurrent duplicate inserts (G1/G2). It never checks-then-writes: a
// failing Link (EEXIST) means another finalizer won, and the original
// caller simply discards its own temp copy.
func renameIfAbsent(tmpPath, finalPath string) error {
	// Hard-link is atomic-if-absent on POSIX (EEXIST if the target is
	// already there) without the cross-device restrictions of Rename
	// when .tmp and objects/ straddle a mount boundary in edge setups.
	if err := os.Link(tmpPath, finalPath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil // another put already finalized this hash
		}
		// Fall back to Rename for filesystems without hard-link support
		// (exotic FUSE backends); Rename is still atomic-replace, so we
		// first confirm absence to avoid clobbering a concurrent winner.
		if _, statErr := os.Stat(finalPath); statErr == nil {
			return nil
		}
		if err := os.Rename(tmpPath, finalPath); err != nil {
			return err
		}
		return nil
	}
	return nil
}

// Open returns a streaming reader over the object with the given hash.
func (s *Store) Open(sum string) (io.ReadCloser, error) {
	f, err := os.Open(s.objectPath(sum))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.New(appErrors.KindCasIo, fmt.Sprintf("object not found: %s", sum), err, 404)
		}
		return nil, appErrors.CasIo("open", err)
	}
	return f, nil
}

// Exists reports whether an object with the given hash is present.
func (s *Store) Exists(sum string) bool {
	_, err := os.Stat(s.objectPath(sum))
	return err == nil
}

// DeleteWorkspace recursively removes the entire objects/ subtree. Never
// used to delete a single object — objects are immutable and collectively
// owned by the workspace.
func (s *Store) DeleteWorkspace() error {
	if err := os.RemoveAll(s.root); err != nil {
		return appErrors.CasIo("delete_workspace", err)
	}
	return nil
}

// Sweep deletes orphaned temp files under objects/.tmp older than
// tempSweepAge, reclaiming space left by a crash between write and
// rename (G3). Run once at workspace open.
func (s *Store) Sweep() error {
	tmpDir := filepath.Join(s.root, ".tmp")
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return appErrors.CasIo("sweep:readdir", err)
	}

	cutoff := time.Now().Add(-tempSweepAge)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		p := filepath.Join(tmpDir, e.Name())
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", p).Msg("cas sweep: failed to remove orphaned temp file")
		}
	}
	return nil
}

// ListObjects returns the hash of every object currently stored, by
// walking the two-level shard layout objects/<xx>/<rest>. Used by the
// startup GC sweep to find candidates for PruneUnreferencedObjects.
func (s *Store) ListObjects() ([]string, error) {
	shards, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, appErrors.CasIo("list_objects:readdir_root", err)
	}

	var hashes []string
	for _, shard := range shards {
		if !shard.IsDir() || shard.Name() == ".tmp" {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if err != nil {
			return nil, appErrors.CasIo("list_objects:readdir_shard", err)
		}
		for _, e := range entries {
			hashes = append(hashes, shard.Name()+e.Name())
		}
	}
	return hashes, nil
}

// Delete removes a single object by hash. Only safe to call on hashes
// PruneUnreferencedObjects has confirmed are unreferenced by any file
// row; live objects are otherwise immutable for the workspace's life.
func (s *Store) Delete(sum string) error {
	if err := os.Remove(s.objectPath(sum)); err != nil && !os.IsNotExist(err) {
		return appErrors.CasIo("delete", err)
	}
	return nil
}

// ScratchDir allocates a fresh extraction scratch directory under
// <root>/../tmp/<uuid>/, returning its path. Callers are responsible for
// removing it (via an RAII-style defer) regardless of outcome.
func ScratchDir(workspaceRoot string) (string, error) {
	dir := filepath.Join(workspaceRoot, "tmp", uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", appErrors.CasIo("scratch_dir", err)
	}
	return dir, nil
}
