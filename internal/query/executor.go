package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/logforge/logforge/internal/metadata"
)

// BatchSize is the number of rows the executor accumulates before
// invoking a caller-supplied progress callback.
const BatchSize = 500

// SoftTimeout bounds how long Execute keeps scanning candidate files
// before it stops early and reports Result.Truncated.
const SoftTimeout = 200 * time.Millisecond

// Store is the subset of metadata.Store the executor needs, narrowed so
// tests can substitute a fake without dragging in sqlite.
type Store interface {
	ListFiles(fn func(metadata.File) error) error
	QueryByPathGlob(glob string) ([]int64, error)
	QueryByLevel(levels []string) ([]int64, error)
	QueryByTimeRange(start, end time.Time) ([]int64, error)
	LinesForFile(fileID int64) ([]metadata.LineHit, error)
	FTSSearch(ftsQuery string, fileIDs []int64, limit int) ([]metadata.LineHit, error)
}

// OnBatch, if non-nil, is invoked every time Execute has accumulated
// BatchSize more rows, so a caller (the workspace orchestrator) can
// stream partial progress to a task update.
type OnBatch func(rows []ResultRow)

// Execute runs plan against store and returns matched rows, ordered by
// (virtual_path, line_number), capped at plan.Query.MaxResults and at
// SoftTimeout wall-clock time.
func Execute(ctx context.Context, plan *Plan, store Store, onBatch OnBatch) (*Result, error) {
	candidates, err := candidateFiles(plan, store)
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].VirtualPath < candidates[j].VirtualPath })

	deadline := time.Now().Add(SoftTimeout)
	maxResults := plan.Query.MaxResults

	res := &Result{}
	var pending []ResultRow

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if onBatch != nil {
			onBatch(pending)
		}
		res.Rows = append(res.Rows, pending...)
		pending = nil
	}

	for _, f := range candidates {
		if ctx.Err() != nil {
			res.Truncated = true
			flush()
			return res, nil
		}
		if time.Now().After(deadline) {
			res.Truncated = true
			flush()
			return res, nil
		}

		lines, err := store.LinesForFile(f.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			ok, keywords := plan.evalLine(l.LineText)
			if !ok {
				continue
			}
			row := ResultRow{
				FileID:            f.ID,
				VirtualPath:       f.VirtualPath,
				LineNumber:        l.LineNumber,
				LineContent:       l.LineText,
				MatchedKeywords:   keywords,
				InferredTimestamp: f.InferredTimestamp,
				InferredLevel:     f.InferredLevel,
			}
			pending = append(pending, row)

			if maxResults > 0 && len(res.Rows)+len(pending) >= maxResults {
				res.Truncated = true
				flush()
				return res, nil
			}
			if len(pending) >= BatchSize {
				flush()
			}
		}
	}

	flush()
	return res, nil
}

// candidateFiles resolves plan's filters into the set of files worth
// scanning, applying the FTS pre-filter when the plan is narrowable.
func candidateFiles(plan *Plan, store Store) ([]metadata.File, error) {
	filterIDs, filtered, err := filterFileIDs(plan.Query.Filters, store)
	if err != nil {
		return nil, err
	}

	if plan.ftsNarrowable() {
		ftsQuery := buildFTSQuery(plan.LiteralTerms)
		if ftsQuery != "" {
			hits, err := store.FTSSearch(ftsQuery, filterIDs, 0)
			if err != nil {
				return nil, err
			}
			seen := make(map[int64]bool, len(hits))
			var narrowed []int64
			for _, h := range hits {
				if !seen[h.FileID] {
					seen[h.FileID] = true
					narrowed = append(narrowed, h.FileID)
				}
			}
			filterIDs = narrowed
			filtered = true
		}
	}

	var allowed map[int64]bool
	if filtered {
		allowed = make(map[int64]bool, len(filterIDs))
		for _, id := range filterIDs {
			allowed[id] = true
		}
	}

	var files []metadata.File
	err = store.ListFiles(func(f metadata.File) error {
		if !filtered || allowed[f.ID] {
			files = append(files, f)
		}
		return nil
	})
	return files, err
}

// filterFileIDs applies the path/level/time filters and intersects
// them. filtered reports whether any filter was actually active; when
// false, ids is meaningless and the caller must treat every file as a
// candidate.
func filterFileIDs(f Filters, store Store) (ids []int64, filtered bool, err error) {
	var sets [][]int64

	if f.PathGlob != "" {
		s, err := store.QueryByPathGlob(f.PathGlob)
		if err != nil {
			return nil, false, err
		}
		sets = append(sets, s)
	}
	if len(f.Levels) > 0 {
		s, err := store.QueryByLevel(f.Levels)
		if err != nil {
			return nil, false, err
		}
		sets = append(sets, s)
	}
	if f.TimeStart != nil && f.TimeEnd != nil {
		s, err := store.QueryByTimeRange(*f.TimeStart, *f.TimeEnd)
		if err != nil {
			return nil, false, err
		}
		sets = append(sets, s)
	}

	if len(sets) == 0 {
		return nil, false, nil
	}
	return intersect(sets), true, nil
}

func intersect(sets [][]int64) []int64 {
	if len(sets) == 1 {
		return sets[0]
	}
	counts := make(map[int64]int)
	for _, s := range sets {
		seen := make(map[int64]bool, len(s))
		for _, id := range s {
			if !seen[id] {
				seen[id] = true
				counts[id]++
			}
		}
	}
	var out []int64
	for id, c := range counts {
		if c == len(sets) {
			out = append(out, id)
		}
	}
	return out
}

// buildFTSQuery turns literal terms into a best-effort FTS5 MATCH
// expression that is always at least as broad as the true result set:
// a plain OR of quoted phrases. The executor re-verifies every hit
// against the exact (and, for AND queries, exact-conjunction) semantics
// line by line, so over-matching here only costs a few extra row reads.
func buildFTSQuery(terms []Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		v := strings.ReplaceAll(t.Value, `"`, `""`)
		if strings.TrimSpace(v) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf(`"%s"`, v))
	}
	return strings.Join(parts, " OR ")
}
