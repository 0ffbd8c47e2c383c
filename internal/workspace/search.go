package workspace

import (
	"context"

	"github.com/logforge/logforge/internal/query"
	"github.com/logforge/logforge/internal/resultcache"
)

// Search runs q against workspaceID, consulting the shared result
// cache first and populating it on a miss. The cache key includes the
// workspace's current query_version (P7), so a concurrent mutation can
// never hand back a stale hit.
func (o *Orchestrator) Search(ctx context.Context, workspaceID string, q query.Query) (*query.Result, error) {
	w, err := o.lookup(workspaceID)
	if err != nil {
		return nil, err
	}

	version := w.queryVersion.Load()
	key := resultcache.NewKey(workspaceID, q, version)
	if cached, ok := o.resultCache.Get(key); ok {
		return cached, nil
	}

	plan, err := query.PlanQuery(q, o.regexCache)
	if err != nil {
		return nil, err
	}

	result, err := query.Execute(ctx, plan, w.meta, nil)
	if err != nil {
		return nil, err
	}

	// A mutation may have bumped query_version while this search ran;
	// only cache the result under the version it was actually computed
	// against, and only if that is still current.
	if w.queryVersion.Load() == version {
		o.resultCache.Put(key, result)
	}
	return result, nil
}

// SearchStream behaves like Search but forwards each intermediate
// batch of rows to onBatch as they are produced, for callers (the HTTP
// SSE endpoint) that want to render partial results instead of waiting
// for the whole query to finish. A cache hit is delivered as a single
// batch.
func (o *Orchestrator) SearchStream(ctx context.Context, workspaceID string, q query.Query, onBatch query.OnBatch) (*query.Result, error) {
	w, err := o.lookup(workspaceID)
	if err != nil {
		return nil, err
	}

	version := w.queryVersion.Load()
	key := resultcache.NewKey(workspaceID, q, version)
	if cached, ok := o.resultCache.Get(key); ok {
		if onBatch != nil && len(cached.Rows) > 0 {
			onBatch(cached.Rows)
		}
		return cached, nil
	}

	plan, err := query.PlanQuery(q, o.regexCache)
	if err != nil {
		return nil, err
	}

	result, err := query.Execute(ctx, plan, w.meta, onBatch)
	if err != nil {
		return nil, err
	}

	if w.queryVersion.Load() == version {
		o.resultCache.Put(key, result)
	}
	return result, nil
}
