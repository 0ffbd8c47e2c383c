// Package resultcache caches completed query.Result values behind a
// bounded LRU with both a hard TTL and an idle (TTI) expiry, keyed so
// that two requests only share a cache entry when every input that
// could change the rows is identical.
package resultcache

import (
	"container/list"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/logforge/logforge/internal/query"
)

// DefaultCapacity bounds the number of cached results resident at once.
const DefaultCapacity = 1000

// TTL is the hard expiry: an entry is never served once this old,
// regardless of how recently it was read.
const TTL = 5 * time.Minute

// TTI is the idle expiry: an entry not read within this long is
// evicted even if it has not hit its TTL.
const TTI = 1 * time.Minute

// Key identifies one cached result. QueryVersion is a per-workspace
// monotonic counter bumped on every mutation (import/refresh/delete);
// bumping it implicitly invalidates every entry fingerprinted against
// the old version without a cache walk, since no future lookup will
// ever construct that key again.
type Key struct {
	WorkspaceID       string
	QueryFingerprint  uint64
	FilterFingerprint uint64
	MaxResults        int
	CaseSensitive     bool
	QueryVersion      int64
}

// NewKey derives a Key from a query.Query, the workspace it runs
// against, and that workspace's current query_version.
func NewKey(workspaceID string, q query.Query, queryVersion int64) Key {
	return Key{
		WorkspaceID:       workspaceID,
		QueryFingerprint:  fingerprintQuery(q),
		FilterFingerprint: fingerprintFilters(q.Filters),
		MaxResults:        q.MaxResults,
		CaseSensitive:     q.CaseSensitive,
		QueryVersion:      queryVersion,
	}
}

type entry struct {
	key          Key
	value        *query.Result
	insertedAt   time.Time
	lastAccessAt time.Time
}

// Cache is a bounded, TTL/TTI-expiring LRU of query results.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
	now      func() time.Time
}

// New creates a Cache with the given capacity. A non-positive capacity
// is replaced with DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
		now:      time.Now,
	}
}

// Get returns the cached result for key, or (nil, false) on a miss or
// an expired entry. A hit counts as an access for TTI purposes.
func (c *Cache) Get(key Key) (*query.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	now := c.now()
	if now.Sub(e.insertedAt) > TTL || now.Sub(e.lastAccessAt) > TTI {
		c.ll.Remove(el)
		delete(c.items, key)
		return nil, false
	}

	e.lastAccessAt = now
	c.ll.MoveToFront(el)
	return e.value, true
}

// Put inserts or replaces the cached result for key.
func (c *Cache) Put(key Key, value *query.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.insertedAt = now
		e.lastAccessAt = now
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{key: key, value: value, insertedAt: now, lastAccessAt: now})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
}

// InvalidateWorkspace removes every cached entry for workspaceID. This
// is the explicit predicate-sweep eviction side of invalidation: it
// reclaims memory immediately on a mutation instead of waiting for the
// query_version bump to make the stale entries merely unreachable.
func (c *Cache) InvalidateWorkspace(workspaceID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for el := c.ll.Front(); el != nil; el = el.Next() {
		if el.Value.(*entry).key.WorkspaceID == workspaceID {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.ll.Remove(el)
		delete(c.items, el.Value.(*entry).key)
	}
	return len(toRemove)
}

// Len reports the number of entries currently cached, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func fingerprintQuery(q query.Query) uint64 {
	terms := append([]query.Term(nil), q.Terms...)
	sort.Slice(terms, func(i, j int) bool { return terms[i].ID < terms[j].ID })

	h := xxhash.New()
	_, _ = h.WriteString(string(q.GlobalOperator))
	for _, t := range terms {
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(t.ID)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(t.Value)
		_, _ = h.WriteString("|")
		_, _ = h.WriteString(string(t.Operator))
		writeBool(h, t.IsRegex)
		writeBool(h, t.CaseSensitive)
		writeBool(h, t.Enabled)
	}
	return h.Sum64()
}

func fingerprintFilters(f query.Filters) uint64 {
	h := xxhash.New()
	if f.TimeStart != nil {
		_, _ = h.WriteString(f.TimeStart.UTC().Format(time.RFC3339Nano))
	}
	_, _ = h.WriteString("|")
	if f.TimeEnd != nil {
		_, _ = h.WriteString(f.TimeEnd.UTC().Format(time.RFC3339Nano))
	}
	_, _ = h.WriteString("|")
	levels := append([]string(nil), f.Levels...)
	sort.Strings(levels)
	for _, l := range levels {
		_, _ = h.WriteString(l)
		_, _ = h.WriteString(",")
	}
	_, _ = h.WriteString("|")
	_, _ = h.WriteString(f.PathGlob)
	return h.Sum64()
}

func writeBool(h *xxhash.Digest, b bool) {
	if b {
		_, _ = h.WriteString("|1")
	} else {
		_, _ = h.WriteString("|0")
	}
}
