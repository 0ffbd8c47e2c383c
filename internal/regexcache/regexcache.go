// Package regexcache compiles and caches user-supplied regular
// expressions behind a bounded LRU, rejecting patterns whose structure
// is a known catastrophic-backtracking shape before they are ever
// compiled.
package regexcache

import (
	"container/list"
	"regexp"
	"sync"

	"github.com/cespare/xxhash/v2"

	appErrors "github.com/logforge/logforge/internal/errors"
)

// DefaultCapacity is the default number of compiled patterns kept
// resident.
const DefaultCapacity = 1000

// MaxPatternLength rejects pathologically long patterns outright,
// before the backtracking heuristic even runs.
const MaxPatternLength = 200

type entry struct {
	key     uint64
	pattern string
	re      *regexp.Regexp
}

// Cache is a bounded LRU of compiled *regexp.Regexp, keyed by an
// xxhash fingerprint of (pattern, case_sensitive) rather than the raw
// string, matching the fingerprinting idiom used for result-cache keys.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[uint64]*list.Element
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
		items:    make(map[uint64]*list.Element),
	}
}

// CheckPattern applies the length cap and catastrophic-backtracking
// heuristic to pattern and confirms it compiles, without touching any
// cache. This is the pure validation step internal/query's Validator
// calls (I11/I12); Get below calls it too, so the cache never holds an
// entry that validation would have rejected.
func CheckPattern(pattern string) error {
	if len(pattern) > MaxPatternLength {
		return appErrors.RegexUnsafe(pattern, "exceeds max pattern length")
	}
	if reason, unsafe := looksCatastrophic(pattern); unsafe {
		return appErrors.RegexUnsafe(pattern, reason)
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return appErrors.RegexUnsafe(pattern, err.Error())
	}
	return nil
}

// Get returns the compiled regex for pattern, compiling and caching it
// on a miss. Returns a RegexUnsafe error if the pattern fails the
// length cap or the catastrophic-backtracking heuristic, or if it does
// not compile.
func (c *Cache) Get(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	if err := CheckPattern(pattern); err != nil {
		return nil, err
	}

	key := fingerprint(pattern, caseSensitive)

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		re := el.Value.(*entry).re
		c.mu.Unlock()
		return re, nil
	}
	c.mu.Unlock()

	effective := pattern
	if !caseSensitive {
		effective = "(?i)" + pattern
	}
	re, err := regexp.Compile(effective)
	if err != nil {
		return nil, appErrors.RegexUnsafe(pattern, err.Error())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check: another goroutine may have compiled and inserted the
	// same pattern while this one was compiling outside the lock.
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry).re, nil
	}

	el := c.ll.PushFront(&entry{key: key, pattern: pattern, re: re})
	c.items[key] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
	return re, nil
}

// Len reports the number of currently cached compiled patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func fingerprint(pattern string, caseSensitive bool) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(pattern)
	if caseSensitive {
		_, _ = h.WriteString("|cs")
	} else {
		_, _ = h.WriteString("|ci")
	}
	return h.Sum64()
}
