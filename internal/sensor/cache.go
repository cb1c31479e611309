package sensor

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// DefaultCacheSize is the default maximum number of compiled programs kept by
// a Cache.
const DefaultCacheSize = 1000

// Cache is a thread-safe LRU cache of compiled expr-lang programs keyed by
// expression source.
type Cache struct {
	mu        sync.Mutex
	index     map[string]*list.Element
	lru       *list.List
	maxSize   int
	hitCount  int64
	missCount int64
}

type cacheEntry struct {
	expression string
	program    *vm.Program
}

// NewCache creates a cache holding at most maxSize programs. Values below 1
// select DefaultCacheSize.
func NewCache(maxSize int) *Cache {
	if maxSize < 1 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		index:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the cached program for expression, marking it most recently
// used.
func (c *Cache) Get(expression string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.index[expression]
	if !ok {
		c.missCount++
		return nil, false
	}
	c.hitCount++
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).program, true
}

// Put stores program under expression, evicting the least recently used
// entries beyond the size limit. An existing entry is replaced.
func (c *Cache) Put(expression string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[expression]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).program = program
		return
	}

	c.index[expression] = c.lru.PushFront(&cacheEntry{expression: expression, program: program})
	c.evictLocked()
}

func (c *Cache) evictLocked() {
	for c.lru.Len() > c.maxSize {
		elem := c.lru.Back()
		delete(c.index, elem.Value.(*cacheEntry).expression)
		c.lru.Remove(elem)
	}
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns the size, hit and miss counters and the hit ratio.
func (c *Cache) Stats() (size int, hits, misses int64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if total := c.hitCount + c.missCount; total > 0 {
		ratio = float64(c.hitCount) / float64(total)
	}
	return c.lru.Len(), c.hitCount, c.missCount, ratio
}

func (c *Cache) String() string {
	size, hits, misses, ratio := c.Stats()
	return fmt.Sprintf("sensor.Cache{size=%d, hits=%d, misses=%d, hit_ratio=%.2f%%}",
		size, hits, misses, ratio*100)
}
