package semantic

import (
	"container/list"
	"sync"
)

// FormCache is a thread-safe least-recently-used cache of normalized
// query forms, keyed by raw input text.
type FormCache struct {
	maxSize int
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	hits    uint64
	misses  uint64
}

type formEntry struct {
	key  string
	form NormalizedForm
}

// NewFormCache creates a cache holding at most maxSize forms
func NewFormCache(maxSize int) *FormCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &FormCache{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves a form and marks it as recently used
func (c *FormCache) Get(key string) (NormalizedForm, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		return elem.Value.(*formEntry).form, true
	}
	c.misses++
	return NormalizedForm{}, false
}

// Set adds or updates a form, evicting the least recently used on overflow
func (c *FormCache) Set(key string, form NormalizedForm) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*formEntry).form = form
		return
	}

	elem := c.order.PushFront(&formEntry{key: key, form: form})
	c.items[key] = elem

	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*formEntry).key)
		}
	}
}

// Normalize returns the cached form for text, normalizing and storing it on a miss
func (c *FormCache) Normalize(n *Normalizer, text string) NormalizedForm {
	if form, ok := c.Get(text); ok {
		return form
	}
	form := n.Normalize(text)
	c.Set(text, form)
	return form
}

// Clear removes all entries from the cache
func (c *FormCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order = list.New()
}

// Size returns the current number of items in the cache
func (c *FormCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// HitRate returns hits / lookups, 0 before the first lookup
func (c *FormCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
