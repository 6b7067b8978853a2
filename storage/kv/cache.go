package kv

import (
	"reflect"
	"sync"
)

// Cache is the read-through cache of one unit of work. It never expires entries;
// discard it together with the Adapter that owns it.
type Cache struct {
	mu     sync.Mutex
	values map[string]any
	sets   map[string][]any
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{
		values: make(map[string]any),
		sets:   make(map[string][]any),
	}
}

// Len returns the number of cached values and sets
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values) + len(c.sets)
}

// Reset drops every cached entry
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]any)
	c.sets = make(map[string][]any)
}

func (c *Cache) value(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *Cache) storeValue(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// members returns a copy of a cached set
func (c *Cache) members(key string) ([]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.sets[key]
	if !ok {
		return nil, false
	}
	return append([]any(nil), list...), true
}

func (c *Cache) storeMembers(key string, members []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[key] = append([]any(nil), members...)
}

// appendMember adds value to a set that is already cached. An uncached set is left
// alone so the next read fetches every member from the store.
func (c *Cache) appendMember(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.sets[key]
	if !ok {
		return
	}
	for _, m := range list {
		if reflect.DeepEqual(m, value) {
			return
		}
	}
	c.sets[key] = append(list, value)
}

// removeMember removes the first cached member deep-equal to value
func (c *Cache) removeMember(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.sets[key]
	if !ok {
		return
	}
	for i, m := range list {
		if reflect.DeepEqual(m, value) {
			c.sets[key] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (c *Cache) drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.sets, key)
}
