package bt

import (
	"maps"
	"slices"
	"sync"
)

// Blackboard is a thread-safe key-value store shared by sensors and action
// handlers. The zero value is ready to use.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewBlackboard returns a blackboard holding a copy of initial.
func NewBlackboard(initial map[string]any) *Blackboard {
	b := new(Blackboard)
	b.Merge(initial)
	return b
}

func (b *Blackboard) init() {
	if b.data == nil {
		b.data = make(map[string]any)
	}
}

// Get returns the value stored under key, or nil.
func (b *Blackboard) Get(key string) any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[key]
}

// Bool returns the value stored under key when it is a bool.
func (b *Blackboard) Bool(key string) (value, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok = b.data[key].(bool)
	return value, ok
}

// Set stores value under key.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.data[key] = value
}

// Merge stores every entry of values.
func (b *Blackboard) Merge(values map[string]any) {
	if len(values) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	maps.Copy(b.data, values)
}

// Has reports whether key is present.
func (b *Blackboard) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.data[key]
	return ok
}

// Delete removes key.
func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// Keys returns the keys in sorted order.
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.data) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(b.data))
}

// Clear removes every entry.
func (b *Blackboard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = make(map[string]any)
}

// Len returns the number of entries.
func (b *Blackboard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Snapshot returns a shallow copy of the data, never nil.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return map[string]any{}
	}
	return maps.Clone(b.data)
}
