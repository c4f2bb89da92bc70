package interp

import (
	"slices"
	"time"
)

// Memory is the durable key/value store visible to a whole evaluation,
// distinct from lexical Scope. Entries optionally carry a time-to-live
// measured in seconds against the store's age (the clock starts when the
// store is created, not per entry).
//
// The store has a hard maximum entry count: inserting a new key past
// capacity is a no-op that returns false, while updating an existing key
// always succeeds. The caller persists the final contents externally
// after a run; Memory itself performs no I/O.
type Memory struct {
	data       map[string]Value
	ttl        map[string]float64 // seconds; absent key = no expiry
	maxEntries int
	created    time.Time
	now        func() time.Time
}

// NewMemory creates a store bounded to maxEntries.
func NewMemory(maxEntries int) *Memory {
	return NewMemoryAt(maxEntries, time.Now)
}

// NewMemoryAt creates a store with an injected clock, used by TTL tests
// and the deterministic harness.
func NewMemoryAt(maxEntries int, now func() time.Time) *Memory {
	return &Memory{
		data:       make(map[string]Value),
		ttl:        make(map[string]float64),
		maxEntries: maxEntries,
		created:    now(),
		now:        now,
	}
}

// age returns seconds since the store was created.
func (m *Memory) age() float64 {
	return m.now().Sub(m.created).Seconds()
}

// Get returns the value for key, expiring it first if its TTL has
// lapsed. Missing or expired keys return (nil, false).
func (m *Memory) Get(key string) (Value, bool) {
	v, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if ttl, hasTTL := m.ttl[key]; hasTTL && m.age() > ttl {
		delete(m.data, key)
		delete(m.ttl, key)
		return nil, false
	}
	return v, true
}

// Set stores key without a TTL. Returns false when the store is at
// capacity and key is new.
func (m *Memory) Set(key string, v Value) bool {
	return m.SetTTL(key, v, 0)
}

// SetTTL stores key with a TTL in seconds (0 = no expiry). Returns false
// when the store is at capacity and key is new; updates to existing keys
// always succeed.
func (m *Memory) SetTTL(key string, v Value, ttlSeconds float64) bool {
	if _, exists := m.data[key]; !exists && len(m.data) >= m.maxEntries {
		return false
	}
	m.data[key] = v
	if ttlSeconds > 0 {
		m.ttl[key] = ttlSeconds
	} else {
		delete(m.ttl, key)
	}
	return true
}

// Has reports whether key is present and unexpired.
func (m *Memory) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key, reporting whether it was present.
func (m *Memory) Delete(key string) bool {
	if _, ok := m.data[key]; !ok {
		return false
	}
	delete(m.data, key)
	delete(m.ttl, key)
	return true
}

// Keys returns all keys in ascending order for deterministic iteration.
func (m *Memory) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the current entry count.
func (m *Memory) Len() int {
	return len(m.data)
}

// MaxEntries returns the capacity bound.
func (m *Memory) MaxEntries() int {
	return m.maxEntries
}

// TTL returns the TTL in seconds for key, or 0 when none is set.
func (m *Memory) TTL(key string) float64 {
	return m.ttl[key]
}

// Snapshot exports the current contents as a Map. The caller owns the
// returned map; mutating it does not affect the store.
func (m *Memory) Snapshot() Map {
	out := make(Map, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}
