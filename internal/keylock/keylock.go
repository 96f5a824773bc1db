// Package keylock provides a map of lazily created mutexes, one per key.
package keylock

import "sync"

// Map hands out one mutex per key. The outer lock only guards lookup and
// insertion; it is never held while a caller owns a key's mutex. Entries
// are never evicted.
type Map struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty lock map.
func New() *Map {
	return &Map{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the mutex for key is held and returns its release func.
func (m *Map) Lock(key string) func() {
	l := m.get(key)
	l.Lock()
	return l.Unlock
}

// Len returns the number of keys that have ever been locked.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func (m *Map) get(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.locks[key]
	if !exists {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}
