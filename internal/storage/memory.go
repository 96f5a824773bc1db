package storage

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInjected is returned by a MemoryBackend with failures switched on.
var ErrInjected = errors.New("injected I/O failure")

// MemoryBackend keeps file contents in memory. Failures can be switched on
// to exercise the store's I/O error paths.
type MemoryBackend struct {
	mu       sync.RWMutex
	files    map[string][]byte
	failPut  bool
	failGet  bool
	putCalls int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{files: make(map[string][]byte)}
}

// SetFailures makes subsequent Put and/or Get calls fail.
func (m *MemoryBackend) SetFailures(put, get bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut = put
	m.failGet = get
}

// PutCalls returns how many times Put has been called.
func (m *MemoryBackend) PutCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCalls
}

func (m *MemoryBackend) Put(filename string, version int64, contents []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.putCalls++
	if m.failPut {
		return fmt.Errorf("put %s: %w", filename, ErrInjected)
	}
	m.files[filename] = append([]byte(nil), contents...)
	return nil
}

func (m *MemoryBackend) Get(filename string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failGet {
		return nil, fmt.Errorf("get %s: %w", filename, ErrInjected)
	}
	data, exists := m.files[filename]
	if !exists {
		return nil, fmt.Errorf("no contents for %s", filename)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Load() (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
