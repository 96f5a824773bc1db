package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend performs the physical I/O behind a FileStore. Calls for the same
// filename are already serialised by the store.
type Backend interface {
	// Put replaces the contents stored for filename.
	Put(filename string, version int64, contents []byte) error
	// Get returns the contents stored for filename.
	Get(filename string) ([]byte, error)
	// Load returns the versions of files the backend already holds.
	// Backends that do not persist versions return an empty map.
	Load() (map[string]int64, error)
	Close() error
}

// Kind names a Backend implementation in configuration.
type Kind string

const (
	KindDisk   Kind = "disk"
	KindBadger Kind = "badger"
	KindMemory Kind = "memory"
)

// Open creates the backend of the given kind rooted at dir.
func Open(kind Kind, dir string) (Backend, error) {
	switch kind {
	case KindDisk, "":
		return NewDiskBackend(dir)
	case KindBadger:
		return OpenBadger(dir)
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// validateName rejects filenames that would escape a data directory.
func validateName(filename string) error {
	if filename == "" || filename == "." || filename == ".." {
		return fmt.Errorf("invalid filename %q", filename)
	}
	if strings.ContainsAny(filename, `/\`) || filepath.Base(filename) != filename {
		return fmt.Errorf("filename %q must not contain path separators", filename)
	}
	return nil
}
