package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"quorumfs/internal/cluster"
	"quorumfs/internal/keylock"
)

// Store defines the replica-local versioned file store.
type Store interface {
	// Write stores contents under filename at the given version. It fails
	// without mutation if the stored version is not strictly lower.
	Write(filename string, contents []byte, version int64) cluster.Result
	// Read returns the stored version and contents of filename.
	Read(filename string) cluster.Result
	// Metadata reports the current version and existence of filename.
	Metadata(filename string) cluster.FileMetadata
	// AllMetadata lists every filename ever written successfully.
	AllMetadata() []cluster.FileMetadata
}

// FileStore is the Backend-backed implementation of Store.
// Physical I/O on one filename is serialised by a per-filename mutex;
// different filenames never block each other.
type FileStore struct {
	self    cluster.NodeIdentity
	backend Backend
	locks   *keylock.Map
	log     logrus.FieldLogger

	mu       sync.RWMutex
	versions map[string]int64 // filename -> stored version
}

// NewFileStore creates a store on top of backend, recovering whatever
// versions the backend already holds.
func NewFileStore(self cluster.NodeIdentity, backend Backend, log logrus.FieldLogger) (*FileStore, error) {
	versions, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load stored versions: %w", err)
	}
	if versions == nil {
		versions = make(map[string]int64)
	}
	if len(versions) > 0 {
		log.WithField("files", len(versions)).Info("Recovered file versions from backend")
	}

	return &FileStore{
		self:     self,
		backend:  backend,
		locks:    keylock.New(),
		log:      log,
		versions: versions,
	}, nil
}

// Write persists contents at version if it is newer than the stored one.
func (s *FileStore) Write(filename string, contents []byte, version int64) cluster.Result {
	if filename == "" {
		return cluster.Failure(cluster.KindInvalidArgument, "filename cannot be empty")
	}
	if version < 0 {
		return cluster.Failure(cluster.KindInvalidArgument, "invalid version %d for '%s'", version, filename)
	}

	unlock := s.locks.Lock(filename)
	defer unlock()

	if current, exists := s.version(filename); exists && current >= version {
		s.log.WithFields(logrus.Fields{
			"file":    filename,
			"local":   current,
			"request": version,
		}).Warn("Rejected stale write")
		return cluster.Failure(cluster.KindVersionConflict,
			"rejected write to '%s': local version (%d) not older than write request version (%d)",
			filename, current, version)
	}

	if err := s.backend.Put(filename, version, contents); err != nil {
		s.log.WithError(err).WithField("file", filename).Error("Physical write failed")
		return cluster.Failure(cluster.KindLocalIO,
			"could not perform write to '%s' on node '%s': %v", filename, s.self.Addr(), err)
	}

	s.mu.Lock()
	s.versions[filename] = version
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"file": filename, "version": version}).Debug("Wrote file")

	res := cluster.Success()
	res.Version = version
	return res
}

// Read returns the contents of filename together with its version.
func (s *FileStore) Read(filename string) cluster.Result {
	if _, exists := s.version(filename); !exists {
		return cluster.Failure(cluster.KindNotFound,
			"could not perform read '%s' on node '%s' because file not found", filename, s.self.Addr())
	}

	unlock := s.locks.Lock(filename)
	defer unlock()

	contents, err := s.backend.Get(filename)
	if err != nil {
		s.log.WithError(err).WithField("file", filename).Error("Physical read failed")
		return cluster.Failure(cluster.KindLocalIO,
			"could not perform read '%s' on node '%s': %v", filename, s.self.Addr(), err)
	}
	version, _ := s.version(filename)

	res := cluster.Success()
	res.Version = version
	res.Contents = contents
	return res
}

// Metadata returns a snapshot of the entry for filename.
func (s *FileStore) Metadata(filename string) cluster.FileMetadata {
	version, exists := s.version(filename)
	if !exists {
		version = cluster.NoVersion
	}
	return cluster.FileMetadata{
		Filename: filename,
		Version:  version,
		Exists:   exists,
		Owner:    s.self,
	}
}

// AllMetadata returns metadata for every stored filename, sorted by name.
// It does not take any per-file lock.
func (s *FileStore) AllMetadata() []cluster.FileMetadata {
	s.mu.RLock()
	all := make([]cluster.FileMetadata, 0, len(s.versions))
	for filename, version := range s.versions {
		all = append(all, cluster.FileMetadata{
			Filename: filename,
			Version:  version,
			Exists:   true,
			Owner:    s.self,
		})
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].Filename < all[j].Filename
	})
	return all
}

// Close releases the backend.
func (s *FileStore) Close() error {
	return s.backend.Close()
}

func (s *FileStore) version(filename string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, exists := s.versions[filename]
	return v, exists
}
