package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskBackend keeps each file as a plain file in one directory. Versions
// live only in the FileStore's memory, so they are not recovered.
type DiskBackend struct {
	dir string
}

// NewDiskBackend creates dir if needed.
func NewDiskBackend(dir string) (*DiskBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &DiskBackend{dir: dir}, nil
}

// Put writes the whole file through a temp file and rename.
func (d *DiskBackend) Put(filename string, version int64, contents []byte) error {
	if err := validateName(filename); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, "."+filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", filename, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", filename, err)
	}
	if err := os.Rename(tmpName, filepath.Join(d.dir, filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

// Get reads the whole file.
func (d *DiskBackend) Get(filename string) ([]byte, error) {
	if err := validateName(filename); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

// Load reports no versions. Plain files carry no version, so a disk-backed
// store starts empty after a restart; the badger backend keeps them.
func (d *DiskBackend) Load() (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (d *DiskBackend) Close() error {
	return nil
}
