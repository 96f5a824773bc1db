package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const fileKeyPrefix = "file/"

// BadgerBackend stores (version, contents) records in a badger database,
// so versions survive a restart.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens or creates a badger database in dir.
func OpenBadger(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", dir, err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Put(filename string, version int64, contents []byte) error {
	if err := validateName(filename); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(fileKey(filename), encodeEntry(version, contents))
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", filename, err)
	}
	return nil
}

func (b *BadgerBackend) Get(filename string) ([]byte, error) {
	var contents []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fileKey(filename))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			_, c, err := decodeEntry(val)
			if err != nil {
				return err
			}
			contents = append([]byte(nil), c...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("no record for %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}
	return contents, nil
}

// Load scans every file record and returns its version.
func (b *BadgerBackend) Load() (map[string]int64, error) {
	versions := make(map[string]int64)
	prefix := []byte(fileKeyPrefix)

	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				version, _, err := decodeEntry(val)
				if err != nil {
					return fmt.Errorf("record %s: %w", name, err)
				}
				versions[name] = version
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

func fileKey(filename string) []byte {
	return []byte(fileKeyPrefix + filename)
}

// encodeEntry lays a record out as an 8-byte big-endian version followed by
// the raw contents.
func encodeEntry(version int64, contents []byte) []byte {
	buf := make([]byte, 8+len(contents))
	binary.BigEndian.PutUint64(buf, uint64(version))
	copy(buf[8:], contents)
	return buf
}

func decodeEntry(val []byte) (int64, []byte, error) {
	if len(val) < 8 {
		return 0, nil, fmt.Errorf("corrupt record of %d bytes", len(val))
	}
	return int64(binary.BigEndian.Uint64(val)), val[8:], nil
}
