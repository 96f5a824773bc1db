// Package storage provides the per-node versioned file store. A FileStore
// keeps the version index in memory, serialises access per filename and
// delegates physical reads and writes to a Backend (plain files on disk,
// a badger database, or memory).
package storage
