package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskBackend_PutGet(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewDiskBackend(filepath.Join(dir, "node"))
	require.NoError(t, err)

	require.NoError(t, backend.Put("doc.txt", 1, []byte("line one\nline two\n")))
	require.NoError(t, backend.Put("doc.txt", 2, []byte("replaced")))

	data, err := backend.Get("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "node", "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(onDisk))

	entries, err := os.ReadDir(filepath.Join(dir, "node"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDiskBackend_RejectsPathEscape(t *testing.T) {
	backend, err := NewDiskBackend(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../x", "a/b", "..", "."} {
		assert.Error(t, backend.Put(name, 1, []byte("x")), name)
	}
}

func TestDiskBackend_GetMissing(t *testing.T) {
	backend, err := NewDiskBackend(t.TempDir())
	require.NoError(t, err)

	_, err = backend.Get("missing.txt")
	assert.Error(t, err)
}

func TestBadgerBackend_RecoversVersions(t *testing.T) {
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()

	backend, err := OpenBadger(dir)
	require.NoError(t, err)
	store, err := NewFileStore(testSelf, backend, logger)
	require.NoError(t, err)

	require.True(t, store.Write("a.txt", []byte("alpha"), 3).OK())
	require.True(t, store.Write("b.txt", []byte("beta"), 1).OK())
	require.True(t, store.Write("a.txt", []byte("alpha-2"), 4).OK())
	require.NoError(t, store.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	store, err = NewFileStore(testSelf, reopened, logger)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, int64(4), store.Metadata("a.txt").Version)
	assert.Equal(t, int64(1), store.Metadata("b.txt").Version)

	res := store.Read("a.txt")
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, "alpha-2", string(res.Contents))

	stale := store.Write("a.txt", []byte("old"), 2)
	assert.False(t, stale.OK())
}

func TestEntryEncoding(t *testing.T) {
	version, contents, err := decodeEntry(encodeEntry(42, []byte("payload")))
	require.NoError(t, err)
	assert.Equal(t, int64(42), version)
	assert.Equal(t, "payload", string(contents))

	_, _, err = decodeEntry([]byte{1, 2})
	assert.Error(t, err)
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open("tape", t.TempDir())
	assert.Error(t, err)

	b, err := Open(KindMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)
}
