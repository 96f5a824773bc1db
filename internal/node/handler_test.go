package node

import (
	"context"
	"math/rand"
	"net"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorumfs/internal/cluster"
	"quorumfs/internal/config"
	"quorumfs/internal/coordinator"
	"quorumfs/internal/membership"
	"quorumfs/internal/quorum"
	"quorumfs/internal/storage"
)

var self = cluster.NodeIdentity{Host: "127.0.0.1", Port: 7100}

// fakeCluster records forwarded calls and serves reads from a map.
type fakeCluster struct {
	reads  []string
	writes []string
	joins  []cluster.NodeIdentity
	files  map[string]cluster.Result
}

func (f *fakeCluster) Join(ctx context.Context, node cluster.NodeIdentity) cluster.Result {
	f.joins = append(f.joins, node)
	return cluster.Success()
}

func (f *fakeCluster) Write(ctx context.Context, filename string, contents []byte) cluster.Result {
	f.writes = append(f.writes, filename)
	res := cluster.Success()
	res.Version = 1
	return res
}

func (f *fakeCluster) Read(ctx context.Context, filename string) cluster.Result {
	f.reads = append(f.reads, filename)
	if res, ok := f.files[filename]; ok {
		return res
	}
	return cluster.Failure(cluster.KindNotFound, "File does not exist yet")
}

func (f *fakeCluster) AllFileVersions(ctx context.Context) ([]cluster.FileMetadata, cluster.Result) {
	return nil, cluster.Success()
}

func (f *fakeCluster) RandomMember(ctx context.Context) (cluster.NodeIdentity, cluster.Result) {
	return self, cluster.Success()
}

func version(v int64, contents string) cluster.Result {
	res := cluster.Success()
	res.Version = v
	res.Contents = []byte(contents)
	return res
}

func newStore(t *testing.T) *storage.FileStore {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store, err := storage.NewFileStore(self, storage.NewMemoryBackend(), logger)
	require.NoError(t, err)
	return store
}

func TestReplicaHandler_ForwardsLogicalOperations(t *testing.T) {
	store := newStore(t)
	upstream := &fakeCluster{}
	logger, _ := test.NewNullLogger()
	h := NewReplicaHandler(self, store, upstream, logger)
	ctx := context.Background()

	assert.Equal(t, RoleReplica, h.Role())
	assert.True(t, h.Join(ctx, self).OK())
	assert.True(t, h.Write(ctx, "a", []byte("x")).OK())
	h.Read(ctx, "a")

	assert.Equal(t, []cluster.NodeIdentity{self}, upstream.joins)
	assert.Equal(t, []string{"a"}, upstream.writes)
	assert.Equal(t, []string{"a"}, upstream.reads)
	assert.False(t, store.Metadata("a").Exists, "a logical write must not touch the local store")
}

func TestReplicaHandler_ServesReplicaOperationsLocally(t *testing.T) {
	store := newStore(t)
	upstream := &fakeCluster{}
	logger, _ := test.NewNullLogger()
	h := NewReplicaHandler(self, store, upstream, logger)
	ctx := context.Background()

	require.True(t, h.PerformWrite(ctx, "a", []byte("x"), 3).OK())
	assert.Equal(t, cluster.KindVersionConflict, h.PerformWrite(ctx, "a", []byte("y"), 3).Kind)

	res := h.PerformRead(ctx, "a")
	assert.Equal(t, "x", string(res.Contents))
	assert.Equal(t, int64(3), h.FileMetadata(ctx, "a").Version)
	assert.Len(t, h.AllFiles(ctx), 1)
	assert.Empty(t, upstream.reads)
	assert.Empty(t, upstream.writes)
}

func TestHandler_UpdatePullsNewerVersions(t *testing.T) {
	store := newStore(t)
	require.True(t, store.Write("a", []byte("a1"), 1).OK())
	require.True(t, store.Write("b", []byte("b4"), 4).OK())

	upstream := &fakeCluster{files: map[string]cluster.Result{
		"a": version(3, "a3"),
		"b": version(4, "b4"),
	}}
	logger, _ := test.NewNullLogger()
	h := NewReplicaHandler(self, store, upstream, logger)

	res := h.Update(context.Background())
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, []string{"a", "b"}, upstream.reads)

	a := store.Read("a")
	assert.Equal(t, int64(3), a.Version)
	assert.Equal(t, "a3", string(a.Contents))
}

func TestHandler_UpdateAbortsAtFirstFailure(t *testing.T) {
	store := newStore(t)
	require.True(t, store.Write("a", []byte("a"), 1).OK())
	require.True(t, store.Write("b", []byte("b"), 1).OK())

	upstream := &fakeCluster{files: map[string]cluster.Result{
		"a": cluster.Failure(cluster.KindUnreachable, "could not reach coordinator"),
		"b": version(2, "b2"),
	}}
	logger, _ := test.NewNullLogger()
	h := NewReplicaHandler(self, store, upstream, logger)

	res := h.Update(context.Background())
	assert.Equal(t, cluster.KindUnreachable, res.Kind)
	assert.Equal(t, []string{"a"}, upstream.reads)
	assert.Equal(t, int64(1), store.Metadata("b").Version)
}

func TestCoordinatorHandler_RunsProtocolLocally(t *testing.T) {
	store := newStore(t)
	logger, _ := test.NewNullLogger()

	members := membership.New(self, 1, rand.New(rand.NewSource(1)), logger)
	coord := coordinator.New(quorum.Config{N: 1, Mode: quorum.Consistent, Nw: 1, Nr: 1}, members,
		NewPeerClient(self, store, NewClientManager()), logger)
	h := NewCoordinatorHandler(self, store, coord, logger)
	ctx := context.Background()

	assert.Equal(t, RoleCoordinator, h.Role())

	w := h.Write(ctx, "doc.txt", []byte("hello"))
	require.True(t, w.OK(), w.Message)
	assert.Equal(t, int64(1), w.Version)

	r := h.Read(ctx, "doc.txt")
	require.True(t, r.OK(), r.Message)
	assert.Equal(t, "hello", string(r.Contents))

	// The only member is the coordinator itself, reached without dialling.
	assert.Equal(t, int64(1), store.Metadata("doc.txt").Version)

	files, res := h.AllFileVersions(ctx)
	require.True(t, res.OK())
	require.Len(t, files, 1)

	member, res := h.RandomMember(ctx)
	require.True(t, res.OK())
	assert.True(t, member.Same(self))

	assert.True(t, h.Update(ctx).OK())
}

func TestPeerClient_UnreachablePeer(t *testing.T) {
	store := newStore(t)
	clients := NewClientManager()
	defer clients.Close()
	peers := NewPeerClient(self, store, clients)

	// Grab a free port and release it so nothing is listening there.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().(*net.TCPAddr)
	lis.Close()

	_, err = peers.FileMetadata(context.Background(), cluster.NodeIdentity{Host: "127.0.0.1", Port: addr.Port}, "a")
	assert.Error(t, err)
}

func TestUpstream_UnreachableCoordinator(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	lis.Close()

	clients := NewClientManager()
	defer clients.Close()
	up := newUpstream(self, cluster.NodeIdentity{Host: "127.0.0.1", Port: port}, clients)

	res := up.Write(context.Background(), "a", []byte("x"))
	assert.Equal(t, cluster.KindUnreachable, res.Kind)
	assert.Contains(t, res.Message, "could not reach coordinator")
}

func TestAdvertised(t *testing.T) {
	bound := &net.TCPAddr{IP: net.IPv4zero, Port: 6123}

	tests := []struct {
		name      string
		listen    string
		advertise string
		want      cluster.NodeIdentity
	}{
		{"loopback", "127.0.0.1:0", "", cluster.NodeIdentity{Host: "127.0.0.1", Port: 6123}},
		{"unspecified", "0.0.0.0:6123", "", cluster.NodeIdentity{Host: "127.0.0.1", Port: 6123}},
		{"empty host", ":6123", "", cluster.NodeIdentity{Host: "127.0.0.1", Port: 6123}},
		{"explicit", "0.0.0.0:6123", "10.1.2.3:7000", cluster.NodeIdentity{Host: "10.1.2.3", Port: 7000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Listen = tt.listen
			cfg.Advertise = tt.advertise

			got, err := advertised(cfg, bound)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
