package node

import (
	"context"

	"github.com/sirupsen/logrus"

	"quorumfs/internal/cluster"
	"quorumfs/internal/coordinator"
	"quorumfs/internal/repair"
	"quorumfs/internal/storage"
)

// Role tags what a handler does with logical operations.
type Role int

const (
	// RoleReplica forwards logical operations to the coordinator.
	RoleReplica Role = iota
	// RoleCoordinator runs logical operations through the quorum protocol.
	RoleCoordinator
)

func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	default:
		return "replica"
	}
}

// ClusterOps are the logical, cluster-wide operations. The coordinator
// implements them directly; a replica reaches them over RPC.
type ClusterOps interface {
	Join(ctx context.Context, node cluster.NodeIdentity) cluster.Result
	Write(ctx context.Context, filename string, contents []byte) cluster.Result
	Read(ctx context.Context, filename string) cluster.Result
	AllFileVersions(ctx context.Context) ([]cluster.FileMetadata, cluster.Result)
	RandomMember(ctx context.Context) (cluster.NodeIdentity, cluster.Result)
}

var _ ClusterOps = (*coordinator.Coordinator)(nil)

// Handler serves every operation a node answers. Logical operations go to
// the cluster (the coordinator, local or remote); replica-level operations
// and Update are always served from the local store.
type Handler struct {
	self    cluster.NodeIdentity
	role    Role
	store   storage.Store
	cluster ClusterOps
	sweeper *repair.Sweeper
	log     logrus.FieldLogger
}

// NewCoordinatorHandler creates the handler of the coordinator node.
func NewCoordinatorHandler(self cluster.NodeIdentity, store storage.Store, coord *coordinator.Coordinator, log logrus.FieldLogger) *Handler {
	return newHandler(self, RoleCoordinator, store, coord, log)
}

// NewReplicaHandler creates the handler of a plain replica whose logical
// operations go to upstream.
func NewReplicaHandler(self cluster.NodeIdentity, store storage.Store, upstream ClusterOps, log logrus.FieldLogger) *Handler {
	return newHandler(self, RoleReplica, store, upstream, log)
}

func newHandler(self cluster.NodeIdentity, role Role, store storage.Store, ops ClusterOps, log logrus.FieldLogger) *Handler {
	h := &Handler{
		self:    self,
		role:    role,
		store:   store,
		cluster: ops,
		log:     log,
	}
	h.sweeper = repair.NewSweeper(store, h.Read, log)
	return h
}

func (h *Handler) Role() Role {
	return h.role
}

func (h *Handler) Self() cluster.NodeIdentity {
	return h.self
}

func (h *Handler) Join(ctx context.Context, node cluster.NodeIdentity) cluster.Result {
	return h.cluster.Join(ctx, node)
}

func (h *Handler) Write(ctx context.Context, filename string, contents []byte) cluster.Result {
	return h.cluster.Write(ctx, filename, contents)
}

func (h *Handler) Read(ctx context.Context, filename string) cluster.Result {
	return h.cluster.Read(ctx, filename)
}

func (h *Handler) AllFileVersions(ctx context.Context) ([]cluster.FileMetadata, cluster.Result) {
	return h.cluster.AllFileVersions(ctx)
}

func (h *Handler) RandomMember(ctx context.Context) (cluster.NodeIdentity, cluster.Result) {
	return h.cluster.RandomMember(ctx)
}

// PerformWrite stores contents locally at an assigned version.
func (h *Handler) PerformWrite(ctx context.Context, filename string, contents []byte, version int64) cluster.Result {
	return h.store.Write(filename, contents, version)
}

// PerformRead reads the local copy of filename.
func (h *Handler) PerformRead(ctx context.Context, filename string) cluster.Result {
	return h.store.Read(filename)
}

// FileMetadata reports the local entry for filename.
func (h *Handler) FileMetadata(ctx context.Context, filename string) cluster.FileMetadata {
	return h.store.Metadata(filename)
}

// AllFiles lists every locally held file.
func (h *Handler) AllFiles(ctx context.Context) []cluster.FileMetadata {
	return h.store.AllMetadata()
}

// Update runs one anti-entropy pass over the local files.
func (h *Handler) Update(ctx context.Context) cluster.Result {
	return h.sweeper.Sweep(ctx)
}
