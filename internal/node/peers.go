package node

import (
	"context"
	"fmt"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"quorumfs/internal/cluster"
	"quorumfs/internal/coordinator"
	"quorumfs/internal/rpc"
	"quorumfs/internal/storage"
)

// PeerClient issues replica-level calls on behalf of the coordinator.
// Calls addressed to the local node go straight to the local store.
type PeerClient struct {
	self    cluster.NodeIdentity
	local   storage.Store
	clients *ClientManager
}

var _ coordinator.ReplicaClient = (*PeerClient)(nil)

func NewPeerClient(self cluster.NodeIdentity, local storage.Store, clients *ClientManager) *PeerClient {
	return &PeerClient{self: self, local: local, clients: clients}
}

func (p *PeerClient) PerformWrite(ctx context.Context, node cluster.NodeIdentity, filename string, contents []byte, version int64) (cluster.Result, error) {
	if node.Same(p.self) {
		return p.local.Write(filename, contents, version), nil
	}
	client, err := p.clients.GetClient(node.Addr())
	if err != nil {
		return cluster.Result{}, err
	}
	res, err := client.PerformWrite(ctx, &rpc.PerformWriteRequest{Filename: filename, Contents: contents, Version: version})
	if err != nil {
		return cluster.Result{}, fmt.Errorf("performWrite: %s", rpc.ErrorMessage(err))
	}
	return *res, nil
}

func (p *PeerClient) PerformRead(ctx context.Context, node cluster.NodeIdentity, filename string) (cluster.Result, error) {
	if node.Same(p.self) {
		return p.local.Read(filename), nil
	}
	client, err := p.clients.GetClient(node.Addr())
	if err != nil {
		return cluster.Result{}, err
	}
	res, err := client.PerformRead(ctx, wrapperspb.String(filename))
	if err != nil {
		return cluster.Result{}, fmt.Errorf("performRead: %s", rpc.ErrorMessage(err))
	}
	return *res, nil
}

func (p *PeerClient) FileMetadata(ctx context.Context, node cluster.NodeIdentity, filename string) (cluster.FileMetadata, error) {
	if node.Same(p.self) {
		return p.local.Metadata(filename), nil
	}
	client, err := p.clients.GetClient(node.Addr())
	if err != nil {
		return cluster.FileMetadata{}, err
	}
	meta, err := client.FileMetadata(ctx, wrapperspb.String(filename))
	if err != nil {
		return cluster.FileMetadata{}, fmt.Errorf("fileMetadata: %s", rpc.ErrorMessage(err))
	}
	return *meta, nil
}

func (p *PeerClient) AllFiles(ctx context.Context, node cluster.NodeIdentity) ([]cluster.FileMetadata, error) {
	if node.Same(p.self) {
		return p.local.AllMetadata(), nil
	}
	client, err := p.clients.GetClient(node.Addr())
	if err != nil {
		return nil, err
	}
	list, err := client.AllFiles(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, fmt.Errorf("allFiles: %s", rpc.ErrorMessage(err))
	}
	return list.Files, nil
}

// upstream forwards logical operations from a replica to the coordinator.
// Transport failures become UNREACHABLE_PEER results.
type upstream struct {
	self        cluster.NodeIdentity
	coordinator cluster.NodeIdentity
	clients     *ClientManager
}

var _ ClusterOps = (*upstream)(nil)

func newUpstream(self, coord cluster.NodeIdentity, clients *ClientManager) *upstream {
	return &upstream{self: self, coordinator: coord, clients: clients}
}

func (u *upstream) client(ctx context.Context) (context.Context, *rpc.FileServiceClient, error) {
	client, err := u.clients.GetClient(u.coordinator.Addr())
	if err != nil {
		return ctx, nil, err
	}
	return metadata.AppendToOutgoingContext(ctx, rpc.ForwardedMetadataKey, u.self.Addr()), client, nil
}

func (u *upstream) unreachable(err error) cluster.Result {
	return cluster.Failure(cluster.KindUnreachable, "could not reach coordinator %s: %s", u.coordinator.Addr(), rpc.ErrorMessage(err))
}

func (u *upstream) Join(ctx context.Context, node cluster.NodeIdentity) cluster.Result {
	ctx, client, err := u.client(ctx)
	if err != nil {
		return u.unreachable(err)
	}
	res, err := client.Join(ctx, &node)
	if err != nil {
		return u.unreachable(err)
	}
	return *res
}

func (u *upstream) Write(ctx context.Context, filename string, contents []byte) cluster.Result {
	ctx, client, err := u.client(ctx)
	if err != nil {
		return u.unreachable(err)
	}
	res, err := client.Write(ctx, &rpc.WriteRequest{Filename: filename, Contents: contents})
	if err != nil {
		return u.unreachable(err)
	}
	return *res
}

func (u *upstream) Read(ctx context.Context, filename string) cluster.Result {
	ctx, client, err := u.client(ctx)
	if err != nil {
		return u.unreachable(err)
	}
	res, err := client.Read(ctx, wrapperspb.String(filename))
	if err != nil {
		return u.unreachable(err)
	}
	return *res
}

func (u *upstream) AllFileVersions(ctx context.Context) ([]cluster.FileMetadata, cluster.Result) {
	ctx, client, err := u.client(ctx)
	if err != nil {
		return nil, u.unreachable(err)
	}
	list, err := client.AllFileVersions(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, u.unreachable(err)
	}
	return list.Files, list.Result
}

func (u *upstream) RandomMember(ctx context.Context) (cluster.NodeIdentity, cluster.Result) {
	ctx, client, err := u.client(ctx)
	if err != nil {
		return cluster.NodeIdentity{}, u.unreachable(err)
	}
	reply, err := client.RandomMember(ctx, &emptypb.Empty{})
	if err != nil {
		return cluster.NodeIdentity{}, u.unreachable(err)
	}
	return reply.Member, reply.Result
}
