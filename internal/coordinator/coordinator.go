package coordinator

import (
	"context"

	"github.com/sirupsen/logrus"

	"quorumfs/internal/cluster"
	"quorumfs/internal/keylock"
	"quorumfs/internal/membership"
	"quorumfs/internal/quorum"
	"quorumfs/internal/repair"
)

// NotReadyMessage is returned for every file operation until all N nodes
// have joined.
const NotReadyMessage = "Coordinator not ready. Check all nodes have joined and try again."

// ReplicaClient issues replica-level calls to one member. An error means the
// member could not be reached; a reachable member that refuses reports it
// through the returned Result.
type ReplicaClient interface {
	PerformWrite(ctx context.Context, node cluster.NodeIdentity, filename string, contents []byte, version int64) (cluster.Result, error)
	PerformRead(ctx context.Context, node cluster.NodeIdentity, filename string) (cluster.Result, error)
	FileMetadata(ctx context.Context, node cluster.NodeIdentity, filename string) (cluster.FileMetadata, error)
	AllFiles(ctx context.Context, node cluster.NodeIdentity) ([]cluster.FileMetadata, error)
}

// Coordinator runs the quorum read/write protocol.
//
// A per-filename lock is held for the whole of each read and write,
// including the nested replica calls, so operations on one filename are
// totally ordered and no two writes are assigned the same version.
type Coordinator struct {
	cfg      quorum.Config
	members  *membership.Membership
	replicas ReplicaClient
	locks    *keylock.Map
	log      logrus.FieldLogger
}

// New creates a coordinator. cfg must come from quorum.Derive.
func New(cfg quorum.Config, members *membership.Membership, replicas ReplicaClient, log logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		members:  members,
		replicas: replicas,
		locks:    keylock.New(),
		log:      log,
	}
}

// Config returns the quorum configuration in force.
func (c *Coordinator) Config() quorum.Config {
	return c.cfg
}

// Ready reports whether all N members have joined.
func (c *Coordinator) Ready() bool {
	return c.members.IsReady()
}

// Join admits a node into the membership.
func (c *Coordinator) Join(ctx context.Context, node cluster.NodeIdentity) cluster.Result {
	return c.members.Join(node)
}

// RandomMember returns a uniformly chosen member for clients to use as an
// entry node.
func (c *Coordinator) RandomMember(ctx context.Context) (cluster.NodeIdentity, cluster.Result) {
	return c.members.RandomMember(), cluster.Success()
}

// Write assigns the next version of filename and stores it on a write
// quorum. Replicas are written one at a time and the first failure aborts
// the rest; replicas written before the failure keep the new version.
func (c *Coordinator) Write(ctx context.Context, filename string, contents []byte) cluster.Result {
	if !c.members.IsReady() {
		return cluster.Failure(cluster.KindNotReady, NotReadyMessage)
	}
	if filename == "" {
		return cluster.Failure(cluster.KindInvalidArgument, "filename cannot be empty")
	}

	unlock := c.locks.Lock(filename)
	defer unlock()

	members, err := c.members.RandomQuorum(c.cfg.Nw)
	if err != nil {
		return cluster.Failure(cluster.KindNotReady, "could not build write quorum: %v", err)
	}

	metas, res := c.collectMetadata(ctx, members, filename)
	if !res.OK() {
		return res
	}

	version := repair.MaxVersion(metas)
	if version < 0 {
		version = 0
	}
	version++

	log := c.log.WithFields(logrus.Fields{"file": filename, "version": version, "quorum": len(members)})
	log.Debug("Writing to quorum")

	for _, member := range members {
		res, err := c.replicas.PerformWrite(ctx, member, filename, contents, version)
		if err != nil {
			log.WithError(err).WithField("peer", member.Addr()).Warn("Write aborted, replica unreachable")
			return cluster.Failure(cluster.KindUnreachable, "could not reach %s: %v", member.Addr(), err)
		}
		if !res.OK() {
			log.WithFields(logrus.Fields{"peer": member.Addr(), "kind": res.Kind}).Warn("Write aborted, replica refused")
			return res
		}
	}

	log.Info("Write committed")
	out := cluster.Success()
	out.Version = version
	return out
}

// Read returns filename from the quorum member holding the highest version.
func (c *Coordinator) Read(ctx context.Context, filename string) cluster.Result {
	if !c.members.IsReady() {
		return cluster.Failure(cluster.KindNotReady, NotReadyMessage)
	}
	if filename == "" {
		return cluster.Failure(cluster.KindInvalidArgument, "filename cannot be empty")
	}

	unlock := c.locks.Lock(filename)
	defer unlock()

	members, err := c.members.RandomQuorum(c.cfg.Nr)
	if err != nil {
		return cluster.Failure(cluster.KindNotReady, "could not build read quorum: %v", err)
	}

	metas, res := c.collectMetadata(ctx, members, filename)
	if !res.OK() {
		return res
	}

	idx, ok := repair.Freshest(metas)
	if !ok {
		return cluster.Failure(cluster.KindNotFound, "File does not exist yet")
	}
	target := members[idx]

	c.log.WithFields(logrus.Fields{
		"file":    filename,
		"version": metas[idx].Version,
		"peer":    target.Addr(),
	}).Debug("Reading from freshest replica")

	res, err = c.replicas.PerformRead(ctx, target, filename)
	if err != nil {
		return cluster.Failure(cluster.KindUnreachable, "could not reach %s: %v", target.Addr(), err)
	}
	return res
}

// AllFileVersions lists every file known to a read quorum at its highest
// version. Unreachable members are skipped.
func (c *Coordinator) AllFileVersions(ctx context.Context) ([]cluster.FileMetadata, cluster.Result) {
	if !c.members.IsReady() {
		return nil, cluster.Failure(cluster.KindNotReady, NotReadyMessage)
	}

	members, err := c.members.RandomQuorum(c.cfg.Nr)
	if err != nil {
		return nil, cluster.Failure(cluster.KindNotReady, "could not build read quorum: %v", err)
	}

	replies := quorum.Gather(ctx, members, func(ctx context.Context, m cluster.NodeIdentity) ([]cluster.FileMetadata, error) {
		return c.replicas.AllFiles(ctx, m)
	})
	for _, r := range replies {
		if r.Err != nil {
			c.log.WithError(r.Err).WithField("peer", r.Member.Addr()).Warn("Skipping unreachable member in listing")
		}
	}

	return repair.Latest(quorum.Values(replies)...), cluster.Success()
}

// collectMetadata queries every member in parallel. Any unreachable member
// fails the whole operation.
func (c *Coordinator) collectMetadata(ctx context.Context, members []cluster.NodeIdentity, filename string) ([]cluster.FileMetadata, cluster.Result) {
	replies := quorum.Gather(ctx, members, func(ctx context.Context, m cluster.NodeIdentity) (cluster.FileMetadata, error) {
		return c.replicas.FileMetadata(ctx, m, filename)
	})
	if err := quorum.FirstError(replies); err != nil {
		c.log.WithError(err).WithField("file", filename).Warn("Metadata query failed")
		return nil, cluster.Failure(cluster.KindUnreachable, "could not query metadata for '%s': %v", filename, err)
	}
	return quorum.Values(replies), cluster.Success()
}
