package node

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"quorumfs/internal/cluster"
	"quorumfs/internal/config"
	"quorumfs/internal/coordinator"
	"quorumfs/internal/membership"
	"quorumfs/internal/quorum"
	"quorumfs/internal/repair"
	"quorumfs/internal/rpc"
	"quorumfs/internal/storage"
)

// Node represents a single node in the distributed system.
type Node struct {
	cfg  *config.Config
	self cluster.NodeIdentity
	log  logrus.FieldLogger

	lis        net.Listener
	grpcServer *grpc.Server
	store      *storage.FileStore
	clientMgr  *ClientManager
	handler    *Handler
	coord      *coordinator.Coordinator // nil on replicas
	scheduler  *repair.Scheduler

	stopOnce sync.Once
}

// NewNode binds the listen address and wires every component. The server
// does not accept requests until Start. rng drives quorum derivation and
// sampling on the coordinator; nil uses a time-seeded source.
func NewNode(cfg *config.Config, logger logrus.FieldLogger, rng *rand.Rand) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}

	self, err := advertised(cfg, lis.Addr())
	if err != nil {
		lis.Close()
		return nil, err
	}
	if cfg.Role == config.RoleCoordinator {
		self.Coordinator = true
	}
	log := logger.WithField("node", self.Addr())

	backend, err := storage.Open(cfg.Backend, cfg.NodeDataDir(self))
	if err != nil {
		lis.Close()
		return nil, err
	}
	store, err := storage.NewFileStore(self, backend, log)
	if err != nil {
		backend.Close()
		lis.Close()
		return nil, err
	}

	n := &Node{
		cfg:       cfg,
		self:      self,
		log:       log,
		lis:       lis,
		store:     store,
		clientMgr: NewClientManager(),
	}

	switch cfg.Role {
	case config.RoleCoordinator:
		qcfg, notices := quorum.Derive(cfg.QuorumParams(), rng)
		for _, notice := range notices {
			log.Warn(notice)
		}
		log.WithFields(logrus.Fields{
			"n":    qcfg.N,
			"mode": qcfg.Mode,
			"nw":   qcfg.Nw,
			"nr":   qcfg.Nr,
		}).Info("Quorum configuration")

		members := membership.New(n.self, qcfg.N, rng, log)
		members.SetOnReady(func(all []cluster.NodeIdentity) {
			log.WithField("members", fmt.Sprint(all)).Info("Cluster ready")
		})
		n.coord = coordinator.New(qcfg, members, NewPeerClient(n.self, store, n.clientMgr), log)
		n.handler = NewCoordinatorHandler(n.self, store, n.coord, log)
	default:
		coordID, err := config.ParseAddr(cfg.Coordinator)
		if err != nil {
			store.Close()
			lis.Close()
			return nil, err
		}
		n.handler = NewReplicaHandler(n.self, store, newUpstream(n.self, coordID, n.clientMgr), log)
	}

	n.grpcServer = grpc.NewServer()
	rpc.RegisterFileServiceServer(n.grpcServer, NewServer(n.handler, log))
	// Enable gRPC reflection for grpcurl
	reflection.Register(n.grpcServer)

	n.scheduler = repair.NewScheduler(cfg.UpdateFrequency, n.handler.Update, log)
	return n, nil
}

// Start serves requests, joins the coordinator when running as a replica,
// and starts the anti-entropy timer. A rejected join stops the node.
func (n *Node) Start(ctx context.Context) error {
	go func() {
		if err := n.grpcServer.Serve(n.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			n.log.WithError(err).Error("gRPC server failed")
		}
	}()
	n.log.WithField("role", n.handler.Role()).Info("Node started")

	if n.handler.Role() == RoleReplica {
		res := n.handler.Join(ctx, n.self)
		if !res.OK() {
			n.Stop()
			return fmt.Errorf("join rejected: %w", res.Err())
		}
		n.log.WithField("coordinator", n.cfg.Coordinator).Info("Joined cluster")
	}

	n.scheduler.Start()
	return nil
}

// Stop gracefully stops the node. It is safe to call more than once.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		n.log.Info("Stopping node")
		n.scheduler.Stop()
		n.grpcServer.GracefulStop()
		if err := n.clientMgr.Close(); err != nil {
			n.log.WithError(err).Warn("Failed to close peer connections")
		}
		if err := n.store.Close(); err != nil {
			n.log.WithError(err).Warn("Failed to close storage")
		}
	})
}

// Identity returns the advertised identity of this node.
func (n *Node) Identity() cluster.NodeIdentity {
	return n.self
}

// Handler returns the node's request handler.
func (n *Node) Handler() *Handler {
	return n.handler
}

// Coordinator returns the coordinator, or nil on a replica.
func (n *Node) Coordinator() *coordinator.Coordinator {
	return n.coord
}

// advertised works out the identity other nodes dial. Without an explicit
// advertise address the listen host is used with the bound port, and an
// unspecified host becomes loopback.
func advertised(cfg *config.Config, bound net.Addr) (cluster.NodeIdentity, error) {
	if cfg.Advertise != "" {
		return config.ParseAddr(cfg.Advertise)
	}
	host, _, err := net.SplitHostPort(cfg.Listen)
	if err != nil {
		return cluster.NodeIdentity{}, fmt.Errorf("invalid listen address %q: %w", cfg.Listen, err)
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	tcp, ok := bound.(*net.TCPAddr)
	if !ok {
		return cluster.NodeIdentity{}, fmt.Errorf("unexpected listener address %T", bound)
	}
	return cluster.NodeIdentity{Host: host, Port: tcp.Port}, nil
}
