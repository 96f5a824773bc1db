package it

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"quorumfs/internal/config"
	"quorumfs/internal/node"
	"quorumfs/internal/quorum"
	"quorumfs/internal/rpc"
	"quorumfs/internal/storage"
)

// Options configures an in-process test cluster.
type Options struct {
	N               int
	Mode            quorum.Mode
	Nw, Nr          int
	UpdateFrequency time.Duration
	Backend         storage.Kind
	DataDir         string
	Seed            int64
}

// Cluster represents a test cluster of nodes running in this process, each
// with its own gRPC server on a loopback port.
type Cluster struct {
	mu      sync.Mutex
	opts    Options
	nodes   []*node.Node
	clients *node.ClientManager
	logger  *logrus.Logger
}

// NewCluster starts the coordinator. Replicas are added with StartNode.
func NewCluster(ctx context.Context, opts Options) (*Cluster, error) {
	if opts.Backend == "" {
		opts.Backend = storage.KindMemory
	}
	if opts.Mode == "" {
		opts.Mode = quorum.Consistent
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if os.Getenv("IT_VERBOSE") != "" {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
	}

	c := &Cluster{
		opts:    opts,
		clients: node.NewClientManager(),
		logger:  logger,
	}

	cfg := c.baseConfig()
	cfg.Role = config.RoleCoordinator
	cfg.N = opts.N
	cfg.MinimumN = 1
	cfg.QuorumSelection = string(opts.Mode)
	cfg.Nw = opts.Nw
	cfg.Nr = opts.Nr

	n, err := node.NewNode(cfg, logger, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator: %w", err)
	}
	if err := n.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start coordinator: %w", err)
	}
	c.nodes = append(c.nodes, n)
	return c, nil
}

// StartCluster starts a coordinator and N-1 replicas, leaving the cluster
// ready.
func StartCluster(ctx context.Context, opts Options) (*Cluster, error) {
	c, err := NewCluster(ctx, opts)
	if err != nil {
		return nil, err
	}
	for i := 1; i < opts.N; i++ {
		if _, err := c.StartNode(ctx); err != nil {
			c.Stop()
			return nil, err
		}
	}
	return c, nil
}

// StartNode starts a replica that joins the coordinator.
func (c *Cluster) StartNode(ctx context.Context) (*node.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := c.baseConfig()
	cfg.Role = config.RoleReplica
	cfg.Coordinator = c.nodes[0].Identity().Addr()

	n, err := node.NewNode(cfg, c.logger, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create replica: %w", err)
	}
	if err := n.Start(ctx); err != nil {
		return nil, err
	}
	c.nodes = append(c.nodes, n)
	return n, nil
}

func (c *Cluster) baseConfig() *config.Config {
	cfg := config.Default()
	cfg.Listen = "127.0.0.1:0"
	cfg.Backend = c.opts.Backend
	cfg.DataDir = c.opts.DataDir
	cfg.UpdateFrequency = c.opts.UpdateFrequency
	cfg.LogLevel = "debug"
	return cfg
}

// Node returns the i-th node; node 0 is the coordinator.
func (c *Cluster) Node(i int) *node.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes[i]
}

// Size returns the number of running nodes.
func (c *Cluster) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes)
}

// Client returns a gRPC client for the i-th node.
func (c *Cluster) Client(i int) (*rpc.FileServiceClient, error) {
	return c.clients.GetClient(c.Node(i).Identity().Addr())
}

// Stop stops every node, replicas first.
func (c *Cluster) Stop() {
	c.mu.Lock()
	nodes := append([]*node.Node(nil), c.nodes...)
	c.mu.Unlock()

	c.clients.Close()
	for i := len(nodes) - 1; i >= 0; i-- {
		nodes[i].Stop()
	}
}
