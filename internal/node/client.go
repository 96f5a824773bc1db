package node

import (
	"errors"
	"fmt"
	"sync"

	"google.golang.org/grpc"

	"quorumfs/internal/rpc"
)

// ClientManager manages gRPC clients to peer nodes, one connection per
// address.
type ClientManager struct {
	mu      sync.RWMutex
	conns   map[string]*grpc.ClientConn
	clients map[string]*rpc.FileServiceClient
}

// NewClientManager creates a new client manager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		conns:   make(map[string]*grpc.ClientConn),
		clients: make(map[string]*rpc.FileServiceClient),
	}
}

// GetClient returns a client for the given node address.
// Creates a new connection if one doesn't exist. Connections are
// established lazily, so an unreachable peer surfaces on the first call.
func (cm *ClientManager) GetClient(addr string) (*rpc.FileServiceClient, error) {
	cm.mu.RLock()
	client, exists := cm.clients[addr]
	cm.mu.RUnlock()

	if exists {
		return client, nil
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Double-check after acquiring write lock
	if client, exists := cm.clients[addr]; exists {
		return client, nil
	}

	conn, err := grpc.NewClient(addr, rpc.DialOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	client = rpc.NewFileServiceClient(conn)
	cm.conns[addr] = conn
	cm.clients[addr] = client
	return client, nil
}

// Close closes all client connections.
func (cm *ClientManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var errs []error
	for addr, conn := range cm.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", addr, err))
		}
	}
	cm.conns = make(map[string]*grpc.ClientConn)
	cm.clients = make(map[string]*rpc.FileServiceClient)
	return errors.Join(errs...)
}
