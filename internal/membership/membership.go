package membership

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"

	"quorumfs/internal/cluster"
)

// Membership is the coordinator's bounded member list. The coordinator
// itself is member 0 and counts toward N.
type Membership struct {
	mu      sync.Mutex // guards members and rng
	members []cluster.NodeIdentity
	rng     *rand.Rand

	readyMu sync.Mutex // guards ready
	ready   bool

	n   int
	log logrus.FieldLogger

	onReady func([]cluster.NodeIdentity)
}

// New creates a membership of capacity n seeded with the coordinator.
// rng drives RandomMember and RandomQuorum; a nil rng gets a time-seeded one.
func New(self cluster.NodeIdentity, n int, rng *rand.Rand, log logrus.FieldLogger) *Membership {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	self.Coordinator = true

	m := &Membership{
		members: []cluster.NodeIdentity{self},
		rng:     rng,
		n:       n,
		log:     log,
	}
	m.ready = len(m.members) >= n
	return m
}

// SetOnReady registers a callback invoked once, with a snapshot of the
// members, when the membership becomes full.
func (m *Membership) SetOnReady(callback func([]cluster.NodeIdentity)) {
	m.readyMu.Lock()
	defer m.readyMu.Unlock()
	m.onReady = callback
}

// Join admits node until the membership holds n members.
func (m *Membership) Join(node cluster.NodeIdentity) cluster.Result {
	m.readyMu.Lock()
	defer m.readyMu.Unlock()

	if m.ready {
		m.log.WithField("peer", node.Addr()).Warn("Rejected join, cluster is full")
		return cluster.Failure(cluster.KindInvalidArgument, "DFS is at full capacity (%d nodes)", m.n)
	}

	m.mu.Lock()
	for _, existing := range m.members {
		if existing.Same(node) {
			m.mu.Unlock()
			return cluster.Failure(cluster.KindInvalidArgument, "node %s has already joined", node.Addr())
		}
	}
	node.Coordinator = false
	m.members = append(m.members, node)
	size := len(m.members)
	var snapshot []cluster.NodeIdentity
	if size == m.n {
		snapshot = append(snapshot, m.members...)
	}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"peer": node.Addr(), "size": size, "n": m.n}).Info("Node joined")

	if size == m.n {
		m.ready = true
		m.log.Info("All nodes have joined, coordinator is ready")
		if m.onReady != nil {
			m.onReady(snapshot)
		}
	}
	return cluster.Success()
}

// IsReady reports whether all n members have joined.
func (m *Membership) IsReady() bool {
	m.readyMu.Lock()
	defer m.readyMu.Unlock()
	return m.ready
}

// RandomMember returns one member chosen uniformly.
func (m *Membership) RandomMember() cluster.NodeIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[m.rng.Intn(len(m.members))]
}

// RandomQuorum returns size distinct members chosen uniformly without
// replacement.
func (m *Membership) RandomQuorum(size int) ([]cluster.NodeIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if size < 0 || size > len(m.members) {
		return nil, fmt.Errorf("quorum of %d requested from %d members", size, len(m.members))
	}

	quorum := make([]cluster.NodeIdentity, 0, size)
	for _, idx := range m.rng.Perm(len(m.members))[:size] {
		quorum = append(quorum, m.members[idx])
	}
	return quorum, nil
}

// Members returns a snapshot in join order.
func (m *Membership) Members() []cluster.NodeIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cluster.NodeIdentity(nil), m.members...)
}

// Size returns the number of members, coordinator included.
func (m *Membership) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

// Capacity returns n.
func (m *Membership) Capacity() int {
	return m.n
}
