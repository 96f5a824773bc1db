// Package node assembles a running node: the request handler, the gRPC
// server and peer clients, and the anti-entropy timer.
//
// Every node serves the same API. On the coordinator, logical operations
// (write, read, list, join) run through the quorum protocol; on a replica
// they are forwarded to the coordinator. Replica-level operations and the
// update sweep are always served from the local store.
package node
