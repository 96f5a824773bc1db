// Package cluster holds the data model shared by every node: node identities,
// per-file metadata and the Result envelope returned by every operation.
package cluster
