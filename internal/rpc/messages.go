package rpc

import (
	"quorumfs/internal/cluster"
)

// WriteRequest is a logical write sent by a client or forwarded to the
// coordinator.
type WriteRequest struct {
	Filename string `json:"filename"`
	Contents []byte `json:"contents"`
}

// PerformWriteRequest asks a replica to store contents at an assigned
// version.
type PerformWriteRequest struct {
	Filename string `json:"filename"`
	Contents []byte `json:"contents"`
	Version  int64  `json:"version"`
}

// FileList carries a metadata listing together with the outcome of the call
// that produced it.
type FileList struct {
	Result cluster.Result         `json:"result"`
	Files  []cluster.FileMetadata `json:"files"`
}

// MemberReply carries the member chosen by RandomMember.
type MemberReply struct {
	Result cluster.Result       `json:"result"`
	Member cluster.NodeIdentity `json:"member"`
}
