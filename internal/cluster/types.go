package cluster

import (
	"net"
	"strconv"
)

// NoVersion is reported for files a replica has never written.
const NoVersion int64 = -1

// NodeIdentity is the network address of a node plus its role flag.
// Two identities refer to the same node iff their addresses are equal.
type NodeIdentity struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Coordinator bool   `json:"coordinator,omitempty"`
}

// Addr returns the dialable host:port form of the identity.
func (n NodeIdentity) Addr() string {
	return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// Same reports whether both identities point at the same address.
func (n NodeIdentity) Same(other NodeIdentity) bool {
	return n.Addr() == other.Addr()
}

func (n NodeIdentity) String() string {
	if n.Coordinator {
		return n.Addr() + "*"
	}
	return n.Addr()
}

// FileMetadata mirrors a replica's current entry for one filename.
type FileMetadata struct {
	Filename string       `json:"filename"`
	Version  int64        `json:"version"`
	Exists   bool         `json:"exists"`
	Owner    NodeIdentity `json:"owner"`
}
