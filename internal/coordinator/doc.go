// Package coordinator implements the quorum protocol run by the cluster's
// single coordinator: version assignment and fan-out for writes, freshest
// replica selection for reads, and the cluster-wide file listing.
package coordinator
