// Package quorum derives read and write quorum sizes from the replication
// factor and the configured consistency mode, and provides the concurrent
// fan-out used to query every member of a quorum.
package quorum
