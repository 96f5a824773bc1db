// Package membership tracks the fixed-size set of nodes admitted by the
// coordinator.
//
// Joins are accepted until the set holds N members, at which point the
// coordinator becomes ready and every further join is rejected. Quorums are
// sampled uniformly at random from the full set for each operation.
//
// Two locks are used: one over the member list, and one over the readiness
// flag so that handlers checking readiness never wait on a quorum sample.
// Join takes the readiness lock first, then the member lock.
package membership
