// Package repair reconciles per-file versions reported by several replicas
// and runs the periodic anti-entropy sweep that pulls the authoritative
// version of every locally held file and overwrites stale local copies.
package repair
