// Package index implements the Index entity: a named collection of
// Segments with exactly one Open segment at a time, a Commit operation that
// seals and persists the Open segment when called (the package starts no
// timer and does not read CommitInterval), retention enforcement, and
// crash-recovery reconciliation against the Blob Store on load.
package index
