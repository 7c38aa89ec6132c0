// Package nodestore defines the status table of one orchestration run: the
// mutable record of what happened to every node instance.
//
// # Lifecycle
//
// A store is:
//  1. Created fresh when a run starts (never shared between runs).
//  2. Mutated only by the dependency executor, once per node instance.
//  3. Read by the executor for dependency checks and by the orchestrator to
//     decide whether to descend into a node's children.
//  4. Summarised and discarded when the run ends.
//
// Nothing derived from a previous run survives in a store, so re-running a
// workflow after a partial failure starts from a clean slate.
package nodestore

import (
	"context"
)

// Status is the recorded outcome of a node instance.
type Status string

const (
	// StatusNotRun is reported for every id that has not been recorded.
	StatusNotRun Status = "not_run"
	// StatusSucceeded means the job ran and reported success.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the job ran and reported failure, returned an
	// error or panicked.
	StatusFailed Status = "failed"
	// StatusSkipped means the job was never invoked because a dependency was
	// unsatisfied or an ancestor did not succeed.
	StatusSkipped Status = "skipped"
)

// Satisfied reports whether dependents of a node with this status may run.
func (s Status) Satisfied() bool {
	return s == StatusSucceeded
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotRun, StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// Store is the interface for the run-local status table.
//
// Implementations must be safe for concurrent use; a single run is
// sequential, but progress reporters and tests may read while the executor
// writes.
type Store interface {
	// SetStatus records the status of a node instance.
	SetStatus(ctx context.Context, id string, status Status) error

	// GetStatus returns StatusNotRun if nothing was recorded for id.
	GetStatus(ctx context.Context, id string) (Status, error)

	// SetError records why a node instance did not succeed.
	SetError(ctx context.Context, id string, nodeErr error) error

	// GetError returns nil if no error was recorded for id.
	GetError(ctx context.Context, id string) (error, error)

	// Snapshot returns a copy of every recorded status.
	Snapshot(ctx context.Context) (map[string]Status, error)
}
