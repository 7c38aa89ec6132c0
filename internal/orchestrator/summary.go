package orchestrator

import (
	"time"

	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/nodestore"
)

// Status is the overall state of a finished run.
type Status string

const (
	// StatusCompleted means every reachable node was attempted. Individual
	// nodes may still have failed or been skipped.
	StatusCompleted Status = "completed"
	// StatusAborted means the run never started any node.
	StatusAborted Status = "aborted"
	// StatusCancelled means the context ended between two nodes.
	StatusCancelled Status = "cancelled"
)

// NodeResult is the per-node line of a summary.
type NodeResult struct {
	ID         string           `json:"id"`
	Job        string           `json:"job"`
	Status     nodestore.Status `json:"status"`
	Error      string           `json:"error,omitempty"`
	BlockedBy  string           `json:"blocked_by,omitempty"`
	DurationMS int64            `json:"duration_ms"`
}

// Summary describes a finished run.
type Summary struct {
	RunID      string       `json:"run_id"`
	Workflow   string       `json:"workflow"`
	Region     model.Region `json:"region"`
	Status     Status       `json:"status"`
	Reason     string       `json:"reason,omitempty"`
	Nodes      []NodeResult `json:"nodes"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`

	err error
}

// Err maps an aborted or cancelled run to a Go error. It returns nil for
// completed runs, even when some nodes failed.
func (s *Summary) Err() error {
	if s.Status == StatusCompleted {
		return nil
	}
	return s.err
}

// Statuses returns node id to status for every node of the workflow.
func (s *Summary) Statuses() map[string]nodestore.Status {
	out := make(map[string]nodestore.Status, len(s.Nodes))
	for _, n := range s.Nodes {
		out[n.ID] = n.Status
	}
	return out
}

// Count returns how many nodes ended with status.
func (s *Summary) Count(status nodestore.Status) int {
	n := 0
	for _, r := range s.Nodes {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
