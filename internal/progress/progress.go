// Package progress publishes run progress to interested listeners, such as
// the dashboard that triggered the run.
package progress

import (
	"context"
	"time"

	"github.com/specialistvlad/layergen/internal/model"
)

// Event names emitted on the wire.
const (
	EventNodeStatus  = "node_status"
	EventRunFinished = "run_finished"
)

// NodeEvent reports the outcome of one node.
type NodeEvent struct {
	RunID    string        `json:"run_id"`
	Workflow string        `json:"workflow"`
	Region   model.Region  `json:"region"`
	NodeID   string        `json:"node_id"`
	Job      string        `json:"job"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// RunEvent reports the end of a run.
type RunEvent struct {
	RunID    string            `json:"run_id"`
	Workflow string            `json:"workflow"`
	Region   model.Region      `json:"region"`
	Status   string            `json:"status"`
	Reason   string            `json:"reason,omitempty"`
	Nodes    map[string]string `json:"nodes"`
}

// Notifier receives progress events. Implementations must not block the
// run for long; delivery is best effort.
type Notifier interface {
	NodeStatus(ctx context.Context, ev NodeEvent)
	RunFinished(ctx context.Context, ev RunEvent)
	Close() error
}

// Nop discards every event.
type Nop struct{}

// NodeStatus implements Notifier.
func (Nop) NodeStatus(context.Context, NodeEvent) {}

// RunFinished implements Notifier.
func (Nop) RunFinished(context.Context, RunEvent) {}

// Close implements Notifier.
func (Nop) Close() error { return nil }
