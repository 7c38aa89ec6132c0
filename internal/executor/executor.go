package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/specialistvlad/layergen/internal/args"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/depcheck"
	"github.com/specialistvlad/layergen/internal/metrics"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/nodestore"
	"github.com/specialistvlad/layergen/internal/progress"
	"github.com/specialistvlad/layergen/internal/registry"
	"github.com/specialistvlad/layergen/internal/session"
)

// Registry is the lookup surface the executor needs.
type Registry interface {
	Job(name string) (registry.JobFunc, bool)
	Predicate(name string) (depcheck.Predicate, bool)
}

// Executor executes nodes one at a time.
type Executor struct {
	reg      Registry
	metrics  *metrics.Metrics
	notifier progress.Notifier
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithMetrics records node outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithNotifier publishes node outcomes through n.
func WithNotifier(n progress.Notifier) Option {
	return func(e *Executor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor.
func New(reg Registry, opts ...Option) *Executor {
	e := &Executor{
		reg:      reg,
		notifier: progress.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs node within run. Dependencies are evaluated in declaration
// order and evaluation stops at the first unsatisfied one, in which case the
// job is never invoked and the node is recorded as skipped.
func (e *Executor) Execute(ctx context.Context, run *session.Session, node *model.Node) Outcome {
	id := node.InstanceID()
	ctx, logger := ctxlog.With(ctx, "node", id, "job", node.Name)
	out := Outcome{NodeID: id, Job: node.Name, StartedAt: e.now()}

	for _, dep := range node.DependsOn {
		ok, err := depcheck.Resolve(e.reg, dep).Satisfied(ctx, run, dep)
		if err != nil {
			logger.Warn("Dependency check failed, treating as unsatisfied.", "dependency", dep, "error", err)
		}
		if !ok {
			logger.Info("⏭️ Skipping node: dependency not satisfied.", "dependency", dep)
			out.Status = nodestore.StatusSkipped
			out.BlockedBy = dep
			out.Err = fmt.Errorf("%w: %s", ErrDependencyUnsatisfied, dep)
			if err != nil {
				out.Err = fmt.Errorf("%w: %s: %w", ErrDependencyUnsatisfied, dep, err)
			}
			e.record(ctx, run, &out)
			return out
		}
	}

	fn, ok := e.reg.Job(node.Name)
	if !ok {
		logger.Error("No job registered for node.")
		out.Status = nodestore.StatusFailed
		out.Err = fmt.Errorf("%w: %q", registry.ErrJobNotFound, node.Name)
		e.record(ctx, run, &out)
		return out
	}

	params := args.Merge(run, node)
	logger.Info("▶️ Running job.", "params", params)

	start := e.now()
	succeeded, err := invoke(ctx, fn, run.Region, params)
	out.Duration = e.now().Sub(start)

	switch {
	case err != nil:
		logger.Error("❌ Job raised an error.", "error", err, "duration", out.Duration)
		out.Status = nodestore.StatusFailed
		out.Err = err
	case !succeeded:
		logger.Warn("❌ Job reported failure.", "duration", out.Duration)
		out.Status = nodestore.StatusFailed
		out.Err = ErrJobReportedFailure
	default:
		logger.Info("✅ Job completed.", "duration", out.Duration)
		out.Status = nodestore.StatusSucceeded
	}

	e.record(ctx, run, &out)
	return out
}

// SkipSubtree records every descendant of node as skipped because node did
// not succeed. Outcomes are returned in execution order.
func (e *Executor) SkipSubtree(ctx context.Context, run *session.Session, node *model.Node) []Outcome {
	descendants := node.Descendants()
	if len(descendants) == 0 {
		return nil
	}
	parentID := node.InstanceID()
	ctxlog.FromContext(ctx).Info("⏭️ Skipping descendants.", "node", parentID, "count", len(descendants))

	outs := make([]Outcome, 0, len(descendants))
	for _, d := range descendants {
		out := Outcome{
			NodeID:    d.InstanceID(),
			Job:       d.Name,
			Status:    nodestore.StatusSkipped,
			BlockedBy: parentID,
			Err:       fmt.Errorf("%w: %s", ErrAncestorNotSucceeded, parentID),
			StartedAt: e.now(),
		}
		e.record(ctx, run, &out)
		outs = append(outs, out)
	}
	return outs
}

func (e *Executor) record(ctx context.Context, run *session.Session, out *Outcome) {
	logger := ctxlog.FromContext(ctx)
	if err := run.Status.SetStatus(ctx, out.NodeID, out.Status); err != nil {
		logger.Error("Failed to record node status.", "node", out.NodeID, "error", err)
	}
	if err := run.Status.SetError(ctx, out.NodeID, out.Err); err != nil {
		logger.Error("Failed to record node error.", "node", out.NodeID, "error", err)
	}

	e.metrics.ObserveNode(run.Workflow, out.Job, string(out.Status), out.Duration)
	e.notifier.NodeStatus(ctx, progress.NodeEvent{
		RunID:    run.ID,
		Workflow: run.Workflow,
		Region:   run.Region,
		NodeID:   out.NodeID,
		Job:      out.Job,
		Status:   string(out.Status),
		Error:    out.ErrorMessage(),
		Duration: out.Duration,
	})
}

// invoke calls fn and turns a panic into an error.
func invoke(ctx context.Context, fn registry.JobFunc, region model.Region, params args.Params) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Job panicked.", "panic", r, "stack", string(debug.Stack()))
			ok, err = false, fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return fn(ctx, region, params)
}
