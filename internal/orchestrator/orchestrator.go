// Package orchestrator runs one workflow for one region from start to end.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/executor"
	"github.com/specialistvlad/layergen/internal/localsession"
	"github.com/specialistvlad/layergen/internal/metrics"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/nodestore"
	"github.com/specialistvlad/layergen/internal/progress"
	"github.com/specialistvlad/layergen/internal/registry"
	"github.com/specialistvlad/layergen/internal/session"
)

// ErrInvalidRequest is returned through Summary.Err for malformed requests.
var ErrInvalidRequest = errors.New("invalid run request")

// Registry resolves workflows and the jobs they name.
type Registry interface {
	executor.Registry
	Resolve(name string) (*model.Workflow, error)
	EndYearOverrides() map[string]int
}

// Checker decides whether a workflow may start for a region.
type Checker interface {
	Check(ctx context.Context, wf *model.Workflow, region model.Region) error
}

// Request asks for one run.
type Request struct {
	// RunID is generated when empty.
	RunID     string
	Workflow  string
	Region    model.Region
	AccountID string
	Globals   session.GlobalArgs
}

// Orchestrator runs workflows. It holds no per-run state and may be used by
// several goroutines at once.
type Orchestrator struct {
	reg      Registry
	checker  Checker
	sessions session.Factory
	exec     *executor.Executor
	metrics  *metrics.Metrics
	notifier progress.Notifier
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSessionFactory replaces the local in-memory session factory.
func WithSessionFactory(f session.Factory) Option {
	return func(o *Orchestrator) { o.sessions = f }
}

// WithMetrics records run and node metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithNotifier publishes progress events through n.
func WithNotifier(n progress.Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator. checker may be nil when no workflow requires
// a foundation layer.
func New(reg Registry, checker Checker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reg:      reg,
		checker:  checker,
		sessions: localsession.New(),
		notifier: progress.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.exec = executor.New(reg,
		executor.WithMetrics(o.metrics),
		executor.WithNotifier(o.notifier),
		executor.WithClock(o.now))
	return o
}

// Run executes req and reports what happened. Run never fails: problems are
// described by the summary's status and reason, and Summary.Err converts
// them back into errors for callers that want one.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Summary {
	return o.run(ctx, req, func() (*model.Workflow, error) {
		return o.reg.Resolve(req.Workflow)
	})
}

// RunJob runs a single registered job for a region as if it were a workflow
// with one node that uses the global args. req.Workflow is ignored.
func (o *Orchestrator) RunJob(ctx context.Context, job string, req Request) *Summary {
	req.Workflow = job
	return o.run(ctx, req, func() (*model.Workflow, error) {
		if _, ok := o.reg.Job(job); !ok {
			return nil, fmt.Errorf("%w: %q", registry.ErrJobNotFound, job)
		}
		return &model.Workflow{
			Name:  job,
			Nodes: []*model.Node{{Name: job, UseGlobalArgs: true, StaticArgs: map[string]any{}}},
		}, nil
	})
}

func (o *Orchestrator) run(ctx context.Context, req Request, resolve func() (*model.Workflow, error)) *Summary {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	sum := &Summary{
		RunID:     req.RunID,
		Workflow:  req.Workflow,
		Region:    req.Region,
		StartedAt: o.now(),
	}
	ctx, logger := ctxlog.With(ctx, "run_id", req.RunID, "workflow", req.Workflow, "region", req.Region.String())

	o.metrics.RunStarted()
	defer o.finish(ctx, sum)

	wf, err := resolve()
	if err != nil {
		o.abort(ctx, sum, err.Error(), err)
		return sum
	}
	if err := req.Region.Validate(); err != nil {
		o.abort(ctx, sum, err.Error(), fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return sum
	}

	if o.checker != nil {
		if err := o.checker.Check(ctx, wf, req.Region); err != nil {
			o.abort(ctx, sum, err.Error(), err)
			return sum
		}
	}

	run, err := o.sessions.NewSession(ctx, session.Spec{
		RunID:            req.RunID,
		Workflow:         wf.Name,
		Region:           req.Region,
		AccountID:        req.AccountID,
		Globals:          req.Globals,
		EndYearOverrides: o.reg.EndYearOverrides(),
	})
	if err != nil {
		o.abort(ctx, sum, err.Error(), fmt.Errorf("failed to create session: %w", err))
		return sum
	}
	sum.RunID = run.ID
	logger.Info("🚀 Starting workflow run.", "account_id", req.AccountID)

	timings := make(map[string]executor.Outcome)
	complete := o.walk(ctx, run, wf.Nodes, timings)
	sum.Nodes = o.results(ctx, run, wf, timings)

	if !complete {
		sum.Status = StatusCancelled
		sum.Reason = context.Cause(ctx).Error()
		sum.err = ctx.Err()
		logger.Warn("Workflow run cancelled.", "reason", sum.Reason, "not_run", sum.Count(nodestore.StatusNotRun))
		return sum
	}

	sum.Status = StatusCompleted
	logger.Info("🏁 Workflow run finished.",
		"succeeded", sum.Count(nodestore.StatusSucceeded),
		"failed", sum.Count(nodestore.StatusFailed),
		"skipped", sum.Count(nodestore.StatusSkipped))
	return sum
}

// walk executes nodes in order and descends into the children of every node
// whose recorded status lets dependents run. It returns false when ctx ended
// at a node boundary with nodes still left to run.
func (o *Orchestrator) walk(ctx context.Context, run *session.Session, nodes []*model.Node, timings map[string]executor.Outcome) bool {
	for _, n := range nodes {
		if ctx.Err() != nil {
			return false
		}
		out := o.exec.Execute(ctx, run, n)
		timings[out.NodeID] = out

		status, err := run.Status.GetStatus(context.WithoutCancel(ctx), out.NodeID)
		if err != nil {
			ctxlog.FromContext(ctx).Error("Failed to read node status.", "node", out.NodeID, "error", err)
		}
		if status.Satisfied() {
			if !o.walk(ctx, run, n.Children, timings) {
				return false
			}
			continue
		}
		for _, skipped := range o.exec.SkipSubtree(ctx, run, n) {
			timings[skipped.NodeID] = skipped
		}
	}
	return true
}

// results reads the final status table of run in declaration order. Ids the
// table never recorded are reported as not_run. timings only contributes
// durations and the blocking dependency.
func (o *Orchestrator) results(ctx context.Context, run *session.Session, wf *model.Workflow, timings map[string]executor.Outcome) []NodeResult {
	ctx = context.WithoutCancel(ctx)
	logger := ctxlog.FromContext(ctx)

	statuses, err := run.Status.Snapshot(ctx)
	if err != nil {
		logger.Error("Failed to read status table.", "error", err)
	}

	var out []NodeResult
	wf.Walk(func(n *model.Node, _ *model.Node) bool {
		id := n.InstanceID()
		r := NodeResult{ID: id, Job: n.Name, Status: nodestore.StatusNotRun}
		if st, ok := statuses[id]; ok {
			r.Status = st
		}
		nodeErr, err := run.Status.GetError(ctx, id)
		if err != nil {
			logger.Error("Failed to read node error.", "node", id, "error", err)
		}
		if nodeErr != nil {
			r.Error = nodeErr.Error()
		}
		if t, ok := timings[id]; ok {
			r.BlockedBy = t.BlockedBy
			r.DurationMS = t.Duration.Milliseconds()
		}
		out = append(out, r)
		return true
	})
	return out
}

func (o *Orchestrator) abort(ctx context.Context, sum *Summary, reason string, err error) {
	ctxlog.FromContext(ctx).Error("Workflow run aborted.", "reason", reason)
	sum.Status = StatusAborted
	sum.Reason = reason
	sum.err = err
}

func (o *Orchestrator) finish(ctx context.Context, sum *Summary) {
	sum.FinishedAt = o.now()
	ctxlog.FromContext(ctx).Debug("Run summary ready.", "status", sum.Status, "duration", sum.Duration())
	o.metrics.RunFinished(sum.Workflow, string(sum.Status))

	nodes := make(map[string]string, len(sum.Nodes))
	for _, n := range sum.Nodes {
		nodes[n.ID] = string(n.Status)
	}
	o.notifier.RunFinished(ctx, progress.RunEvent{
		RunID:    sum.RunID,
		Workflow: sum.Workflow,
		Region:   sum.Region,
		Status:   string(sum.Status),
		Reason:   sum.Reason,
		Nodes:    nodes,
	})
}
