package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/dag"
	"github.com/specialistvlad/layergen/internal/model"
	"go.uber.org/multierr"
)

const (
	minEndYear = 1900
	maxEndYear = 2100
)

// Validate checks the loaded workflows against the registered jobs and
// predicates. Every problem is reported, not only the first one.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs error

	seen := make(map[string]bool)
	for _, wf := range r.catalog.Workflows {
		if seen[wf.Name] {
			errs = multierr.Append(errs, fmt.Errorf("%s: workflow %q declared more than once", wf.DeclRange, wf.Name))
			continue
		}
		seen[wf.Name] = true
		errs = multierr.Append(errs, r.validateWorkflow(wf))
	}

	for _, c := range r.catalog.OverrideConflicts {
		errs = multierr.Append(errs, fmt.Errorf("%s: end year override for %q already declared at %s", c.Conflict, c.Job, c.First))
	}
	for job, year := range r.catalog.EndYearOverrides {
		if _, ok := r.jobs[job]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("end year override: unknown job %q", job))
		}
		if year < minEndYear || year > maxEndYear {
			errs = multierr.Append(errs, fmt.Errorf("end year override for %q: year %d out of range [%d, %d]", job, year, minEndYear, maxEndYear))
		}
	}

	if errs != nil {
		return fmt.Errorf("registry validation failed: %w", errs)
	}

	logger.Debug("Registry validation passed.",
		"workflows", len(r.catalog.Workflows),
		"jobs", len(r.jobs),
		"predicates", len(r.predicates))
	return nil
}

func (r *Registry) validateWorkflow(wf *model.Workflow) error {
	var errs error
	if len(wf.Nodes) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s: workflow %q has no nodes", wf.DeclRange, wf.Name))
	}

	// Pre-order position is the execution order of a fully successful run.
	position := make(map[string]int)
	var nodes []*model.Node
	var parents []*model.Node
	wf.Walk(func(n *model.Node, parent *model.Node) bool {
		id := n.InstanceID()
		if _, dup := position[id]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: workflow %q: duplicate node id %q", n.DeclRange, wf.Name, id))
			return true
		}
		position[id] = len(nodes)
		nodes = append(nodes, n)
		parents = append(parents, parent)
		if _, ok := r.jobs[n.Name]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: workflow %q: %w: %q", n.DeclRange, wf.Name, ErrJobNotFound, n.Name))
		}
		return true
	})

	g := dag.New()
	for _, n := range nodes {
		g.AddNode(n.InstanceID())
	}

	for i, n := range nodes {
		id := n.InstanceID()
		if p := parents[i]; p != nil {
			errs = multierr.Append(errs, g.AddEdge(p.InstanceID(), id))
		}
		for _, dep := range n.DependsOn {
			if _, ok := r.predicates[dep]; ok {
				continue
			}
			pos, ok := position[dep]
			switch {
			case !ok:
				errs = multierr.Append(errs, fmt.Errorf("%s: workflow %q: node %q depends on unknown %q", n.DeclRange, wf.Name, id, dep))
				continue
			case pos >= i:
				errs = multierr.Append(errs, fmt.Errorf("%s: workflow %q: node %q depends on %q which runs later", n.DeclRange, wf.Name, id, dep))
			}
			if dep != id {
				errs = multierr.Append(errs, g.AddEdge(dep, id))
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("workflow %q: %w", wf.Name, err))
	}
	return errs
}
