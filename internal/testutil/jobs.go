package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/specialistvlad/layergen/internal/args"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/registry"
)

// Call is one recorded job invocation.
type Call struct {
	Job    string
	Region model.Region
	Params args.Params
}

// Result scripts what a recorded job returns. The zero value succeeds.
type Result struct {
	Fail  bool
	Err   error
	Panic any
	// Hook runs before the job returns.
	Hook func(ctx context.Context)
}

// JobRecorder provides job functions that record their invocations.
type JobRecorder struct {
	mu      sync.Mutex
	calls   []Call
	results map[string]Result
}

// NewJobRecorder creates an empty recorder.
func NewJobRecorder() *JobRecorder {
	return &JobRecorder{results: make(map[string]Result)}
}

// Script sets the result of job name.
func (r *JobRecorder) Script(name string, res Result) *JobRecorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[name] = res
	return r
}

// Func returns a JobFunc for name.
func (r *JobRecorder) Func(name string) registry.JobFunc {
	return func(ctx context.Context, region model.Region, params args.Params) (bool, error) {
		r.mu.Lock()
		r.calls = append(r.calls, Call{Job: name, Region: region, Params: params.Clone()})
		res := r.results[name]
		r.mu.Unlock()

		if res.Hook != nil {
			res.Hook(ctx)
		}
		if res.Panic != nil {
			panic(res.Panic)
		}
		if res.Err != nil {
			return false, res.Err
		}
		return !res.Fail, nil
	}
}

// Register registers a recording job for every name.
func (r *JobRecorder) Register(reg *registry.Registry, names ...string) {
	for _, n := range names {
		reg.RegisterJob(n, r.Func(n))
	}
}

// Calls returns every invocation in order.
func (r *JobRecorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Names returns the job names in invocation order.
func (r *JobRecorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		names = append(names, c.Job)
	}
	return names
}

// CatalogJobs returns the distinct job names used by every workflow of c.
func CatalogJobs(c *model.Catalog) []string {
	seen := make(map[string]bool)
	var names []string
	for _, wf := range c.Workflows {
		wf.Walk(func(n, _ *model.Node) bool {
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
			return true
		})
	}
	sort.Strings(names)
	return names
}
