package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/specialistvlad/layergen/internal/args"
	"github.com/specialistvlad/layergen/internal/depcheck"
	"github.com/specialistvlad/layergen/internal/model"
)

var (
	// ErrWorkflowNotFound is returned by Resolve for unknown workflow names.
	ErrWorkflowNotFound = errors.New("workflow not found")
	// ErrJobNotFound is returned when a node names a job nobody registered.
	ErrJobNotFound = errors.New("job not found")
)

// JobFunc runs one job synchronously for a region. A false result without
// an error means the job completed but reported failure.
type JobFunc func(ctx context.Context, region model.Region, params args.Params) (bool, error)

// Module is the interface that all job modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered jobs, predicates and workflows for a single
// application instance. It is populated at startup and read-only afterwards.
type Registry struct {
	jobs       map[string]JobFunc
	predicates map[string]depcheck.Predicate
	catalog    *model.Catalog
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		jobs:       make(map[string]JobFunc),
		predicates: make(map[string]depcheck.Predicate),
		catalog:    model.NewCatalog(),
	}
}

// RegisterJob registers the Go function behind a job name.
func (r *Registry) RegisterJob(name string, fn JobFunc) {
	if fn == nil {
		panic(fmt.Sprintf("job '%s' registered with a nil function", name))
	}
	if _, exists := r.jobs[name]; exists {
		panic(fmt.Sprintf("job with name '%s' already registered", name))
	}
	slog.Debug("Registering job.", "name", name)
	r.jobs[name] = fn
}

// RegisterPredicate binds a dependency name to an external condition.
func (r *Registry) RegisterPredicate(name string, p depcheck.Predicate) {
	if p == nil {
		panic(fmt.Sprintf("predicate '%s' registered as nil", name))
	}
	if _, exists := r.predicates[name]; exists {
		panic(fmt.Sprintf("predicate with name '%s' already registered", name))
	}
	slog.Debug("Registering dependency predicate.", "name", name)
	r.predicates[name] = p
}

// Job returns the function registered for name.
func (r *Registry) Job(name string) (JobFunc, bool) {
	fn, ok := r.jobs[name]
	return fn, ok
}

// Predicate returns the predicate registered for a dependency name.
func (r *Registry) Predicate(name string) (depcheck.Predicate, bool) {
	p, ok := r.predicates[name]
	return p, ok
}

// JobNames returns every registered job name, sorted.
func (r *Registry) JobNames() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PredicateNames returns every registered predicate name, sorted.
func (r *Registry) PredicateNames() []string {
	names := make([]string, 0, len(r.predicates))
	for name := range r.predicates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
