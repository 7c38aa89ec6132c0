// Package depcheck decides whether a declared dependency of a node is
// satisfied. Every dependency name resolves to a Predicate: names of nodes
// in the same run use StatusSucceeded, while names bound to external
// conditions use a predicate registered under that name.
package depcheck

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layergen/internal/layerstore"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/session"
)

// LULCLayerCount is the number of per-class land-use layers a block has
// once land-use clipping completed.
const LULCLayerCount = 21

// Predicate evaluates one dependency within a run.
type Predicate interface {
	Satisfied(ctx context.Context, run *session.Session, dep string) (bool, error)
}

// PredicateFunc adapts a function to Predicate.
type PredicateFunc func(ctx context.Context, run *session.Session, dep string) (bool, error)

// Satisfied calls f.
func (f PredicateFunc) Satisfied(ctx context.Context, run *session.Session, dep string) (bool, error) {
	return f(ctx, run, dep)
}

// StatusSucceeded is satisfied when the node instance named by the
// dependency succeeded earlier in the same run.
type StatusSucceeded struct{}

// Satisfied implements Predicate.
func (StatusSucceeded) Satisfied(ctx context.Context, run *session.Session, dep string) (bool, error) {
	status, err := run.Status.GetStatus(ctx, dep)
	if err != nil {
		return false, fmt.Errorf("failed to read status of %s: %w", dep, err)
	}
	return status.Satisfied(), nil
}

// LayerCount is satisfied when exactly Expected layers contain the fragment
// derived from the run's region.
type LayerCount struct {
	Layers   layerstore.Store
	Fragment func(model.Region) string
	Expected int
}

// NewLULCLayerCount checks that every land-use class layer of the run's
// block has been published.
func NewLULCLayerCount(layers layerstore.Store) *LayerCount {
	return &LayerCount{
		Layers:   layers,
		Fragment: model.Region.BlockLevelFragment,
		Expected: LULCLayerCount,
	}
}

// Satisfied implements Predicate.
func (p *LayerCount) Satisfied(ctx context.Context, run *session.Session, dep string) (bool, error) {
	if p.Layers == nil {
		return false, fmt.Errorf("no layer store configured for %s", dep)
	}
	fragment := p.Fragment(run.Region)
	n, err := p.Layers.CountLayersContaining(ctx, fragment)
	if err != nil {
		return false, err
	}
	return n == p.Expected, nil
}

// Resolver maps dependency names to predicates.
type Resolver interface {
	Predicate(name string) (Predicate, bool)
}

// Resolve returns the predicate registered for dep, or StatusSucceeded.
func Resolve(r Resolver, dep string) Predicate {
	if r != nil {
		if p, ok := r.Predicate(dep); ok {
			return p
		}
	}
	return StatusSucceeded{}
}
