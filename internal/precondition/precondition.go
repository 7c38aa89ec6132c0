// Package precondition verifies, once per run, that the foundational layer a
// workflow builds upon has already been published for the run's region.
package precondition

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/layerstore"
	"github.com/specialistvlad/layergen/internal/model"
)

// ErrPreconditionFailed is wrapped by every error Check returns.
var ErrPreconditionFailed = errors.New("precondition failed")

// Error describes why a run may not start. Reason is the human-readable
// message reported in the run summary.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Reason
}

// Unwrap returns the sentinel and the underlying cause, if any.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPreconditionFailed}
	}
	return []error{ErrPreconditionFailed, e.Err}
}

// Checker queries the layer store for the foundation layer.
type Checker struct {
	layers layerstore.Store
}

// New creates a Checker.
func New(layers layerstore.Store) *Checker {
	return &Checker{layers: layers}
}

// Check returns nil when wf may run for region. Workflows that do not
// require the foundation layer never touch the store.
func (c *Checker) Check(ctx context.Context, wf *model.Workflow, region model.Region) error {
	if !wf.RequiresFoundation {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	name := region.FoundationLayerName()

	if c.layers == nil {
		return &Error{Reason: fmt.Sprintf("cannot check mws layer for %s_%s: no layer store configured", region.District, region.Block)}
	}

	layer, err := c.layers.LatestLayer(ctx, name)
	switch {
	case errors.Is(err, layerstore.ErrLayerNotFound):
		logger.Warn("Foundation layer missing.", "layer", name)
		return &Error{Reason: fmt.Sprintf("check mws layer for %s_%s", region.District, region.Block), Err: err}
	case err != nil:
		logger.Error("Foundation layer lookup failed.", "layer", name, "error", err)
		return &Error{Reason: fmt.Sprintf("exception occurred while checking mws for %s_%s: %v", region.District, region.Block, err), Err: err}
	}

	logger.Debug("Foundation layer present.", "layer", layer.Name, "version", layer.Version)
	return nil
}
