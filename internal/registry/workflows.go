package registry

import (
	"fmt"

	"github.com/specialistvlad/layergen/internal/model"
)

// SetCatalog replaces the workflows and end-year overrides.
func (r *Registry) SetCatalog(c *model.Catalog) {
	if c == nil {
		c = model.NewCatalog()
	}
	r.catalog = c
}

// Catalog returns the loaded catalog.
func (r *Registry) Catalog() *model.Catalog {
	return r.catalog
}

// Resolve looks up a workflow by name.
func (r *Registry) Resolve(name string) (*model.Workflow, error) {
	wf, ok := r.catalog.Workflow(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWorkflowNotFound, name)
	}
	return wf, nil
}

// EndYearOverrides returns the job name to end year table.
func (r *Registry) EndYearOverrides() map[string]int {
	return r.catalog.EndYearOverrides
}
