// Package localsession provides the session.Factory used for in-process
// runs. Every session gets its own in-memory status table.
package localsession

import (
	"context"
	"maps"

	"github.com/google/uuid"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/inmemorystore"
	"github.com/specialistvlad/layergen/internal/session"
)

// Factory implements session.Factory for local runs.
type Factory struct{}

// New returns a local session factory.
func New() *Factory {
	return &Factory{}
}

// NewSession creates a session with a fresh status table.
func (f *Factory) NewSession(ctx context.Context, spec session.Spec) (*session.Session, error) {
	id := spec.RunID
	if id == "" {
		id = uuid.NewString()
	}

	s := &session.Session{
		ID:               id,
		Workflow:         spec.Workflow,
		Region:           spec.Region,
		AccountID:        spec.AccountID,
		Globals:          spec.Globals,
		EndYearOverrides: maps.Clone(spec.EndYearOverrides),
		Status:           inmemorystore.New(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Local session created.", "run_id", s.ID, "workflow", s.Workflow)
	return s, nil
}
