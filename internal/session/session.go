// Package session defines the explicit context of one orchestration run. A
// Session is threaded through every call that needs run-wide state, so no
// component keeps mutable state of its own between runs.
package session

import (
	"context"
	"errors"

	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/nodestore"
)

// GlobalArgs are the caller-supplied parameters shared by every node that
// opts in with use_global_args.
type GlobalArgs struct {
	StartYear *int `json:"start_year,omitempty"`
	EndYear   *int `json:"end_year,omitempty"`
}

// Spec describes the run a Factory should prepare.
type Spec struct {
	// RunID is generated when empty.
	RunID     string
	Workflow  string
	Region    model.Region
	AccountID string
	Globals   GlobalArgs
	// EndYearOverrides is read-only for the duration of the run.
	EndYearOverrides map[string]int
}

// Session is the RunContext of a single orchestration run.
type Session struct {
	ID               string
	Workflow         string
	Region           model.Region
	AccountID        string
	Globals          GlobalArgs
	EndYearOverrides map[string]int

	// Status is owned by this session and never shared.
	Status nodestore.Store
}

// Factory creates sessions. Different implementations can back the status
// table with different stores.
type Factory interface {
	NewSession(ctx context.Context, spec Spec) (*Session, error)
}

// ErrNoStatusTable is returned when a session is used without a store.
var ErrNoStatusTable = errors.New("session has no status table")

// Validate checks that the session can be executed.
func (s *Session) Validate() error {
	if s.Status == nil {
		return ErrNoStatusTable
	}
	return s.Region.Validate()
}
