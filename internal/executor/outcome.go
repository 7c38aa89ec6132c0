package executor

import (
	"errors"
	"time"

	"github.com/specialistvlad/layergen/internal/nodestore"
)

var (
	// ErrDependencyUnsatisfied marks nodes skipped because of depends_on.
	ErrDependencyUnsatisfied = errors.New("dependency not satisfied")
	// ErrAncestorNotSucceeded marks nodes skipped because an ancestor did
	// not succeed.
	ErrAncestorNotSucceeded = errors.New("ancestor did not succeed")
	// ErrJobReportedFailure is recorded when a job returns false.
	ErrJobReportedFailure = errors.New("job reported failure")
	// ErrJobPanicked is recorded when a job panics.
	ErrJobPanicked = errors.New("job panicked")
)

// Outcome is the result of executing or skipping one node.
type Outcome struct {
	NodeID string
	Job    string
	Status nodestore.Status
	// Err explains every status other than succeeded.
	Err error
	// BlockedBy names the dependency or ancestor that prevented the run.
	BlockedBy string
	StartedAt time.Time
	Duration  time.Duration
}

// ErrorMessage returns Err as a string, or "" when there is no error.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
