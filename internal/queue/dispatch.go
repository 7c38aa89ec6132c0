// Package queue carries run requests over Kafka. A Producer publishes
// dispatches; a Worker consumes them, runs them through the orchestrator and
// publishes the resulting summaries.
package queue

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/session"
)

// ErrInvalidDispatch is wrapped by every decoding or validation error.
var ErrInvalidDispatch = errors.New("invalid dispatch")

// Kind selects what a dispatch runs.
type Kind string

const (
	KindWorkflow Kind = "workflow"
	KindJob      Kind = "job"
)

// AccountID is the compute account a run is billed to. It decodes from both
// JSON strings and JSON numbers.
type AccountID string

func (a *AccountID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AccountID(s)
		return nil
	}
	if _, err := strconv.ParseInt(string(b), 10, 64); err != nil {
		return fmt.Errorf("account_id must be a string or an integer, got %s", b)
	}
	*a = AccountID(b)
	return nil
}

// Dispatch is one run request on the dispatch topic.
type Dispatch struct {
	Kind         Kind      `json:"kind,omitempty"`
	RunID        string    `json:"run_id,omitempty"`
	State        string    `json:"state"`
	District     string    `json:"district"`
	Block        string    `json:"block"`
	WorkflowName string    `json:"workflow_name,omitempty"`
	JobName      string    `json:"job_name,omitempty"`
	AccountID    AccountID `json:"account_id"`
	StartYear    *int      `json:"start_year,omitempty"`
	EndYear      *int      `json:"end_year,omitempty"`
}

// Decode parses and validates a dispatch. A missing kind means workflow.
func Decode(b []byte) (Dispatch, error) {
	var d Dispatch
	if err := json.Unmarshal(b, &d); err != nil {
		return Dispatch{}, fmt.Errorf("%w: %w", ErrInvalidDispatch, err)
	}
	if d.Kind == "" {
		d.Kind = KindWorkflow
	}
	if err := d.Validate(); err != nil {
		return Dispatch{}, err
	}
	return d, nil
}

// Validate checks that d names something to run and a full region.
func (d Dispatch) Validate() error {
	switch d.Kind {
	case KindWorkflow:
		if d.WorkflowName == "" {
			return fmt.Errorf("%w: workflow dispatch without workflow_name", ErrInvalidDispatch)
		}
	case KindJob:
		if d.JobName == "" {
			return fmt.Errorf("%w: job dispatch without job_name", ErrInvalidDispatch)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDispatch, d.Kind)
	}
	if err := d.Region().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDispatch, err)
	}
	if d.StartYear != nil && d.EndYear != nil && *d.StartYear > *d.EndYear {
		return fmt.Errorf("%w: start_year %d is after end_year %d", ErrInvalidDispatch, *d.StartYear, *d.EndYear)
	}
	return nil
}

// Region returns the target region.
func (d Dispatch) Region() model.Region {
	return model.Region{State: d.State, District: d.District, Block: d.Block}
}

// Globals returns the run-wide years.
func (d Dispatch) Globals() session.GlobalArgs {
	return session.GlobalArgs{StartYear: d.StartYear, EndYear: d.EndYear}
}

// Target is the workflow or job name, depending on kind.
func (d Dispatch) Target() string {
	if d.Kind == KindJob {
		return d.JobName
	}
	return d.WorkflowName
}
