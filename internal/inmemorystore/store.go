package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/layergen/internal/nodestore"
)

// Store is an in-memory implementation of nodestore.Store using sync.Map
// for concurrent access without a global lock.
type Store struct {
	states sync.Map // Key: instance id, Value: nodestore.Status
	errors sync.Map // Key: instance id, Value: error
}

// New creates a new, empty in-memory status table.
func New() nodestore.Store {
	return &Store{}
}

// SetStatus records the status of a node instance.
func (s *Store) SetStatus(ctx context.Context, id string, status nodestore.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q for %s", status, id)
	}
	s.states.Store(id, status)
	return nil
}

// GetStatus retrieves the status of a node instance.
// If a status has not been set, it returns StatusNotRun.
func (s *Store) GetStatus(ctx context.Context, id string) (nodestore.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return nodestore.StatusNotRun, nil
	}
	return status.(nodestore.Status), nil
}

// SetError records the failure reason of a node instance.
func (s *Store) SetError(ctx context.Context, id string, nodeErr error) error {
	if nodeErr == nil {
		s.errors.Delete(id)
		return nil
	}
	s.errors.Store(id, nodeErr)
	return nil
}

// GetError retrieves the recorded failure reason of a node instance.
func (s *Store) GetError(ctx context.Context, id string) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}

// Snapshot returns a copy of every recorded status.
func (s *Store) Snapshot(ctx context.Context) (map[string]nodestore.Status, error) {
	out := make(map[string]nodestore.Status)
	s.states.Range(func(k, v any) bool {
		out[k.(string)] = v.(nodestore.Status)
		return true
	})
	return out, nil
}
