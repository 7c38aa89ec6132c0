package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/specialistvlad/layergen/internal/layerstore"
)

// FakeLayerStore is an in-memory layerstore.Store.
type FakeLayerStore struct {
	mu     sync.Mutex
	layers []layerstore.Layer
	// Err, when set, is returned by every query.
	Err error
	// Queries counts calls per method name.
	Queries map[string]int
}

// NewFakeLayerStore creates a store holding the named layers at version "1".
func NewFakeLayerStore(names ...string) *FakeLayerStore {
	s := &FakeLayerStore{Queries: make(map[string]int)}
	for _, n := range names {
		s.Add(n, "1")
	}
	return s
}

// Add publishes a layer.
func (s *FakeLayerStore) Add(name, version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, layerstore.Layer{ID: int64(len(s.layers) + 1), Name: name, Version: version})
}

// LatestLayer implements layerstore.Store.
func (s *FakeLayerStore) LatestLayer(ctx context.Context, name string) (*layerstore.Layer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("LatestLayer")
	if s.Err != nil {
		return nil, s.Err
	}
	var latest *layerstore.Layer
	for i := range s.layers {
		l := s.layers[i]
		if l.Name == name && (latest == nil || l.Version >= latest.Version) {
			latest = &l
		}
	}
	if latest == nil {
		return nil, layerstore.ErrLayerNotFound
	}
	return latest, nil
}

// CountLayersContaining implements layerstore.Store.
func (s *FakeLayerStore) CountLayersContaining(ctx context.Context, fragment string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("CountLayersContaining")
	if s.Err != nil {
		return 0, s.Err
	}
	n := 0
	for _, l := range s.layers {
		if strings.Contains(strings.ToLower(l.Name), strings.ToLower(fragment)) {
			n++
		}
	}
	return n, nil
}

func (s *FakeLayerStore) count(method string) {
	if s.Queries == nil {
		s.Queries = make(map[string]int)
	}
	s.Queries[method]++
}
