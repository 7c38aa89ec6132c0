// Package layerstore reads the published-layer records that the
// orchestrator consults before and during a run.
package layerstore

import (
	"context"
	"errors"
)

// ErrLayerNotFound is returned when no layer matches a lookup.
var ErrLayerNotFound = errors.New("layer not found")

// Layer is one published layer record.
type Layer struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"layer_name" json:"layer_name"`
	Version string `db:"layer_version" json:"layer_version"`
}

// Store is the read side of the persistence layer.
type Store interface {
	// LatestLayer returns the most recently inserted record of the layer with
	// exactly this name, or ErrLayerNotFound. Versions are free-form strings
	// and are never compared.
	LatestLayer(ctx context.Context, name string) (*Layer, error)

	// CountLayersContaining counts layers whose name contains fragment,
	// ignoring case.
	CountLayersContaining(ctx context.Context, fragment string) (int, error)
}
