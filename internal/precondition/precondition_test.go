package precondition

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/layergen/internal/layerstore"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLayers struct {
	layers  map[string]*layerstore.Layer
	err     error
	queried []string
}

func (f *fakeLayers) LatestLayer(ctx context.Context, name string) (*layerstore.Layer, error) {
	f.queried = append(f.queried, name)
	if f.err != nil {
		return nil, f.err
	}
	if l, ok := f.layers[name]; ok {
		return l, nil
	}
	return nil, layerstore.ErrLayerNotFound
}

func (f *fakeLayers) CountLayersContaining(ctx context.Context, fragment string) (int, error) {
	return 0, nil
}

var region = model.Region{State: "Bihar", District: "Jamui", Block: "Barhat"}

func TestCheck_NotRequired(t *testing.T) {
	store := &fakeLayers{}
	err := New(store).Check(context.Background(), &model.Workflow{Name: "map_1"}, region)
	require.NoError(t, err)
	assert.Empty(t, store.queried)
}

func TestCheck_Present(t *testing.T) {
	store := &fakeLayers{layers: map[string]*layerstore.Layer{
		"mws_jamui_barhat": {ID: 1, Name: "mws_jamui_barhat", Version: "1"},
	}}
	err := New(store).Check(context.Background(), &model.Workflow{Name: "map_2", RequiresFoundation: true}, region)
	require.NoError(t, err)
	assert.Equal(t, []string{"mws_jamui_barhat"}, store.queried)
}

func TestCheck_Missing(t *testing.T) {
	store := &fakeLayers{}
	err := New(store).Check(context.Background(), &model.Workflow{Name: "map_3", RequiresFoundation: true}, region)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.ErrorIs(t, err, layerstore.ErrLayerNotFound)
	assert.EqualError(t, err, "check mws layer for Jamui_Barhat")
}

func TestCheck_QueryError(t *testing.T) {
	boom := errors.New("connection refused")
	store := &fakeLayers{err: boom}
	err := New(store).Check(context.Background(), &model.Workflow{Name: "map_4", RequiresFoundation: true}, region)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Jamui_Barhat")
	assert.Contains(t, err.Error(), "connection refused")

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, err.Error(), perr.Reason)
}

func TestCheck_NoStore(t *testing.T) {
	err := New(nil).Check(context.Background(), &model.Workflow{Name: "map_2", RequiresFoundation: true}, region)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}
