package inmemorystore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/layergen/internal/nodestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetStatus(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Unrecorded ids are not run.
	status, err := s.GetStatus(ctx, "clip_lulc_v3")
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusNotRun, status)

	require.NoError(t, s.SetStatus(ctx, "clip_lulc_v3", nodestore.StatusSucceeded))

	status, err = s.GetStatus(ctx, "clip_lulc_v3")
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusSucceeded, status)
	assert.True(t, status.Satisfied())

	err = s.SetStatus(ctx, "clip_lulc_v3", nodestore.Status("done"))
	assert.ErrorContains(t, err, "invalid status")
}

func TestSatisfied(t *testing.T) {
	assert.True(t, nodestore.StatusSucceeded.Satisfied())
	assert.False(t, nodestore.StatusFailed.Satisfied())
	assert.False(t, nodestore.StatusSkipped.Satisfied())
	assert.False(t, nodestore.StatusNotRun.Satisfied())
}

func TestSetAndGetError(t *testing.T) {
	s := New()
	ctx := context.Background()

	retrievedErr, err := s.GetError(ctx, "terrain_raster")
	require.NoError(t, err)
	assert.Nil(t, retrievedErr)

	expectedErr := errors.New("a test error occurred")
	require.NoError(t, s.SetError(ctx, "terrain_raster", expectedErr))

	retrievedErr, err = s.GetError(ctx, "terrain_raster")
	require.NoError(t, err)
	assert.Equal(t, expectedErr, retrievedErr)

	require.NoError(t, s.SetError(ctx, "terrain_raster", nil))
	retrievedErr, err = s.GetError(ctx, "terrain_raster")
	require.NoError(t, err)
	assert.Nil(t, retrievedErr)
}

func TestSnapshot(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.SetStatus(ctx, "a", nodestore.StatusSucceeded))
	require.NoError(t, s.SetStatus(ctx, "b", nodestore.StatusSkipped))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]nodestore.Status{"a": nodestore.StatusSucceeded, "b": nodestore.StatusSkipped}, snap)

	snap["a"] = nodestore.StatusFailed
	status, _ := s.GetStatus(ctx, "a")
	assert.Equal(t, nodestore.StatusSucceeded, status, "snapshot must be a copy")
}

func TestStoresAreIndependent(t *testing.T) {
	ctx := context.Background()
	first, second := New(), New()
	require.NoError(t, first.SetStatus(ctx, "mws_layer", nodestore.StatusSucceeded))

	status, err := second.GetStatus(ctx, "mws_layer")
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusNotRun, status)
}

// TestStore_ConcurrentAccess verifies that the store can be safely accessed by
// multiple goroutines simultaneously without data races or lost writes.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	numGoroutines := 100
	var wg sync.WaitGroup

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("node_%d", i)
			assert.NoError(t, s.SetStatus(ctx, id, nodestore.StatusFailed))
			assert.NoError(t, s.SetError(ctx, id, fmt.Errorf("error for node %d", i)))
		}(i)
	}
	wg.Wait()

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("node_%d", i)

			status, err := s.GetStatus(ctx, id)
			assert.NoError(t, err)
			assert.Equal(t, nodestore.StatusFailed, status, "mismatched status for node %d", i)

			nodeErr, err := s.GetError(ctx, id)
			assert.NoError(t, err)
			assert.EqualError(t, nodeErr, fmt.Sprintf("error for node %d", i))
		}(i)
	}
	wg.Wait()

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap, numGoroutines)
}
