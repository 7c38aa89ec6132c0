package integration_tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/specialistvlad/layergen/internal/app"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/orchestrator"
	"github.com/specialistvlad/layergen/internal/registry"
	"github.com/specialistvlad/layergen/internal/session"
	"github.com/specialistvlad/layergen/internal/testutil"
	"github.com/specialistvlad/layergen/modules/compute"
)

var jamui = model.Region{State: "Bihar", District: "Jamui", Block: "Barhat"}

type recorderModule struct {
	jobs *testutil.JobRecorder
}

func (m recorderModule) Register(r *registry.Registry) {
	m.jobs.Register(r, compute.Pipelines...)
}

// withFoundation returns a layer store holding the region's micro-watershed
// layer and lulcLayers land-use class layers.
func withFoundation(region model.Region, lulcLayers int) *testutil.FakeLayerStore {
	s := testutil.NewFakeLayerStore(region.FoundationLayerName())
	for i := 0; i < lulcLayers; i++ {
		s.Add(fmt.Sprintf("lulc%s%d", region.BlockLevelFragment(), i), "1")
	}
	return s
}

type result struct {
	Summary *orchestrator.Summary
	Jobs    *testutil.JobRecorder
	Logs    *testutil.SafeBuffer
}

// runWorkflow runs workflow for jamui with every year set.
func runWorkflow(t *testing.T, workflow string, layers *testutil.FakeLayerStore, jobs *testutil.JobRecorder) result {
	t.Helper()
	a, logs := app.SetupAppTest(t, nil, layers, recorderModule{jobs})

	start, end := 2017, 2024
	sum := a.Run(context.Background(), orchestrator.Request{
		Workflow:  workflow,
		Region:    jamui,
		AccountID: "7",
		Globals:   session.GlobalArgs{StartYear: &start, EndYear: &end},
	})
	return result{Summary: sum, Jobs: jobs, Logs: logs}
}

// callFor returns the first recorded call of job.
func callFor(t *testing.T, jobs *testutil.JobRecorder, job string) testutil.Call {
	t.Helper()
	for _, c := range jobs.Calls() {
		if c.Job == job {
			return c
		}
	}
	t.Fatalf("job %s was never called", job)
	return testutil.Call{}
}

