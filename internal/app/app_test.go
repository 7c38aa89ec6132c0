package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/orchestrator"
	"github.com/specialistvlad/layergen/internal/registry"
	"github.com/specialistvlad/layergen/internal/testutil"
	"github.com/specialistvlad/layergen/modules/compute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jamui = orchestrator.Request{
	Region:    model.Region{State: "Bihar", District: "Jamui", Block: "Barhat"},
	AccountID: "7",
}

type recorderModule struct {
	jobs *testutil.JobRecorder
}

func (m recorderModule) Register(r *registry.Registry) {
	m.jobs.Register(r, compute.Pipelines...)
}

func TestNewConfig(t *testing.T) {
	valid := DefaultConfig()
	cfg, err := NewConfig(valid)
	require.NoError(t, err)
	assert.Equal(t, valid, *cfg)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"negative timeout", func(c *Config) { c.RunTimeout = -time.Second }, "run_timeout"},
		{"zero poll", func(c *Config) { c.ComputePollInterval = 0 }, "compute_poll_interval"},
		{"port range", func(c *Config) { c.HealthcheckPort = 70000 }, "healthcheck_port"},
		{"no compute url", func(c *Config) { c.ComputeURL = "" }, "compute_url"},
		{"no table", func(c *Config) { c.LayerTable = "" }, "layer_table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			_, err := NewConfig(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfig_ReportsEveryProblem(t *testing.T) {
	c := DefaultConfig()
	c.LogLevel = "loud"
	c.Workers = -1
	_, err := NewConfig(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "workers")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layergen.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level     = "debug"
kafka_brokers = ["k1:9092", "k2:9092"]
workers       = 8
run_timeout   = "2h"
mysql_dsn     = "user:pass@tcp(db:3306)/nrm"
`), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, LoadConfigFile(path, &cfg))
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2*time.Hour, cfg.RunTimeout)
	assert.Equal(t, "computing_layer", cfg.LayerTable, "defaults survive")

	require.NoError(t, os.WriteFile(path, []byte(`wokers = 8`), 0o644))
	err := LoadConfigFile(path, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wokers")

	assert.Error(t, LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), &cfg))
}

func TestNewApp_DefaultModulesValidate(t *testing.T) {
	a, _ := SetupAppTest(t, nil, nil)
	assert.Equal(t, []string{"map_1", "map_2", "map_3", "map_4"}, a.Registry().Catalog().WorkflowNames())
	_, ok := a.Registry().Predicate(lulcDependency)
	assert.True(t, ok)
}

func TestNewApp_RegistryProblemsAreErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "w.hcl"), []byte(`
workflow "broken" {
  node "not_a_pipeline" {}
}
`), 0o644))
	cfg := DefaultConfig()
	cfg.WorkflowDir = dir

	_, err := NewApp(context.Background(), io.Discard, &cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrJobNotFound)
	assert.Contains(t, err.Error(), "not_a_pipeline")
}

func TestNewApp_MissingWorkflowDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkflowDir = filepath.Join(t.TempDir(), "nope")
	_, err := NewApp(context.Background(), io.Discard, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load workflows")
}

func TestRun_Map1(t *testing.T) {
	jobs := testutil.NewJobRecorder()
	a, _ := SetupAppTest(t, nil, testutil.NewFakeLayerStore(), recorderModule{jobs})

	req := jamui
	req.Workflow = "map_1"
	sum := a.Run(context.Background(), req)

	require.NoError(t, sum.Err())
	assert.Equal(t, orchestrator.StatusCompleted, sum.Status)
	assert.Equal(t, []string{"generate_tehsil_shape_file_data", "clip_nrega_district_block", "mws_layer"}, jobs.Names())
}

func TestRun_Map2WithoutFoundation(t *testing.T) {
	jobs := testutil.NewJobRecorder()
	a, _ := SetupAppTest(t, nil, testutil.NewFakeLayerStore(), recorderModule{jobs})

	req := jamui
	req.Workflow = "map_2"
	sum := a.Run(context.Background(), req)

	assert.Equal(t, orchestrator.StatusAborted, sum.Status)
	assert.Equal(t, "check mws layer for Jamui_Barhat", sum.Reason)
	assert.Empty(t, jobs.Calls())
}

func TestRunJob(t *testing.T) {
	jobs := testutil.NewJobRecorder()
	a, _ := SetupAppTest(t, nil, nil, recorderModule{jobs})

	sum := a.RunJob(context.Background(), "generate_stream_order", jamui)
	require.NoError(t, sum.Err())
	assert.Equal(t, []string{"generate_stream_order"}, jobs.Names())
}

func TestHandler(t *testing.T) {
	a, _ := SetupAppTest(t, nil, testutil.NewFakeLayerStore(), recorderModule{testutil.NewJobRecorder()})
	req := jamui
	req.Workflow = "map_1"
	a.Run(context.Background(), req)

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `layergen_orchestrator_runs_total{status="completed",workflow="map_1"} 1`)
}

type idleReader struct{}

func (idleReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (idleReader) CommitMessages(context.Context, ...kafka.Message) error { return nil }
func (idleReader) Close() error                                           { return nil }

func TestRunWorker_StopsOnCancel(t *testing.T) {
	a, _ := SetupAppTest(t, nil, nil, recorderModule{testutil.NewJobRecorder()})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, a.runWorker(ctx, idleReader{}, nil))
}

func TestRunWorker_RequiresBrokers(t *testing.T) {
	a, _ := SetupAppTest(t, nil, nil, recorderModule{testutil.NewJobRecorder()})
	err := a.RunWorker(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka_brokers")

	_, err = a.Producer()
	assert.Error(t, err)
}
