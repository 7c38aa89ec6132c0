package app

import (
	"context"
	"testing"

	"github.com/specialistvlad/layergen/internal/layerstore"
	"github.com/specialistvlad/layergen/internal/registry"
	"github.com/specialistvlad/layergen/internal/testutil"
)

// SetupAppTest creates an App for system tests. It uses the built-in catalog
// unless cfg says otherwise, the given layer store and the given modules.
func SetupAppTest(t *testing.T, cfg *Config, layers layerstore.Store, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	if cfg == nil {
		c := DefaultConfig()
		cfg = &c
	}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	buf := &testutil.SafeBuffer{}
	opts := []Option{WithLayerStore(layers)}
	if len(modules) > 0 {
		opts = append(opts, WithModules(modules...))
	}
	a, err := NewApp(context.Background(), buf, cfg, opts...)
	if err != nil {
		t.Fatalf("failed to create app: %v\n%s", err, buf.String())
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, buf
}
