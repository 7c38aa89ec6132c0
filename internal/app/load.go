package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layergen/internal/catalog"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/depcheck"
	"github.com/specialistvlad/layergen/internal/layerstore"
	"github.com/specialistvlad/layergen/internal/progress"
	"github.com/specialistvlad/layergen/internal/registry"
)

// lulcDependency is the dependency name answered from the layer store
// instead of the status table.
const lulcDependency = "clip_lulc_v3"

func (a *App) loadLayerStore(ctx context.Context, injected layerstore.Store) error {
	logger := ctxlog.FromContext(ctx)
	if injected != nil {
		a.layers = injected
		return nil
	}
	if a.config.MySQLDSN == "" {
		logger.Warn("No mysql_dsn configured: foundation checks and layer-count dependencies will fail.")
		return nil
	}

	store, err := layerstore.Open(ctx, a.config.MySQLDSN, a.config.LayerTable,
		layerstore.WithRetries(a.config.QueryRetries))
	if err != nil {
		return fmt.Errorf("failed to open layer store: %w", err)
	}
	a.layers = store
	a.onClose(store.Close)
	logger.Info("Layer store connected.", "table", a.config.LayerTable)
	return nil
}

func (a *App) loadRegistry(ctx context.Context, modules []registry.Module) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workflows...", "workflow_dir", a.config.WorkflowDir)

	c, err := catalog.Load(ctx, a.config.WorkflowDir)
	if err != nil {
		return fmt.Errorf("failed to load workflows: %w", err)
	}

	if len(modules) == 0 {
		modules, err = coreModules(a.config)
		if err != nil {
			return err
		}
	}

	reg := registry.New()
	reg.SetCatalog(c)
	for _, mod := range modules {
		mod.Register(reg)
	}
	reg.RegisterPredicate(lulcDependency, depcheck.NewLULCLayerCount(a.layers))
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.Validate(ctx); err != nil {
		return err
	}
	a.registry = reg
	return nil
}

// loadNotifier connects to progress_url. Progress is best effort, so a
// failed connection falls back to a no-op notifier.
func (a *App) loadNotifier(ctx context.Context, injected progress.Notifier) {
	logger := ctxlog.FromContext(ctx)
	switch {
	case injected != nil:
		a.notifier = injected
		return
	case a.config.ProgressURL == "":
		a.notifier = progress.Nop{}
		return
	}

	n, err := progress.Dial(ctx, progress.SocketIOOptions{URL: a.config.ProgressURL})
	if err != nil {
		logger.Warn("Progress server unreachable, continuing without progress events.", "url", a.config.ProgressURL, "error", err)
		a.notifier = progress.Nop{}
		return
	}
	a.notifier = n
	a.onClose(n.Close)
}
