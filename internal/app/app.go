package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/layerstore"
	"github.com/specialistvlad/layergen/internal/metrics"
	"github.com/specialistvlad/layergen/internal/orchestrator"
	"github.com/specialistvlad/layergen/internal/precondition"
	"github.com/specialistvlad/layergen/internal/progress"
	"github.com/specialistvlad/layergen/internal/registry"
	"go.uber.org/multierr"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW         io.Writer
	logger       *slog.Logger
	config       *Config
	registry     *registry.Registry
	layers       layerstore.Store
	metrics      *metrics.Metrics
	notifier     progress.Notifier
	orchestrator *orchestrator.Orchestrator
	closers      []func() error
}

// Option customises NewApp. Options exist mainly for tests.
type Option func(*options)

type options struct {
	modules  []registry.Module
	layers   layerstore.Store
	notifier progress.Notifier
}

// WithModules replaces the default job modules.
func WithModules(mods ...registry.Module) Option {
	return func(o *options) { o.modules = mods }
}

// WithLayerStore uses s instead of opening mysql_dsn.
func WithLayerStore(s layerstore.Store) Option {
	return func(o *options) { o.layers = s }
}

// WithNotifier uses n instead of dialing progress_url.
func WithNotifier(n progress.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// NewApp is the constructor for the main application. It loads the workflow
// catalog, registers every job module and validates the result, so a
// returned App is ready to run any workflow it knows about.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		metrics: metrics.New(),
	}

	if err := a.loadLayerStore(ctx, o.layers); err != nil {
		return nil, err
	}
	if err := a.loadRegistry(ctx, o.modules); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.loadNotifier(ctx, o.notifier)

	a.orchestrator = orchestrator.New(a.registry, precondition.New(a.layers),
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithNotifier(a.notifier))

	logger.Debug("Application initialised.",
		"workflows", a.registry.Catalog().WorkflowNames(),
		"jobs", len(a.registry.JobNames()))
	return a, nil
}

// Registry returns the application's registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the application's metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Context returns ctx carrying the application's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Close releases the layer store, the progress connection and any queue
// clients the App opened.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i]())
	}
	a.closers = nil
	if errs != nil {
		return fmt.Errorf("failed to close application: %w", errs)
	}
	return nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}
