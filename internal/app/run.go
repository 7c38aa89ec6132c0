package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/orchestrator"
	"github.com/specialistvlad/layergen/internal/queue"
)

// Run executes one workflow synchronously.
func (a *App) Run(ctx context.Context, req orchestrator.Request) *orchestrator.Summary {
	return a.orchestrator.Run(a.Context(ctx), req)
}

// RunJob executes one job synchronously.
func (a *App) RunJob(ctx context.Context, job string, req orchestrator.Request) *orchestrator.Summary {
	return a.orchestrator.RunJob(a.Context(ctx), job, req)
}

// RunWorker consumes dispatches until ctx is cancelled. It serves /health and
// /metrics while it runs.
func (a *App) RunWorker(ctx context.Context) error {
	if err := a.config.ValidateQueue(); err != nil {
		return err
	}
	reader := queue.NewKafkaReader(a.config.KafkaBrokers, a.config.DispatchTopic, a.config.ConsumerGroup)
	defer reader.Close()

	var results queue.Writer
	if a.config.ResultTopic != "" {
		w := queue.NewKafkaWriter(a.config.KafkaBrokers, a.config.ResultTopic)
		defer w.Close()
		results = w
	}
	return a.runWorker(ctx, reader, results)
}

func (a *App) runWorker(ctx context.Context, reader queue.Reader, results queue.Writer) error {
	ctx = a.Context(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.RunWorker method started.")

	stop, err := a.startHealthcheckServer(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := stop(); err != nil {
			logger.Error("Health check server shutdown failed", "error", err)
		}
	}()

	w := queue.NewWorker(reader, results, a.orchestrator,
		queue.WithWorkers(a.config.Workers),
		queue.WithRunTimeout(a.config.RunTimeout),
		queue.WithWorkerMetrics(a.metrics))
	if err := w.Run(ctx); err != nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}

// Producer returns a producer on the dispatch topic. The caller closes it.
func (a *App) Producer() (*queue.Producer, error) {
	if err := a.config.ValidateQueue(); err != nil {
		return nil, err
	}
	return queue.NewProducer(queue.NewKafkaWriter(a.config.KafkaBrokers, a.config.DispatchTopic)), nil
}
