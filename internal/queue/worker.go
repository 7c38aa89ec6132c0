package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/metrics"
	"github.com/specialistvlad/layergen/internal/orchestrator"
	"golang.org/x/sync/errgroup"
)

// publishTimeout bounds result publishing and offset commits, which still
// happen after the worker context is cancelled.
const publishTimeout = 10 * time.Second

// Reader is the subset of *kafka.Reader the worker uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaReader creates a consumer-group reader for topic.
func NewKafkaReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Runner executes dispatched runs.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) *orchestrator.Summary
	RunJob(ctx context.Context, job string, req orchestrator.Request) *orchestrator.Summary
}

// Worker consumes dispatches and runs up to Workers of them at once.
type Worker struct {
	reader     Reader
	results    Writer
	runner     Runner
	workers    int
	runTimeout time.Duration
	metrics    *metrics.Metrics
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkers sets the number of concurrent runs. Values below 1 mean 1.
func WithWorkers(n int) WorkerOption {
	return func(w *Worker) {
		if n < 1 {
			n = 1
		}
		w.workers = n
	}
}

// WithRunTimeout cancels a run that takes longer than d. Zero disables it.
func WithRunTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) { w.runTimeout = d }
}

// WithWorkerMetrics counts dispatches in m.
func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) { w.metrics = m }
}

// NewWorker creates a Worker. results may be nil, in which case summaries are
// only logged.
func NewWorker(reader Reader, results Writer, runner Runner, opts ...WorkerOption) *Worker {
	w := &Worker{
		reader:  reader,
		results: results,
		runner:  runner,
		workers: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes until ctx is done or the reader fails. It returns nil after a
// clean shutdown.
func (w *Worker) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Worker started.", "workers", w.workers)

	g, gctx := errgroup.WithContext(ctx)
	msgs := make(chan kafka.Message)

	g.Go(func() error {
		defer close(msgs)
		for {
			m, err := w.reader.FetchMessage(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("failed to fetch dispatch: %w", err)
			}
			select {
			case msgs <- m:
			case <-gctx.Done():
				return nil
			}
		}
	})

	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			for m := range msgs {
				w.handle(gctx, m)
			}
			return nil
		})
	}

	err := g.Wait()
	logger.Info("Worker stopped.")
	return err
}

// handle runs one message to completion. Invalid dispatches are committed so
// they are not redelivered; cancelled runs are left uncommitted.
func (w *Worker) handle(ctx context.Context, m kafka.Message) {
	logger := ctxlog.FromContext(ctx).With("offset", m.Offset, "partition", m.Partition)

	d, err := Decode(m.Value)
	if err != nil {
		logger.Error("Dropping invalid dispatch.", "error", err)
		w.metrics.ObserveDispatch("unknown", "invalid")
		w.commit(ctx, m)
		return
	}

	ctx, logger = ctxlog.With(ctx, "run_id", d.RunID, "kind", d.Kind)
	logger.Info("Dispatch received.", "target", d.Target(), "region", d.Region().String())

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if w.runTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, w.runTimeout)
	}
	sum := w.execute(runCtx, d)
	cancel()

	w.metrics.ObserveDispatch(string(d.Kind), string(sum.Status))
	w.publish(ctx, sum)

	if sum.Status == orchestrator.StatusCancelled && errors.Is(ctx.Err(), context.Canceled) {
		logger.Warn("Run interrupted by shutdown, leaving dispatch uncommitted.")
		return
	}
	w.commit(ctx, m)
}

func (w *Worker) execute(ctx context.Context, d Dispatch) *orchestrator.Summary {
	req := orchestrator.Request{
		RunID:     d.RunID,
		Workflow:  d.WorkflowName,
		Region:    d.Region(),
		AccountID: string(d.AccountID),
		Globals:   d.Globals(),
	}
	if d.Kind == KindJob {
		return w.runner.RunJob(ctx, d.JobName, req)
	}
	return w.runner.Run(ctx, req)
}

func (w *Worker) publish(ctx context.Context, sum *orchestrator.Summary) {
	logger := ctxlog.FromContext(ctx)
	b, err := json.Marshal(sum)
	if err != nil {
		logger.Error("Failed to encode summary.", "error", err)
		return
	}
	if w.results == nil {
		logger.Info("Run summary.", "summary", string(b))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := w.results.WriteMessages(ctx, kafka.Message{Key: []byte(sum.RunID), Value: b}); err != nil {
		logger.Error("Failed to publish summary.", "error", err)
	}
}

func (w *Worker) commit(ctx context.Context, m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := w.reader.CommitMessages(ctx, m); err != nil {
		ctxlog.FromContext(ctx).Error("Failed to commit dispatch.", "offset", m.Offset, "error", err)
	}
}
