package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/specialistvlad/layergen/internal/ctxlog"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/session"
)

// Writer is the subset of *kafka.Writer the queue uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a writer for topic. Messages are partitioned by key
// so every message of one run lands on the same partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// Producer publishes dispatches.
type Producer struct {
	w Writer
}

// NewProducer creates a Producer writing to w.
func NewProducer(w Writer) *Producer {
	return &Producer{w: w}
}

// EnqueueWorkflow publishes a workflow run and returns its run id.
func (p *Producer) EnqueueWorkflow(ctx context.Context, workflow string, region model.Region, accountID string, globals session.GlobalArgs) (string, error) {
	return p.Publish(ctx, Dispatch{
		Kind:         KindWorkflow,
		WorkflowName: workflow,
		State:        region.State,
		District:     region.District,
		Block:        region.Block,
		AccountID:    AccountID(accountID),
		StartYear:    globals.StartYear,
		EndYear:      globals.EndYear,
	})
}

// EnqueueJob publishes a single job run and returns its run id.
func (p *Producer) EnqueueJob(ctx context.Context, job string, region model.Region, accountID string, globals session.GlobalArgs) (string, error) {
	return p.Publish(ctx, Dispatch{
		Kind:      KindJob,
		JobName:   job,
		State:     region.State,
		District:  region.District,
		Block:     region.Block,
		AccountID: AccountID(accountID),
		StartYear: globals.StartYear,
		EndYear:   globals.EndYear,
	})
}

// Publish validates d, assigns a run id when it has none and writes it.
func (p *Producer) Publish(ctx context.Context, d Dispatch) (string, error) {
	if d.Kind == "" {
		d.Kind = KindWorkflow
	}
	if err := d.Validate(); err != nil {
		return "", err
	}
	if d.RunID == "" {
		d.RunID = uuid.NewString()
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode dispatch: %w", err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(d.RunID), Value: b}); err != nil {
		return "", fmt.Errorf("failed to publish dispatch: %w", err)
	}
	ctxlog.FromContext(ctx).Info("Dispatch published.", "run_id", d.RunID, "kind", d.Kind, "target", d.Target(), "region", d.Region().String())
	return d.RunID, nil
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	return p.w.Close()
}
