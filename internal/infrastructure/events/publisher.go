// Package events publishes RTO job results to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	appctx "rtoflow/internal/core/context"
	"rtoflow/internal/domain/rto"
	"rtoflow/pkg/logger"
)

// DefaultTopic receives one message per finished job.
const DefaultTopic = "rto.job-results"

// publishTimeout bounds the metadata lookup an async write may still do.
const publishTimeout = 5 * time.Second

// Compile-time check that Publisher observes batch jobs.
var _ rto.Observer = (*Publisher)(nil)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// JobEvent is the message payload.
type JobEvent struct {
	BatchID    string        `json:"batchId,omitempty"`
	Result     rto.JobResult `json:"result"`
	Requested  int           `json:"requestedQuantity"`
	ElapsedMs  int64         `json:"elapsedMs"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Publisher writes JobEvents. Failures are logged and never reach the batch.
type Publisher struct {
	writer MessageWriter
	now    func() time.Time
}

// NewPublisher wraps an existing writer.
func NewPublisher(w MessageWriter) *Publisher {
	return &Publisher{writer: w, now: time.Now}
}

// NewKafkaPublisher connects to brokers, a comma separated list. The writer
// is async: JobFinished only enqueues, delivery errors are logged on completion.
func NewKafkaPublisher(brokers, topic string) (*Publisher, error) {
	addrs := splitBrokers(brokers)
	if len(addrs) == 0 {
		return nil, errors.New("events: no kafka brokers configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             deliveryLogger(context.Background()),
	}
	return NewPublisher(w), nil
}

// deliveryLogger reports failed async deliveries through the logger in ctx.
func deliveryLogger(ctx context.Context) func([]kafka.Message, error) {
	return func(msgs []kafka.Message, err error) {
		if err == nil {
			return
		}
		orders := make([]string, 0, len(msgs))
		for _, m := range msgs {
			orders = append(orders, string(m.Key))
		}
		logger.Warn(ctx, "deliver job events failed", "count", len(msgs), "orders", orders, "error", err)
	}
}

// JobFinished implements rto.Observer.
func (p *Publisher) JobFinished(ctx context.Context, job rto.ReturnJob, result rto.JobResult, elapsed time.Duration) {
	batchID := appctx.GetBatchID(ctx)
	event := JobEvent{
		BatchID:    batchID,
		Result:     result,
		Requested:  job.RequestedQuantity,
		ElapsedMs:  elapsed.Milliseconds(),
		OccurredAt: p.now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(ctx, "marshal job event", "order", result.OrderIdentifier, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(result.OrderIdentifier),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "batch_id", Value: []byte(batchID)},
			{Key: "status", Value: []byte(result.Status)},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		logger.Warn(ctx, "publish job event failed", "order", result.OrderIdentifier, "error", err)
	}
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
