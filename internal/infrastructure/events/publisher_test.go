package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "rtoflow/internal/core/context"
	"rtoflow/internal/domain/rto"
	"rtoflow/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_JobFinished(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisher(w)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	ctx := appctx.WithBatch(context.Background(), &appctx.BatchContext{BatchID: "b-1"})
	result := rto.JobResult{OrderIdentifier: "MA779", Status: rto.StatusReturnCreated, ReturnID: "ret-1", Quantity: 2}
	p.JobFinished(ctx, rto.ReturnJob{OrderIdentifier: "MA779", RequestedQuantity: 5}, result, 1500*time.Millisecond)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "MA779", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "batch_id", Value: []byte("b-1")},
		{Key: "status", Value: []byte("return_created")},
	}, msg.Headers)

	var event JobEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "b-1", event.BatchID)
	assert.Equal(t, 5, event.Requested)
	assert.Equal(t, int64(1500), event.ElapsedMs)
	assert.True(t, fixed.Equal(event.OccurredAt))
	assert.Equal(t, "ret-1", event.Result.ReturnID)
}

func TestPublisher_WriteFailureIsSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewPublisher(w)

	assert.NotPanics(t, func() {
		p.JobFinished(context.Background(), rto.ReturnJob{}, rto.JobResult{OrderIdentifier: "MA1", Status: rto.StatusError}, 0)
	})
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaPublisher(t *testing.T) {
	_, err := NewKafkaPublisher(" , ", "")
	assert.Error(t, err)

	p, err := NewKafkaPublisher("localhost:9092, localhost:9093", "")
	require.NoError(t, err)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, w.Topic)
	assert.True(t, w.Async)
	assert.NotNil(t, w.Completion)
}

func TestDeliveryLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), logger.FromZap(zap.New(core)))
	complete := deliveryLogger(ctx)

	complete([]kafka.Message{{Key: []byte("MA1")}}, nil)
	assert.Equal(t, 0, logs.Len())

	complete([]kafka.Message{{Key: []byte("MA1")}, {Key: []byte("MA2")}}, errors.New("leader not available"))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.EqualValues(t, 2, fields["count"])
	assert.Equal(t, "leader not available", fields["error"])
}
