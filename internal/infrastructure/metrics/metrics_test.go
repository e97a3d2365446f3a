package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"rtoflow/internal/core/apperror"
	"rtoflow/internal/domain/rto"
)

func TestJobFinished(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.JobFinished(ctx, rto.ReturnJob{}, rto.JobResult{Status: rto.StatusReturnCreated, Quantity: 2}, time.Second)
	m.JobFinished(ctx, rto.ReturnJob{}, rto.JobResult{Status: rto.StatusReturnCreated, Quantity: 1}, time.Second)
	m.JobFinished(ctx, rto.ReturnJob{}, rto.JobResult{Status: rto.StatusNotFound}, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("return_created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("not_found")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ReturnedUnits))
}

func TestObservePlatformCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObservePlatformCall("orders", time.Millisecond, nil)
	m.ObservePlatformCall("orders", time.Millisecond, apperror.NewTimeout("shopify.orders", context.DeadlineExceeded))
	m.ObservePlatformCall("returnCreate", time.Millisecond, apperror.NewPlatform("returnCreate", "bad"))
	m.ObservePlatformCall("returnCreate", time.Millisecond, errors.New("connection reset"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlatformCalls.WithLabelValues("orders", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlatformCalls.WithLabelValues("orders", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlatformCalls.WithLabelValues("returnCreate", "platform_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlatformCalls.WithLabelValues("returnCreate", "transport_error")))
}

func TestTrackBatch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	done := m.TrackBatch()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesInProgress))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BatchesInProgress))
}
