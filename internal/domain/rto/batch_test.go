package rto

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFunc func(ctx context.Context, job ReturnJob) JobResult

func (f processorFunc) Process(ctx context.Context, job ReturnJob) JobResult { return f(ctx, job) }

type recordingObserver struct {
	mu      sync.Mutex
	results []JobResult
}

func (o *recordingObserver) JobFinished(_ context.Context, _ ReturnJob, r JobResult, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, r)
}

func jobs(n int) []ReturnJob {
	out := make([]ReturnJob, n)
	for i := range out {
		out[i] = ReturnJob{OrderIdentifier: fmt.Sprintf("MA%d", 1000+i), RequestedQuantity: 1}
	}
	return out
}

func TestBatchRunner_IsolatesPanics(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			proc := processorFunc(func(_ context.Context, job ReturnJob) JobResult {
				if job.OrderIdentifier == "MA1003" {
					panic("platform client exploded")
				}
				return JobResult{OrderIdentifier: job.OrderIdentifier, Status: StatusReturnCreated, ReturnID: "ret-" + job.OrderIdentifier}
			})
			obs := &recordingObserver{}

			in := jobs(8)
			results := NewBatchRunner(proc, BatchConfig{Workers: workers}, obs).Run(context.Background(), in)

			require.Len(t, results, len(in))
			for i, r := range results {
				assert.Equal(t, in[i].OrderIdentifier, r.OrderIdentifier)
				if i == 3 {
					assert.Equal(t, StatusError, r.Status)
					assert.Equal(t, "panic: platform client exploded", r.Message)
					continue
				}
				assert.Equal(t, StatusReturnCreated, r.Status)
			}
			assert.Len(t, obs.results, len(in))
		})
	}
}

func TestBatchRunner_ConcurrentKeepsInputOrder(t *testing.T) {
	var inFlight, peak atomic.Int32
	proc := processorFunc(func(_ context.Context, job ReturnJob) JobResult {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return JobResult{OrderIdentifier: job.OrderIdentifier, Status: StatusNoReturnables}
	})

	in := jobs(20)
	results := NewBatchRunner(proc, BatchConfig{Workers: 3}).Run(context.Background(), in)

	require.Len(t, results, 20)
	for i := range in {
		assert.Equal(t, in[i].OrderIdentifier, results[i].OrderIdentifier)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestBatchRunner_CancelledBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var seen []context.Context
	proc := processorFunc(func(ctx context.Context, job ReturnJob) JobResult {
		seen = append(seen, ctx)
		// Caller disconnects while the first job is in flight.
		cancel()
		return JobResult{OrderIdentifier: job.OrderIdentifier, Status: StatusReturnCreated}
	})

	results := NewBatchRunner(proc, DefaultBatchConfig()).Run(ctx, jobs(3))

	require.Len(t, results, 3)
	assert.Equal(t, StatusReturnCreated, results[0].Status)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, "batch cancelled: context canceled", results[1].Message)
	assert.Equal(t, StatusError, results[2].Status)

	require.Len(t, seen, 1)
	assert.NoError(t, seen[0].Err(), "in-flight job must not observe batch cancellation")
}

func TestBatchRunner_InvalidStatusBecomesError(t *testing.T) {
	proc := processorFunc(func(_ context.Context, job ReturnJob) JobResult {
		return JobResult{OrderIdentifier: job.OrderIdentifier}
	})

	results := NewBatchRunner(proc, DefaultBatchConfig()).Run(context.Background(), jobs(1))
	assert.Equal(t, StatusError, results[0].Status)
}

func TestBatchRunner_ObserverPanicDoesNotAffectResults(t *testing.T) {
	proc := processorFunc(func(_ context.Context, job ReturnJob) JobResult {
		return JobResult{OrderIdentifier: job.OrderIdentifier, Status: StatusSkippedPaid}
	})
	bad := observerFunc(func(context.Context, ReturnJob, JobResult, time.Duration) { panic("metrics down") })

	results := NewBatchRunner(proc, DefaultBatchConfig(), bad).Run(context.Background(), jobs(2))
	assert.Equal(t, StatusSkippedPaid, results[0].Status)
	assert.Equal(t, StatusSkippedPaid, results[1].Status)
}

func TestBatchRunner_RunSingle(t *testing.T) {
	tests := []struct {
		status Status
		ok     bool
	}{
		{StatusReturnCreated, true},
		{StatusNotFound, false},
		{StatusSkippedPaid, false},
		{StatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			proc := processorFunc(func(_ context.Context, job ReturnJob) JobResult {
				return JobResult{OrderIdentifier: job.OrderIdentifier, Status: tt.status}
			})

			res, ok := NewBatchRunner(proc, DefaultBatchConfig()).RunSingle(context.Background(), ReturnJob{OrderIdentifier: "MA1", RequestedQuantity: 1})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.status, res.Status)
		})
	}
}

func TestBatchRunner_Empty(t *testing.T) {
	results := NewBatchRunner(processorFunc(nil), BatchConfig{}).Run(context.Background(), nil)
	assert.Empty(t, results)
}

func TestSummarize(t *testing.T) {
	got := Summarize([]JobResult{
		{Status: StatusReturnCreated}, {Status: StatusError}, {Status: StatusReturnCreated},
	})
	assert.Equal(t, map[Status]int{StatusReturnCreated: 2, StatusError: 1}, got)
}

type observerFunc func(ctx context.Context, job ReturnJob, r JobResult, elapsed time.Duration)

func (f observerFunc) JobFinished(ctx context.Context, job ReturnJob, r JobResult, elapsed time.Duration) {
	f(ctx, job, r, elapsed)
}
