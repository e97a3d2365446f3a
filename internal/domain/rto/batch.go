package rto

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	appctx "rtoflow/internal/core/context"
	"rtoflow/internal/core/id"
	"rtoflow/pkg/logger"
)

// Observer is notified once per finished job. Implementations must not block for long
// and must swallow their own failures.
type Observer interface {
	JobFinished(ctx context.Context, job ReturnJob, result JobResult, elapsed time.Duration)
}

// BatchConfig configures a BatchRunner.
type BatchConfig struct {
	// Workers bounds concurrent jobs. 1 (the default) processes jobs sequentially.
	Workers int
}

// DefaultBatchConfig returns sequential processing.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{Workers: 1}
}

// BatchRunner runs a list of jobs, producing exactly one result per job in input order.
type BatchRunner struct {
	processor JobProcessor
	config    BatchConfig
	observers []Observer
}

// NewBatchRunner creates a new batch runner.
func NewBatchRunner(processor JobProcessor, config BatchConfig, observers ...Observer) *BatchRunner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &BatchRunner{
		processor: processor,
		config:    config,
		observers: observers,
	}
}

// Run processes jobs and returns their results in input order.
//
// Cancelling ctx stops new jobs from starting; those yield an error result. Jobs already
// started are detached from cancellation so they reach a terminal state, since their
// platform side effects cannot be rolled back.
func (r *BatchRunner) Run(ctx context.Context, jobs []ReturnJob) []JobResult {
	return r.run(ctx, jobs, "batch")
}

// RunSingle runs one job. ok is true only when the return was created.
func (r *BatchRunner) RunSingle(ctx context.Context, job ReturnJob) (result JobResult, ok bool) {
	results := r.run(ctx, []ReturnJob{job}, "single")
	return results[0], results[0].Succeeded()
}

func (r *BatchRunner) run(ctx context.Context, jobs []ReturnJob, kind string) []JobResult {
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	if appctx.GetBatch(ctx) == nil {
		ctx = appctx.WithBatch(ctx, &appctx.BatchContext{BatchID: id.NewString(), Source: kind, Size: len(jobs)})
	}

	started := time.Now()
	logger.Info(ctx, "rto batch started", "kind", kind, "jobs", len(jobs), "workers", r.config.Workers)

	if r.config.Workers == 1 {
		for i, job := range jobs {
			results[i] = r.runJob(ctx, job)
		}
	} else {
		// errgroup is used only for its limit; jobs never return errors, so no sibling is cancelled.
		var g errgroup.Group
		g.SetLimit(r.config.Workers)
		for i, job := range jobs {
			if ctx.Err() != nil {
				results[i] = cancelledResult(ctx, job)
				continue
			}
			g.Go(func() error {
				results[i] = r.runJob(ctx, job)
				return nil
			})
		}
		_ = g.Wait()
	}

	logger.Info(ctx, "rto batch finished",
		"kind", kind,
		"jobs", len(jobs),
		"summary", Summarize(results),
		"elapsed_ms", time.Since(started).Milliseconds(),
	)
	return results
}

// runJob isolates one job: cancellation before start, panics, and observers.
func (r *BatchRunner) runJob(ctx context.Context, job ReturnJob) (result JobResult) {
	if ctx.Err() != nil {
		result = cancelledResult(ctx, job)
		r.notify(ctx, job, result, 0)
		return result
	}

	jobCtx := context.WithoutCancel(ctx)
	started := time.Now()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(jobCtx, "panic escaped job processor",
				"order", job.OrderIdentifier,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			result = JobResult{
				OrderIdentifier: job.OrderIdentifier,
				Status:          StatusError,
				Message:         fmt.Sprintf("panic: %v", p),
			}
		}
		if !result.Status.IsValid() {
			result = JobResult{
				OrderIdentifier: job.OrderIdentifier,
				Status:          StatusError,
				Message:         fmt.Sprintf("invalid job status %q", result.Status),
			}
		}
		r.notify(jobCtx, job, result, time.Since(started))
	}()

	return r.processor.Process(jobCtx, job)
}

func (r *BatchRunner) notify(ctx context.Context, job ReturnJob, result JobResult, elapsed time.Duration) {
	for _, o := range r.observers {
		func() {
			defer func() {
				if p := recover(); p != nil {
					logger.Error(ctx, "observer panicked", "panic", p)
				}
			}()
			o.JobFinished(ctx, job, result, elapsed)
		}()
	}
}

func cancelledResult(ctx context.Context, job ReturnJob) JobResult {
	return JobResult{
		OrderIdentifier: job.OrderIdentifier,
		Status:          StatusError,
		Message:         fmt.Sprintf("batch cancelled: %v", context.Cause(ctx)),
	}
}

// Summarize counts results per status.
func Summarize(results []JobResult) map[Status]int {
	summary := make(map[Status]int)
	for _, r := range results {
		summary[r.Status]++
	}
	return summary
}
