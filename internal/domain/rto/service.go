package rto

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rtoflow/pkg/logger"
)

var tracer = otel.Tracer("rtoflow/rto")

// JobProcessor runs one job to a terminal result.
type JobProcessor interface {
	Process(ctx context.Context, job ReturnJob) JobResult
}

// Compile-time check that Service implements JobProcessor.
var _ JobProcessor = (*Service)(nil)

// Service is the job orchestrator. It holds no state between jobs.
type Service struct {
	locator   *OrderLocator
	inspector *EligibilityInspector
	opener    *ReturnOpener
	loader    *ReconciliationLoader
	committer *DispositionCommitter
}

// NewService wires the saga steps against one platform.
func NewService(platform Platform) *Service {
	return &Service{
		locator:   NewOrderLocator(platform),
		inspector: NewEligibilityInspector(platform),
		opener:    NewReturnOpener(platform),
		loader:    NewReconciliationLoader(platform),
		committer: NewDispositionCommitter(platform),
	}
}

// Process drives one job through
//
//	START -> LOCATED -> ELIGIBLE -> OPENED -> RECONCILED -> COMMITTED
//
// and never returns an error or panics: every failure becomes a JobResult.
func (s *Service) Process(ctx context.Context, job ReturnJob) (result JobResult) {
	ctx, span := tracer.Start(ctx, "rto.process_job",
		trace.WithAttributes(
			attribute.String("rto.order_identifier", job.OrderIdentifier),
			attribute.Int("rto.requested_quantity", job.RequestedQuantity),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "panic in rto job",
				"order", job.OrderIdentifier,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			result = JobResult{
				OrderIdentifier: job.OrderIdentifier,
				Status:          StatusError,
				Message:         fmt.Sprintf("panic: %v", r),
			}
		}
		span.SetAttributes(attribute.String("rto.status", result.Status.String()))
		if result.Status == StatusError {
			span.SetStatus(codes.Error, result.Message)
		}
	}()

	return s.run(ctx, job)
}

func (s *Service) run(ctx context.Context, job ReturnJob) JobResult {
	res := JobResult{OrderIdentifier: job.OrderIdentifier}

	fail := func(step string, err error) JobResult {
		logger.Error(ctx, "rto job failed", "order", job.OrderIdentifier, "step", step, "error", err)
		res.Status = StatusError
		res.Message = failureMessage(err)
		return res
	}

	// START -> LOCATED
	order, err := step(ctx, "locate", func(ctx context.Context) (*OrderSnapshot, error) {
		return s.locator.Locate(ctx, job.OrderIdentifier)
	})
	if errors.Is(err, ErrOrderNotFound) {
		logger.Info(ctx, "order not found", "order", job.OrderIdentifier)
		res.Status = StatusNotFound
		res.Message = "Order not found"
		return res
	}
	if err != nil {
		return fail("locate", err)
	}
	if order.HasTotal {
		total := order.TotalPrice
		res.OrderTotal = &total
		res.Currency = order.Currency
	}

	// Paid orders are never auto-returned.
	if order.FinancialStatus == FinancialPaid {
		logger.Info(ctx, "order is paid, skipped", "order", job.OrderIdentifier, "order_id", order.ID)
		res.Status = StatusSkippedPaid
		res.Message = "Order is paid"
		return res
	}

	// LOCATED -> ELIGIBLE
	units, err := step(ctx, "inspect", func(ctx context.Context) ([]ReturnableUnit, error) {
		return s.inspector.Inspect(ctx, order.ID)
	})
	if err != nil {
		return fail("inspect", err)
	}
	unit, ok := FirstEligibleUnit(units)
	if !ok {
		logger.Info(ctx, "no returnable units", "order", job.OrderIdentifier, "order_id", order.ID)
		res.Status = StatusNoReturnables
		res.Message = "No returnable items"
		return res
	}
	qty := FinalQuantity(job.RequestedQuantity, unit.RemainingQuantity)
	if qty == 0 {
		logger.Info(ctx, "returnable unit exhausted", "order", job.OrderIdentifier,
			"fulfillment_line_item_id", unit.FulfillmentLineItemID)
		res.Status = StatusZeroRemaining
		res.Message = "No remaining quantity to return"
		return res
	}

	// ELIGIBLE -> OPENED
	opened, err := step(ctx, "open", func(ctx context.Context) (*OpenedReturn, error) {
		return s.opener.Open(ctx, order.ID, unit, qty, job.Reason, job.Note)
	})
	if err != nil {
		return fail("open", err)
	}
	res.ReturnID = opened.ReturnID
	logger.Info(ctx, "return opened", "order", job.OrderIdentifier, "return_id", opened.ReturnID, "quantity", qty)

	// OPENED -> RECONCILED
	rec, err := step(ctx, "reconcile", func(ctx context.Context) (*Reconciliation, error) {
		return s.loader.Load(ctx, opened, order.ID)
	})
	if err != nil {
		return fail("reconcile", err)
	}

	// RECONCILED -> COMMITTED
	returnID, err := step(ctx, "commit", func(ctx context.Context) (string, error) {
		return s.committer.Commit(ctx, opened.ReturnID, rec)
	})
	if err != nil {
		return fail("commit", err)
	}

	committed := 0
	for _, e := range rec.Entries {
		committed += e.Quantity
	}

	res.Status = StatusReturnCreated
	res.ReturnID = returnID
	res.Quantity = committed
	logger.Info(ctx, "return created and restocked",
		"order", job.OrderIdentifier,
		"return_id", returnID,
		"quantity", committed,
		"location_id", rec.LocationID,
	)
	return res
}

// step runs one saga step under its own span.
func step[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "rto."+name)
	defer span.End()

	logger.Debug(ctx, "rto step", "step", name)
	out, err := fn(ctx)
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}
