package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"rtoflow/internal/core/apperror"
	appctx "rtoflow/internal/core/context"
	"rtoflow/internal/core/id"
	"rtoflow/internal/domain/rto"
	"rtoflow/internal/infrastructure/http/v1/dto"
	"rtoflow/internal/infrastructure/importer"
	"rtoflow/pkg/logger"
)

// maxUploadBytes bounds the CSV upload.
const maxUploadBytes = 4 << 20 // 4 MiB

// BatchRunner runs RTO jobs. Implemented by rto.BatchRunner.
type BatchRunner interface {
	Run(ctx context.Context, jobs []rto.ReturnJob) []rto.JobResult
	RunSingle(ctx context.Context, job rto.ReturnJob) (rto.JobResult, bool)
}

// RTOHandler handles return-to-origin submissions.
type RTOHandler struct {
	*BaseHandler
	runner   BatchRunner
	defaults dto.ReturnDefaults
	// onBatch is called when a batch starts; the returned func when it ends.
	onBatch func() func()
}

// NewRTOHandler creates a new RTO handler.
func NewRTOHandler(base *BaseHandler, runner BatchRunner, defaults dto.ReturnDefaults) *RTOHandler {
	return &RTOHandler{
		BaseHandler: base,
		runner:      runner,
		defaults:    defaults,
		onBatch:     func() func() { return func() {} },
	}
}

// WithBatchTracker installs a hook around every batch (metrics gauge).
func (h *RTOHandler) WithBatchTracker(track func() func()) *RTOHandler {
	if track != nil {
		h.onBatch = track
	}
	return h
}

// RegisterRoutes registers RTO endpoints.
func (h *RTOHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/batch", h.Batch)
	rg.POST("/single", h.Single)
}

// Batch processes a CSV upload or a JSON list of orders.
// POST /api/v1/rto/batch
func (h *RTOHandler) Batch(c *gin.Context) {
	jobs, ok := h.bindBatch(c)
	if !ok {
		return
	}
	if len(jobs) == 0 {
		h.Error(c, apperror.NewValidation("no orders to process"))
		return
	}

	batchID := id.NewString()
	ctx := h.jobContext(c, batchID, "http", len(jobs))
	logger.Info(ctx, "rto batch accepted", "jobs", len(jobs))

	defer h.onBatch()()
	results := h.runner.Run(ctx, jobs)

	h.OK(c, dto.NewBatchResponse(batchID, results))
}

// Single processes one manually entered order.
// POST /api/v1/rto/single
func (h *RTOHandler) Single(c *gin.Context) {
	var req dto.SingleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := h.jobContext(c, id.NewString(), "http-single", 1)

	defer h.onBatch()()
	result, ok := h.runner.RunSingle(ctx, req.ToJob(h.defaults))

	status := http.StatusOK
	if !ok {
		status = http.StatusBadRequest
	}
	h.JSON(c, status, dto.SingleResponse{Success: ok, Result: result})
}

// jobContext detaches the jobs from the client connection: a return opened on the
// platform must be restocked even if the uploader goes away.
func (h *RTOHandler) jobContext(c *gin.Context, batchID, source string, size int) context.Context {
	ctx := context.WithoutCancel(c.Request.Context())
	return appctx.WithBatch(ctx, &appctx.BatchContext{BatchID: batchID, Source: source, Size: size})
}

func (h *RTOHandler) bindBatch(c *gin.Context) ([]rto.ReturnJob, bool) {
	if c.ContentType() != "multipart/form-data" {
		var req dto.BatchRequest
		if !h.BindJSON(c, &req) {
			return nil, false
		}
		return req.ToJobs(h.defaults), true
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("file is required").WithDetail("error", err.Error()))
		return nil, false
	}
	if header.Size > maxUploadBytes {
		h.Error(c, apperror.NewValidation(fmt.Sprintf("file exceeds %d bytes", maxUploadBytes)).
			WithDetail("size", header.Size))
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("open upload: %w", err)))
		return nil, false
	}
	defer f.Close()

	rows, err := importer.ParseCSV(f)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	reason, note := h.defaults.Resolve(c.PostForm("returnReason"), c.PostForm("returnReasonNote"))
	return importer.Jobs(rows, reason, note), true
}
