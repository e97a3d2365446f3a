// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rtoflow/internal/infrastructure/http/v1/dto"
	"rtoflow/internal/infrastructure/http/v1/handlers"
	"rtoflow/internal/infrastructure/http/v1/middleware"
	"rtoflow/internal/infrastructure/metrics"
	"rtoflow/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Runner executes RTO jobs
	Runner handlers.BatchRunner

	// Defaults fill reason and note when a request omits them
	Defaults dto.ReturnDefaults

	// IdempotencyStore enables X-Idempotency-Key handling when set
	IdempotencyStore middleware.IdempotencyStore

	// DB is pinged by the readiness probe; nil when no database is configured
	DB handlers.Pinger

	// Metrics and Gatherer back /metrics; both optional
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		rtoGroup := v1.Group("/rto")
		if cfg.IdempotencyStore != nil {
			rtoGroup.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		rtoHandler := handlers.NewRTOHandler(handlers.NewBaseHandler(), cfg.Runner, cfg.Defaults)
		if cfg.Metrics != nil {
			rtoHandler.WithBatchTracker(cfg.Metrics.TrackBatch)
		}
		rtoHandler.RegisterRoutes(rtoGroup)
	}

	return router
}
