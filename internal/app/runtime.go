// Package app assembles the RTO runtime shared by the API server and the CLI.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"rtoflow/internal/config"
	"rtoflow/internal/domain/rto"
	"rtoflow/internal/infrastructure/events"
	"rtoflow/internal/infrastructure/metrics"
	"rtoflow/internal/infrastructure/shopify"
)

// Runtime is a ready-to-use batch runner with its observers.
type Runtime struct {
	Runner   *rto.BatchRunner
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	publisher *events.Publisher
}

// Options override configuration for one process.
type Options struct {
	// Workers overrides RTO_WORKERS when positive.
	Workers int

	// ProcessCollectors adds Go runtime and process metrics (server only).
	ProcessCollectors bool
}

// NewRuntime validates the platform settings and wires client, saga, and observers.
func NewRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	if opts.Workers > 0 {
		cfg.RTO.Workers = opts.Workers
	}
	if err := cfg.ValidatePlatform(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	reg := prometheus.NewRegistry()
	if opts.ProcessCollectors {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.New(reg)

	shopCfg := shopify.DefaultConfig(cfg.Shopify.ShopDomain, cfg.Shopify.AccessToken)
	shopCfg.APIVersion = cfg.Shopify.APIVersion
	shopCfg.CallTimeout = cfg.Shopify.CallTimeout
	shopCfg.RateLimit = cfg.Shopify.RateLimit
	shopCfg.RateBurst = cfg.Shopify.RateBurst
	shopCfg.OnCall = m.ObservePlatformCall

	client, err := shopify.NewClient(shopCfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Metrics: m, Registry: reg}
	observers := []rto.Observer{m}
	if cfg.Kafka.Brokers != "" {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		rt.publisher = pub
		observers = append(observers, pub)
	}

	rt.Runner = rto.NewBatchRunner(rto.NewService(client), rto.BatchConfig{Workers: cfg.RTO.Workers}, observers...)
	return rt, nil
}

// Close flushes the result publisher, if any.
func (r *Runtime) Close() error {
	if r.publisher == nil {
		return nil
	}
	if err := r.publisher.Close(); err != nil {
		return fmt.Errorf("close result publisher: %w", err)
	}
	return nil
}
