package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats mirrors postgres.PoolStats so this package does not import storage.
type PoolStats struct {
	TotalConns      int32
	AcquiredConns   int32
	IdleConns       int32
	MaxConns        int32
	AcquireCount    int64
	AcquireDuration time.Duration
}

// PoolCollector exports database pool usage on every scrape.
type PoolCollector struct {
	stats func() PoolStats

	total, acquired, idle, maxConns *prometheus.Desc
	acquires, acquireSeconds        *prometheus.Desc
}

// NewPoolCollector reads stats lazily at scrape time.
func NewPoolCollector(stats func() PoolStats) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "db_pool", name), help, nil, nil)
	}
	return &PoolCollector{
		stats:          stats,
		total:          desc("conns_total", "Open connections."),
		acquired:       desc("conns_acquired", "Connections in use."),
		idle:           desc("conns_idle", "Idle connections."),
		maxConns:       desc("conns_max", "Configured maximum connections."),
		acquires:       desc("acquires_total", "Connections acquired from the pool."),
		acquireSeconds: desc("acquire_seconds_total", "Time spent waiting for connections."),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.total, c.acquired, c.idle, c.maxConns, c.acquires, c.acquireSeconds} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns))
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.MaxConns))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount))
	ch <- prometheus.MustNewConstMetric(c.acquireSeconds, prometheus.CounterValue, s.AcquireDuration.Seconds())
}
