package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolCollector(t *testing.T) {
	stats := PoolStats{TotalConns: 3, AcquiredConns: 1, IdleConns: 2, MaxConns: 8, AcquireCount: 40, AcquireDuration: 1500 * time.Millisecond}
	c := NewPoolCollector(func() PoolStats { return stats })

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP rtoflow_db_pool_conns_acquired Connections in use.
# TYPE rtoflow_db_pool_conns_acquired gauge
rtoflow_db_pool_conns_acquired 1
# HELP rtoflow_db_pool_acquire_seconds_total Time spent waiting for connections.
# TYPE rtoflow_db_pool_acquire_seconds_total counter
rtoflow_db_pool_acquire_seconds_total 1.5
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"rtoflow_db_pool_conns_acquired", "rtoflow_db_pool_acquire_seconds_total"))
	assert.Equal(t, 6, testutil.CollectAndCount(c))
}
