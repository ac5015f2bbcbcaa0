package prom

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meshtopo"
	"github.com/hupe1980/meshtopo/cell"
	"github.com/hupe1980/meshtopo/comm"
	"github.com/hupe1980/meshtopo/testutil"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.RecordPhase("directory", 3*time.Millisecond, nil)
	c.RecordPhase("directory", time.Millisecond, errors.New("boom"))
	c.RecordTopology(10, 2, 7)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.phaseErrors.WithLabelValues("directory")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(c.topologies))
	assert.Equal(t, 10.0, promtestutil.ToFloat64(c.owned))
	assert.Equal(t, 2.0, promtestutil.ToFloat64(c.ghosts))
	assert.Equal(t, 7.0, promtestutil.ToFloat64(c.cells))
	assert.Equal(t, 2, promtestutil.CollectAndCount(c.phaseLatency))

	_, err = New(reg)
	assert.Error(t, err)
}

func TestCollector_WithTopology(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc, err := New(reg)
	require.NoError(t, err)

	parts := testutil.Partition(testutil.UnitSquare(3, cell.Triangle), 2, 0)
	err = comm.Run(context.Background(), 2, func(ctx context.Context, c *comm.Comm) error {
		p := parts[c.Rank()]
		_, err := meshtopo.CreateTopology(ctx, c, p.Cells, p.OriginalIndex, p.GhostOwners,
			cell.Triangle, meshtopo.GhostNone, meshtopo.WithMetricsCollector(mc))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, promtestutil.ToFloat64(mc.topologies))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `meshtopo_phase_duration_seconds_count{phase="round-a",status="success"} 2`), body)
}
