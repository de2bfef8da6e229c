package pool_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/pool"
	"github.com/AntonStoeckl/warehouse-loadproxy/testutil/fakewarehouse"
	"github.com/AntonStoeckl/warehouse-loadproxy/testutil/observability/testdoubles"
)

func Test_Warmup_CreatesProbePlusPoolSizeConnections(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorFirebolt)
	p, err := pool.New(connector, 3)
	require.NoError(t, err)

	require.NoError(t, p.Warmup(context.Background()))

	assert.True(t, p.Ready())
	assert.Equal(t, 4, p.Created())
	assert.Equal(t, 4, connector.ConnectCalls())

	conns := connector.Conns()
	require.Len(t, conns, 4)
	assert.Equal(t, []string{tuningStatement, "SELECT 42"}, conns[0].Executed(), "probe connection")

	probe, err := p.Get(loadproxy.ProbeSlot)
	require.NoError(t, err)
	assert.Same(t, conns[0], probe)

	for slot := 1; slot <= 3; slot++ {
		conn, getErr := p.Get(slot)
		require.NoError(t, getErr)
		assert.Same(t, conns[slot], conn, "slots are opened in order")
		assert.Equal(t, []string{tuningStatement}, conns[slot].Executed())
	}
}

func Test_Warmup_ProbeFailure_IsFatal(t *testing.T) {
	probeErr := errors.New("warehouse suspended")
	connector := fakewarehouse.NewConnector(loadproxy.VendorSnowflake).FailQuery("SELECT 42", probeErr)
	logger, logSpy := testdoubles.NewLogger()
	p, err := pool.New(connector, 3, pool.WithLogger(logger))
	require.NoError(t, err)

	err = p.Warmup(context.Background())

	assert.ErrorIs(t, err, loadproxy.ErrWarmupFailed)
	assert.ErrorIs(t, err, probeErr)
	assert.False(t, p.Ready())
	assert.Equal(t, 1, connector.ConnectCalls(), "no request slot is opened after a failed probe")
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelError, "warm-up failed", "slot"))
}

func Test_Warmup_ConnectFailure_AbortsSequence(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorRedshift).FailConnectAfter(2, nil)
	p, err := pool.New(connector, 5)
	require.NoError(t, err)

	err = p.Warmup(context.Background())

	assert.ErrorIs(t, err, loadproxy.ErrWarmupFailed)
	assert.ErrorIs(t, err, loadproxy.ErrConnectionFailed)
	assert.False(t, p.Ready())
	assert.Equal(t, 3, connector.ConnectCalls())
	assert.Equal(t, 2, p.Created())

	_, err = p.Get(2)
	assert.ErrorIs(t, err, loadproxy.ErrPoolNotReady)
}

func Test_Warmup_RecordsMetricsAndLogs(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorFirebolt)
	metrics := testdoubles.NewMetricsCollectorSpy()
	logger, logSpy := testdoubles.NewLogger()
	contextualLogger, contextualSpy := testdoubles.NewLogger()

	p, err := pool.New(connector, 2,
		pool.WithMetrics(metrics),
		pool.WithLogger(logger),
		pool.WithContextualLogger(contextualLogger),
	)
	require.NoError(t, err)

	require.NoError(t, p.Warmup(context.Background()))

	success := map[string]string{loadproxy.LabelVendor: "firebolt", loadproxy.LabelStatus: loadproxy.StatusSuccess}
	assert.Equal(t, 3, metrics.Count(loadproxy.MetricConnectionsCreated, success))
	assert.Equal(t, 3, metrics.Count(loadproxy.MetricConnectDuration, success))
	assert.Equal(t, 1, metrics.Count(loadproxy.MetricWarmupDuration, success))

	gauges := metrics.Records(loadproxy.MetricPoolConnections)
	require.Len(t, gauges, 3)
	assert.Equal(t, float64(3), gauges[2].Value)

	assert.True(t, logSpy.HasLog(slog.LevelInfo, "warm-up started"))
	assert.True(t, logSpy.HasLogWithAttr(slog.LevelInfo, "warm-up completed", "duration_ms"))
	assert.True(t, contextualSpy.HasLog(slog.LevelInfo, "probe connection validated"))
}
