package pool_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/pool"
	"github.com/AntonStoeckl/warehouse-loadproxy/testutil/fakewarehouse"
	"github.com/AntonStoeckl/warehouse-loadproxy/testutil/observability/testdoubles"
)

const tuningStatement = "SET fake_result_cache=false"

func Test_New_ShouldFail_WithNilConnector(t *testing.T) {
	_, err := pool.New(nil, 3)

	assert.ErrorIs(t, err, loadproxy.ErrNilConnector)
}

func Test_New_ShouldFail_WithNegativeSize(t *testing.T) {
	_, err := pool.New(fakewarehouse.NewConnector(loadproxy.VendorFirebolt), -1)

	assert.ErrorIs(t, err, loadproxy.ErrInvalidPoolSize)
	assert.True(t, loadproxy.IsConfigError(err))
}

func Test_New_ZeroSizeMeansDefault(t *testing.T) {
	p, err := pool.New(fakewarehouse.NewConnector(loadproxy.VendorFirebolt), 0)
	require.NoError(t, err)

	assert.Equal(t, loadproxy.DefaultPoolSize, p.Size())
	assert.Equal(t, 0, p.Created())
	assert.False(t, p.Ready())
}

func Test_New_ShouldFail_WithNegativeConnectTimeout(t *testing.T) {
	_, err := pool.New(fakewarehouse.NewConnector(loadproxy.VendorFirebolt), 1, pool.WithConnectTimeout(-time.Second))

	assert.ErrorIs(t, err, loadproxy.ErrLoadingConfigFailed)
}

func Test_GetOrCreate_OpensAndTunesOnce(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorSnowflake)
	p, err := pool.New(connector, 2)
	require.NoError(t, err)

	first, err := p.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)

	second, err := p.GetOrCreate(context.Background(), 1)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, connector.ConnectCalls())
	assert.Equal(t, 1, p.Created())
	assert.Equal(t, []string{tuningStatement}, first.(*fakewarehouse.Conn).Executed())
}

func Test_GetOrCreate_ConcurrentFirstUse_ConnectsOnce(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorFirebolt)
	release := connector.BlockConnects()
	p, err := pool.New(connector, 4)
	require.NoError(t, err)

	const callers = 16
	results := make([]loadproxy.Conn, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, createErr := p.GetOrCreate(context.Background(), 3)
			assert.NoError(t, createErr)
			results[i] = conn
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, 1, connector.ConnectCalls())
	for _, conn := range results {
		assert.Same(t, results[0], conn)
	}
}

func Test_GetOrCreate_ConnectFailure_LeavesSlotEmptyAndRetries(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorRedshift).FailConnect(nil)
	p, err := pool.New(connector, 2)
	require.NoError(t, err)

	_, err = p.GetOrCreate(context.Background(), 2)
	assert.ErrorIs(t, err, loadproxy.ErrConnectionFailed)

	_, err = p.Get(2)
	assert.ErrorIs(t, err, loadproxy.ErrPoolNotReady)
	assert.Equal(t, 0, p.Created())

	connector.Recover()

	conn, err := p.GetOrCreate(context.Background(), 2)
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.Equal(t, 2, connector.ConnectCalls())
}

func Test_GetOrCreate_TuningFailure_ClosesConnection(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorSnowflake).FailSessionTuning(nil)
	metrics := testdoubles.NewMetricsCollectorSpy()
	p, err := pool.New(connector, 2, pool.WithMetrics(metrics))
	require.NoError(t, err)

	_, err = p.GetOrCreate(context.Background(), 1)

	assert.ErrorIs(t, err, loadproxy.ErrSessionTuningFailed)
	require.Len(t, connector.Conns(), 1)
	assert.True(t, connector.Conns()[0].Closed())
	assert.Equal(t, 0, p.Created())
	assert.Equal(t, 1, metrics.Count(loadproxy.MetricConnectionErrors, map[string]string{
		loadproxy.LabelErrorType: "session_tuning",
		loadproxy.LabelSlot:      "1",
	}))
}

func Test_GetOrCreate_RespectsConnectTimeout(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorFirebolt)
	release := connector.BlockConnects()
	defer release()

	p, err := pool.New(connector, 1, pool.WithConnectTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = p.GetOrCreate(context.Background(), 1)

	assert.ErrorIs(t, err, loadproxy.ErrConnectionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func Test_Get_NeverCreates(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorFirebolt)
	p, err := pool.New(connector, 2)
	require.NoError(t, err)

	_, err = p.Get(1)

	assert.ErrorIs(t, err, loadproxy.ErrPoolNotReady)
	assert.Equal(t, 0, connector.ConnectCalls())
}

func Test_Close_ClosesEveryConnection(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorFirebolt)
	logger, logSpy := testdoubles.NewLogger()
	p, err := pool.New(connector, 3, pool.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, p.Warmup(context.Background()))

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	for _, conn := range connector.Conns() {
		assert.True(t, conn.Closed(), "conn %d", conn.ID())
	}

	assert.Equal(t, 0, p.Created())
	assert.False(t, p.Ready())
	assert.True(t, logSpy.HasLog(slog.LevelInfo, "pool closed"))

	_, err = p.Get(1)
	assert.ErrorIs(t, err, loadproxy.ErrPoolClosed)

	_, err = p.GetOrCreate(context.Background(), 1)
	assert.ErrorIs(t, err, loadproxy.ErrPoolClosed)
	assert.Equal(t, 4, connector.ConnectCalls())
}

func Test_Close_ResetsLiveConnectionGauge(t *testing.T) {
	connector := fakewarehouse.NewConnector(loadproxy.VendorFirebolt)
	metrics := testdoubles.NewMetricsCollectorSpy()
	p, err := pool.New(connector, 2, pool.WithMetrics(metrics))
	require.NoError(t, err)
	require.NoError(t, p.Warmup(context.Background()))

	require.NoError(t, p.Close())

	gauges := metrics.Records(loadproxy.MetricPoolConnections)
	require.Len(t, gauges, 4)
	assert.Equal(t, float64(3), gauges[2].Value)
	assert.Equal(t, float64(0), gauges[3].Value)
	assert.Equal(t, "firebolt", gauges[3].Labels[loadproxy.LabelVendor])
}
