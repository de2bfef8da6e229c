package pool

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	logMsgWarmupStarted   = "warm-up started"
	logMsgProbeSucceeded  = "probe connection validated"
	logMsgWarmupCompleted = "warm-up completed"
	logMsgWarmupFailed    = "warm-up failed"
)

// Warmup opens the probe connection and validates it with the connector's probe query,
// then opens slots 1..Size() one after another. The first failure aborts warm-up and is
// returned joined with loadproxy.ErrWarmupFailed. Ready reports true only after success.
func (p *Pool) Warmup(ctx context.Context) error {
	start := time.Now()
	vendor := string(p.connector.Vendor())

	p.logInfo(ctx, logMsgWarmupStarted, logAttrVendor, vendor, logAttrConnections, p.size)

	if err := p.probe(ctx); err != nil {
		return p.warmupFailed(ctx, start, loadproxy.ProbeSlot, err)
	}

	p.logInfo(ctx, logMsgProbeSucceeded, logAttrVendor, vendor)

	for slot := 1; slot <= p.size; slot++ {
		if _, err := p.GetOrCreate(ctx, slot); err != nil {
			return p.warmupFailed(ctx, start, slot, err)
		}
	}

	p.ready.Store(true)

	duration := time.Since(start)

	p.logInfo(ctx, logMsgWarmupCompleted,
		logAttrVendor, vendor,
		logAttrConnections, p.Created(),
		logAttrDurationMS, toMilliseconds(duration))

	loadproxy.RecordDuration(ctx, p.metricsCollector, loadproxy.MetricWarmupDuration, duration, p.labels(loadproxy.StatusSuccess))

	return nil
}

// Ready reports whether Warmup completed and the pool has not been closed since.
func (p *Pool) Ready() bool {
	return p.ready.Load()
}

func (p *Pool) probe(ctx context.Context) error {
	conn, err := p.GetOrCreate(ctx, loadproxy.ProbeSlot)
	if err != nil {
		return err
	}

	ctx, cancel := p.withConnectTimeout(ctx)
	defer cancel()

	return conn.Execute(ctx, p.connector.ProbeQuery())
}

func (p *Pool) warmupFailed(ctx context.Context, start time.Time, slot loadproxy.Slot, err error) error {
	p.logError(ctx, logMsgWarmupFailed, err, logAttrSlot, slot, logAttrVendor, string(p.connector.Vendor()))

	loadproxy.RecordDuration(ctx, p.metricsCollector, loadproxy.MetricWarmupDuration, time.Since(start), p.labels(loadproxy.StatusError))

	return errors.Join(loadproxy.ErrWarmupFailed, err)
}
