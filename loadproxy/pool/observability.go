package pool

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	errorTypeConnect = "connect"
	errorTypeTuning  = "session_tuning"
)

func (p *Pool) logInfo(ctx context.Context, msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}

	if p.contextualLogger != nil {
		p.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (p *Pool) logWarn(ctx context.Context, msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}

	if p.contextualLogger != nil {
		p.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (p *Pool) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if p.logger != nil {
		p.logger.Error(msg, allArgs...)
	}

	if p.contextualLogger != nil {
		p.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

func (p *Pool) labels(status string) map[string]string {
	return map[string]string{
		loadproxy.LabelVendor: string(p.connector.Vendor()),
		loadproxy.LabelStatus: status,
	}
}

func (p *Pool) recordConnectFailure(ctx context.Context, slot loadproxy.Slot, err error, msg string) {
	p.logError(ctx, msg, err, logAttrSlot, slot, logAttrVendor, string(p.connector.Vendor()))

	labels := p.labels(loadproxy.StatusError)
	labels[loadproxy.LabelSlot] = strconv.Itoa(slot)
	labels[loadproxy.LabelErrorType] = errorTypeConnect
	if msg == logMsgTuningFailed {
		labels[loadproxy.LabelErrorType] = errorTypeTuning
	}

	loadproxy.IncrementCounter(ctx, p.metricsCollector, loadproxy.MetricConnectionErrors, labels)
}

func (p *Pool) recordLiveConnections(live int64) {
	loadproxy.RecordValue(context.Background(), p.metricsCollector, loadproxy.MetricPoolConnections, float64(live),
		map[string]string{loadproxy.LabelVendor: string(p.connector.Vendor())})
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
