package dispatch

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	defaultQueryTimeout = 60 * time.Second
	spanNameExecute     = "loadproxy.execute"
	spanAttrSlot        = "loadproxy.slot"
	spanAttrVuID        = "loadproxy.vu_id"
	spanAttrVendor      = "loadproxy.vendor"
	spanAttrDurationMS  = "loadproxy.duration_ms"
	logMsgExecuted      = "query executed"
	logMsgExecuteFailed = "query execution failed"
	logMsgRejected      = "request rejected"
	logAttrError        = "error"
	logAttrSlot         = "slot"
	logAttrVuID         = "vu_id"
	logAttrVendor       = "vendor"
	logAttrDurationMS   = "duration_ms"
	errorTypeTimeout    = "timeout"
	errorTypeQuery      = "query"
	errorTypeNotReady   = "not_ready"
)

var (
	errNegativeQueryTimeout = errors.New("query timeout must not be negative")
	errNilSource            = errors.New("nil connection source supplied")
)

// ConnectionSource supplies the already-open connection of a slot. *pool.Pool satisfies it.
type ConnectionSource interface {
	Get(slot loadproxy.Slot) (loadproxy.Conn, error)
	Size() int
	Vendor() loadproxy.Vendor
}

// Dispatcher executes one request on the connection of the requesting worker's slot.
type Dispatcher struct {
	source       ConnectionSource
	queryTimeout time.Duration

	logger           loadproxy.Logger
	contextualLogger loadproxy.ContextualLogger
	metricsCollector loadproxy.MetricsCollector
	tracingCollector loadproxy.TracingCollector
}

// Option defines a functional option for configuring a Dispatcher.
type Option func(*Dispatcher) error

// WithQueryTimeout bounds every execution. Zero disables the bound.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) error {
		if timeout < 0 {
			return errors.Join(loadproxy.ErrLoadingConfigFailed, errNegativeQueryTimeout)
		}

		d.queryTimeout = timeout

		return nil
	}
}

// WithLogger sets the logger for the Dispatcher.
//
// Debug level: executed requests with slot and timing
// Warn level: rejected requests
// Error level: failed executions.
func WithLogger(logger loadproxy.Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// WithContextualLogger sets a logger that also receives the request context.
func WithContextualLogger(logger loadproxy.ContextualLogger) Option {
	return func(d *Dispatcher) error {
		d.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for execution durations and errors.
func WithMetrics(collector loadproxy.MetricsCollector) Option {
	return func(d *Dispatcher) error {
		d.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector; every request gets one span.
func WithTracing(collector loadproxy.TracingCollector) Option {
	return func(d *Dispatcher) error {
		d.tracingCollector = collector
		return nil
	}
}

// New creates a Dispatcher reading connections from source.
func New(source ConnectionSource, options ...Option) (*Dispatcher, error) {
	if source == nil {
		return nil, errNilSource
	}

	d := &Dispatcher{
		source:       source,
		queryTimeout: defaultQueryTimeout,
	}

	for _, option := range options {
		if err := option(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Handle validates req, resolves its slot and executes the query there.
// Invalid requests fail with loadproxy.ErrBadRequest before any connection is touched.
// Execution failures are returned as they are; nothing is retried.
func (d *Dispatcher) Handle(ctx context.Context, req loadproxy.QueryRequest) error {
	if err := req.Validate(); err != nil {
		d.logWarn(ctx, logMsgRejected, logAttrError, err.Error())
		return err
	}

	vuID := req.WorkerID()
	slot := loadproxy.SlotFor(vuID, d.source.Size())

	ctx, span := d.startSpan(ctx, slot, vuID)
	start := time.Now()

	conn, err := d.source.Get(slot)
	if err != nil {
		d.finish(ctx, span, slot, vuID, time.Since(start), err)
		return err
	}

	execCtx, cancel := d.withQueryTimeout(ctx)
	defer cancel()

	err = conn.Execute(execCtx, req.Query)
	d.finish(ctx, span, slot, vuID, time.Since(start), err)

	return err
}

func (d *Dispatcher) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.queryTimeout == 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d.queryTimeout)
}

func (d *Dispatcher) startSpan(ctx context.Context, slot loadproxy.Slot, vuID loadproxy.WorkerID) (context.Context, loadproxy.SpanContext) {
	if d.tracingCollector == nil {
		return ctx, nil
	}

	return d.tracingCollector.StartSpan(ctx, spanNameExecute, map[string]string{
		spanAttrSlot:   strconv.Itoa(slot),
		spanAttrVuID:   strconv.FormatInt(vuID, 10),
		spanAttrVendor: string(d.source.Vendor()),
	})
}

func (d *Dispatcher) finish(
	ctx context.Context,
	span loadproxy.SpanContext,
	slot loadproxy.Slot,
	vuID loadproxy.WorkerID,
	duration time.Duration,
	err error,
) {
	status := statusOf(err)
	labels := map[string]string{
		loadproxy.LabelVendor: string(d.source.Vendor()),
		loadproxy.LabelStatus: status,
	}

	loadproxy.RecordDuration(ctx, d.metricsCollector, loadproxy.MetricExecuteDuration, duration, labels)

	spanAttrs := map[string]string{spanAttrDurationMS: strconv.FormatFloat(toMilliseconds(duration), 'f', 3, 64)}

	if err != nil {
		errorType := errorTypeOf(err)
		errorLabels := map[string]string{
			loadproxy.LabelVendor:    string(d.source.Vendor()),
			loadproxy.LabelErrorType: errorType,
		}
		loadproxy.IncrementCounter(ctx, d.metricsCollector, loadproxy.MetricExecuteErrors, errorLabels)

		d.logError(ctx, logMsgExecuteFailed, err,
			logAttrSlot, slot,
			logAttrVuID, vuID,
			logAttrVendor, string(d.source.Vendor()),
			logAttrDurationMS, toMilliseconds(duration))

		spanAttrs[loadproxy.LabelErrorType] = errorType
	} else {
		d.logDebug(ctx, logMsgExecuted,
			logAttrSlot, slot,
			logAttrVuID, vuID,
			logAttrDurationMS, toMilliseconds(duration))
	}

	if d.tracingCollector != nil && span != nil {
		d.tracingCollector.FinishSpan(span, status, spanAttrs)
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return loadproxy.StatusSuccess
	case errors.Is(err, loadproxy.ErrQueryTimeout):
		return loadproxy.StatusTimeout
	default:
		return loadproxy.StatusError
	}
}

func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, loadproxy.ErrQueryTimeout):
		return errorTypeTimeout
	case errors.Is(err, loadproxy.ErrPoolNotReady), errors.Is(err, loadproxy.ErrPoolClosed):
		return errorTypeNotReady
	default:
		return errorTypeQuery
	}
}
