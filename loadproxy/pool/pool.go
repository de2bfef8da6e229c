package pool

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

const (
	defaultConnectTimeout  = 30 * time.Second
	logMsgConnectFailed    = "pool connect failed"
	logMsgTuningFailed     = "disabling result cache failed"
	logMsgConnectionOpened = "pool connection created"
	logMsgCloseFailed      = "closing pooled connection failed"
	logMsgPoolClosed       = "pool closed"
	logAttrError           = "error"
	logAttrSlot            = "slot"
	logAttrVendor          = "vendor"
	logAttrDurationMS      = "duration_ms"
	logAttrConnections     = "connections"
	logAttrClosed          = "closed"
)

// Pool maps slots to dedicated connections. Slots are ProbeSlot and 1..Size().
type Pool struct {
	connector      loadproxy.Connector
	size           int
	connectTimeout time.Duration

	conns   sync.Map // loadproxy.Slot -> loadproxy.Conn
	created atomic.Int64
	flights singleflight.Group

	mu     sync.Mutex // guards closed against concurrent stores
	closed bool
	ready  atomic.Bool

	logger           loadproxy.Logger
	contextualLogger loadproxy.ContextualLogger
	metricsCollector loadproxy.MetricsCollector
}

// New creates an empty Pool of size connections. A size of 0 means loadproxy.DefaultPoolSize.
func New(connector loadproxy.Connector, size int, options ...Option) (*Pool, error) {
	if connector == nil {
		return nil, loadproxy.ErrNilConnector
	}

	if size < 0 {
		return nil, loadproxy.ErrInvalidPoolSize
	}

	if size == 0 {
		size = loadproxy.DefaultPoolSize
	}

	p := &Pool{
		connector:      connector,
		size:           size,
		connectTimeout: defaultConnectTimeout,
	}

	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Size returns the configured number of request slots.
func (p *Pool) Size() int {
	return p.size
}

// Created returns the number of live connections, the probe connection included.
func (p *Pool) Created() int {
	return int(p.created.Load())
}

// Vendor returns the vendor of the underlying connector.
func (p *Pool) Vendor() loadproxy.Vendor {
	return p.connector.Vendor()
}

// Get returns the connection of slot without creating one.
func (p *Pool) Get(slot loadproxy.Slot) (loadproxy.Conn, error) {
	if conn, ok := p.conns.Load(slot); ok {
		return conn.(loadproxy.Conn), nil
	}

	if p.isClosed() {
		return nil, loadproxy.ErrPoolClosed
	}

	return nil, loadproxy.ErrPoolNotReady
}

// GetOrCreate returns the connection of slot, opening and tuning it first when the slot is empty.
// Concurrent first callers for one slot share a single connect.
// On failure the slot stays empty, so a later call tries again.
func (p *Pool) GetOrCreate(ctx context.Context, slot loadproxy.Slot) (loadproxy.Conn, error) {
	if conn, ok := p.conns.Load(slot); ok {
		return conn.(loadproxy.Conn), nil
	}

	if p.isClosed() {
		return nil, loadproxy.ErrPoolClosed
	}

	result, err, _ := p.flights.Do(strconv.Itoa(slot), func() (any, error) {
		if conn, ok := p.conns.Load(slot); ok {
			return conn, nil
		}

		conn, createErr := p.create(ctx, slot)
		if createErr != nil {
			return nil, createErr
		}

		if storeErr := p.store(slot, conn); storeErr != nil {
			_ = conn.Close()
			return nil, storeErr
		}

		return conn, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(loadproxy.Conn), nil
}

func (p *Pool) create(ctx context.Context, slot loadproxy.Slot) (loadproxy.Conn, error) {
	ctx, cancel := p.withConnectTimeout(ctx)
	defer cancel()

	start := time.Now()

	conn, err := p.connector.Connect(ctx)
	if err != nil {
		p.recordConnectFailure(ctx, slot, err, logMsgConnectFailed)
		return nil, err
	}

	if statement := p.connector.CacheDisableStatement(); statement != "" {
		if tuneErr := conn.Execute(ctx, statement); tuneErr != nil {
			err = errors.Join(loadproxy.ErrSessionTuningFailed, tuneErr, conn.Close())
			p.recordConnectFailure(ctx, slot, err, logMsgTuningFailed)

			return nil, err
		}
	}

	duration := time.Since(start)

	p.logInfo(ctx, logMsgConnectionOpened,
		logAttrSlot, slot,
		logAttrVendor, string(p.connector.Vendor()),
		logAttrDurationMS, toMilliseconds(duration))

	labels := p.labels(loadproxy.StatusSuccess)
	loadproxy.RecordDuration(ctx, p.metricsCollector, loadproxy.MetricConnectDuration, duration, labels)
	loadproxy.IncrementCounter(ctx, p.metricsCollector, loadproxy.MetricConnectionsCreated, labels)

	return conn, nil
}

func (p *Pool) store(slot loadproxy.Slot, conn loadproxy.Conn) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return loadproxy.ErrPoolClosed
	}

	p.conns.Store(slot, conn)
	p.recordLiveConnections(p.created.Add(1))

	return nil
}

// Close closes every pooled connection and rejects further creation.
// Close errors are joined; calling Close again is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.ready.Store(false)

	var errs []error
	closed := 0

	p.conns.Range(func(key, value any) bool {
		p.conns.Delete(key)
		p.created.Add(-1)
		closed++

		if err := value.(loadproxy.Conn).Close(); err != nil {
			p.logWarn(context.Background(), logMsgCloseFailed, logAttrSlot, key, logAttrError, err.Error())
			errs = append(errs, err)
		}

		return true
	})

	p.recordLiveConnections(p.created.Load())
	p.logInfo(context.Background(), logMsgPoolClosed, logAttrClosed, closed)

	return errors.Join(errs...)
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

func (p *Pool) withConnectTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.connectTimeout == 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, p.connectTimeout)
}
