// Package fakewarehouse provides an in-memory loadproxy.Connector for tests.
// It records every connect and every statement so tests can assert on connection identity,
// connection counts, and which statements reached the vendor layer.
package fakewarehouse

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
)

// ErrSimulated is returned by the fake when a failure is configured without an explicit error.
var ErrSimulated = errors.New("simulated warehouse failure")

// Connector is a configurable fake implementation of loadproxy.Connector.
type Connector struct {
	vendor loadproxy.Vendor

	mu          sync.Mutex
	conns       []*Conn
	connectErr  error
	failAfter   int // connects allowed before connectErr applies; 0 means always fail
	tuneErr     error
	execErrs    map[string]error
	connectGate chan struct{}

	connectCalls atomic.Int64
}

// NewConnector creates a fake connector that succeeds by default.
func NewConnector(vendor loadproxy.Vendor) *Connector {
	return &Connector{
		vendor:    vendor,
		failAfter: -1,
		execErrs:  make(map[string]error),
	}
}

// FailConnect makes every Connect fail with err.
func (c *Connector) FailConnect(err error) *Connector {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connectErr = orSimulated(err)
	c.failAfter = 0

	return c
}

// FailConnectAfter lets the first n connects succeed and fails the rest with err.
func (c *Connector) FailConnectAfter(n int, err error) *Connector {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connectErr = orSimulated(err)
	c.failAfter = n

	return c
}

// Recover clears a configured connect failure so later connects succeed again.
func (c *Connector) Recover() *Connector {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connectErr = nil
	c.failAfter = -1

	return c
}

// FailSessionTuning makes the cache-disable statement fail with err.
func (c *Connector) FailSessionTuning(err error) *Connector {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tuneErr = orSimulated(err)

	return c
}

// FailQuery makes every execution of query fail with err, on any connection.
func (c *Connector) FailQuery(query string, err error) *Connector {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.execErrs[query] = orSimulated(err)

	return c
}

// BlockConnects makes Connect wait until the returned release function is called.
func (c *Connector) BlockConnects() (release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gate := make(chan struct{})
	c.connectGate = gate

	var once sync.Once

	return func() { once.Do(func() { close(gate) }) }
}

// Vendor implements loadproxy.Connector.
func (c *Connector) Vendor() loadproxy.Vendor {
	return c.vendor
}

// CacheDisableStatement implements loadproxy.Connector.
func (c *Connector) CacheDisableStatement() string {
	return "SET fake_result_cache=false"
}

// ProbeQuery implements loadproxy.Connector.
func (c *Connector) ProbeQuery() string {
	return "SELECT 42"
}

// Connect implements loadproxy.Connector.
func (c *Connector) Connect(ctx context.Context) (loadproxy.Conn, error) {
	call := c.connectCalls.Add(1)

	c.mu.Lock()
	gate := c.connectGate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, errors.Join(loadproxy.ErrConnectionFailed, ctx.Err())
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connectErr != nil && (c.failAfter == 0 || int(call) > c.failAfter) {
		return nil, errors.Join(loadproxy.ErrConnectionFailed, c.connectErr)
	}

	conn := &Conn{id: len(c.conns) + 1, owner: c}
	c.conns = append(c.conns, conn)

	return conn, nil
}

// ConnectCalls returns how often Connect was called, failed calls included.
func (c *Connector) ConnectCalls() int {
	return int(c.connectCalls.Load())
}

// Conns returns every connection created so far, in creation order.
func (c *Connector) Conns() []*Conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	conns := make([]*Conn, len(c.conns))
	copy(conns, c.conns)

	return conns
}

// ExecutedQueries returns every statement executed on any connection, tuning statements included.
func (c *Connector) ExecutedQueries() []string {
	var queries []string
	for _, conn := range c.Conns() {
		queries = append(queries, conn.Executed()...)
	}

	return queries
}

func (c *Connector) execErr(query string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if query == c.CacheDisableStatement() && c.tuneErr != nil {
		return c.tuneErr
	}

	return c.execErrs[query]
}

func orSimulated(err error) error {
	if err == nil {
		return ErrSimulated
	}

	return err
}

// Conn is a fake loadproxy.Conn.
type Conn struct {
	id    int
	owner *Connector

	mu       sync.Mutex
	executed []string
	closed   bool
}

// ID returns the 1-based creation index of this connection.
func (c *Conn) ID() int {
	return c.id
}

// Execute implements loadproxy.Conn.
func (c *Conn) Execute(ctx context.Context, query string) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(loadproxy.ErrQueryTimeout, err)
	}

	c.mu.Lock()
	c.executed = append(c.executed, query)
	c.mu.Unlock()

	if err := c.owner.execErr(query); err != nil {
		return errors.Join(loadproxy.ErrQueryFailed, err)
	}

	return nil
}

// Close implements loadproxy.Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	return nil
}

// Executed returns the statements executed on this connection.
func (c *Conn) Executed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	executed := make([]string, len(c.executed))
	copy(executed, c.executed)

	return executed
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

var _ loadproxy.Connector = (*Connector)(nil)
var _ loadproxy.Conn = (*Conn)(nil)
