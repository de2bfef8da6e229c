package warehouse

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

// session is one open warehouse connection.
// sem serializes statements: the vendor drivers do not support concurrent use of a session.
type session struct {
	sem    chan struct{}
	db     adapters.DBConn
	vendor loadproxy.Vendor
	mode   loadproxy.ResultMode
	logger loadproxy.Logger

	closeOnce sync.Once
	closeErr  error
}

func newSession(db adapters.DBConn, vendor loadproxy.Vendor, mode loadproxy.ResultMode, logger loadproxy.Logger) *session {
	return &session{
		sem:    make(chan struct{}, 1),
		db:     db,
		vendor: vendor,
		mode:   mode,
		logger: logger,
	}
}

// Execute runs query and discards any result rows.
// Failures are wrapped in loadproxy.ErrQueryFailed, deadline overruns in loadproxy.ErrQueryTimeout.
// Waiting for a statement still running on the session ends when ctx does.
func (s *session) Execute(ctx context.Context, query string) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return classifyQueryError(ctx, ctx.Err())
	}
	defer func() { <-s.sem }()

	start := time.Now()

	var rowsFetched int64
	var err error

	switch s.mode {
	case loadproxy.ResultModeExecute:
		err = s.db.Exec(ctx, query)

	default:
		rowsFetched, err = s.fetchAndDiscard(ctx, query)
	}

	duration := time.Since(start)

	if err != nil {
		if s.logger != nil {
			s.logger.Error(logMsgQueryFailed,
				logAttrError, err.Error(),
				logAttrVendor, string(s.vendor),
				logAttrQuery, query,
				logAttrDurationMS, toMilliseconds(duration))
		}

		return classifyQueryError(ctx, err)
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted,
			logAttrVendor, string(s.vendor),
			logAttrQuery, query,
			logAttrRowsFetched, rowsFetched,
			logAttrDurationMS, toMilliseconds(duration))
	}

	return nil
}

func (s *session) fetchAndDiscard(ctx context.Context, query string) (int64, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return 0, err
	}

	return adapters.Drain(rows)
}

// Close terminates the session; repeated calls return the first result.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultCloseTimeout)
		defer cancel()

		s.closeErr = s.db.Close(ctx)
		if s.closeErr != nil && s.logger != nil {
			s.logger.Warn(logMsgCloseFailed, logAttrError, s.closeErr.Error(), logAttrVendor, string(s.vendor))
		}
	})

	return s.closeErr
}

func classifyQueryError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Join(loadproxy.ErrQueryTimeout, err)
	}

	return errors.Join(loadproxy.ErrQueryFailed, err)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

var _ loadproxy.Conn = (*session)(nil)
