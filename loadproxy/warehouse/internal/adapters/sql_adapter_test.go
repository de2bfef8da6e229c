package adapters_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

const (
	sampleQuery      = "SELECT 42"
	tuningStatement  = "SET enable_result_cache=false"
	sampleColumn     = "?column?"
	closedDBFragment = "database is closed"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(
		sqlmock.MonitorPingsOption(true),
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual),
	)
	require.NoError(t, err)

	return db, mock
}

func Test_SQLConnAdapter_PinsOneConnection(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	mock.ExpectPing()

	adapter, err := adapters.NewSQLConnAdapter(ctx, db)
	require.NoError(t, err)

	stats := db.Stats()
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Equal(t, 1, stats.OpenConnections)
	assert.Equal(t, 1, stats.InUse)

	mock.ExpectQuery(sampleQuery).WillReturnRows(sqlmock.NewRows([]string{sampleColumn}).AddRow(42).AddRow(43))
	mock.ExpectClose()

	rows, err := adapter.Query(ctx, sampleQuery)
	require.NoError(t, err)

	n, err := adapters.Drain(rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, db.Stats().OpenConnections)

	require.NoError(t, adapter.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SQLConnAdapter_Exec_IssuesNoRowQuery(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	mock.ExpectPing()

	adapter, err := adapters.NewSQLConnAdapter(ctx, db)
	require.NoError(t, err)

	mock.ExpectExec(tuningStatement).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	require.NoError(t, adapter.Exec(ctx, tuningStatement))
	require.NoError(t, adapter.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SQLConnAdapter_PingFailure_ClosesConnectionAndHandle(t *testing.T) {
	db, mock := newMockDB(t)
	pingErr := errors.New("password authentication failed")
	mock.ExpectPing().WillReturnError(pingErr)
	mock.ExpectClose()

	adapter, err := adapters.NewSQLConnAdapter(context.Background(), db)

	assert.Nil(t, adapter)
	assert.ErrorIs(t, err, pingErr)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.ErrorContains(t, db.Ping(), closedDBFragment)
}

func Test_SQLConnAdapter_Close_JoinsConnectionAndHandleErrors(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	mock.ExpectPing()

	adapter, err := adapters.NewSQLConnAdapter(ctx, db)
	require.NoError(t, err)

	closeErr := errors.New("connection reset by peer")
	mock.ExpectClose().WillReturnError(closeErr)

	assert.ErrorIs(t, adapter.Close(ctx), closeErr)
	assert.ErrorIs(t, adapter.Close(ctx), sql.ErrConnDone)
}
