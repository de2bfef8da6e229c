package adapters_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

func newMockSQLX(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newMockDB(t)

	return sqlx.NewDb(db, "sqlmock"), mock
}

func Test_SQLXConnAdapter_PinsOneConnection(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockSQLX(t)
	mock.ExpectPing()

	adapter, err := adapters.NewSQLXConnAdapter(ctx, db)
	require.NoError(t, err)

	stats := db.Stats()
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Equal(t, 1, stats.OpenConnections)
	assert.Equal(t, 1, stats.InUse)

	mock.ExpectQuery(sampleQuery).WillReturnRows(sqlmock.NewRows([]string{sampleColumn}).AddRow(42))
	mock.ExpectClose()

	rows, err := adapter.Query(ctx, sampleQuery)
	require.NoError(t, err)

	n, err := adapters.Drain(rows)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, adapter.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SQLXConnAdapter_Exec_IssuesNoRowQuery(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockSQLX(t)
	mock.ExpectPing()

	adapter, err := adapters.NewSQLXConnAdapter(ctx, db)
	require.NoError(t, err)

	mock.ExpectExec(tuningStatement).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	require.NoError(t, adapter.Exec(ctx, tuningStatement))
	require.NoError(t, adapter.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SQLXConnAdapter_QueryError_IsReturned(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockSQLX(t)
	mock.ExpectPing()

	adapter, err := adapters.NewSQLXConnAdapter(ctx, db)
	require.NoError(t, err)

	queryErr := errors.New("SQL compilation error")
	mock.ExpectQuery("SELECT * FORM t").WillReturnError(queryErr)
	mock.ExpectClose()

	_, err = adapter.Query(ctx, "SELECT * FORM t")
	assert.ErrorIs(t, err, queryErr)

	require.NoError(t, adapter.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_SQLXConnAdapter_PingFailure_ClosesConnectionAndHandle(t *testing.T) {
	db, mock := newMockSQLX(t)
	pingErr := errors.New("incorrect username or password")
	mock.ExpectPing().WillReturnError(pingErr)
	mock.ExpectClose()

	adapter, err := adapters.NewSQLXConnAdapter(context.Background(), db)

	assert.Nil(t, adapter)
	assert.ErrorIs(t, err, pingErr)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.ErrorContains(t, db.Ping(), closedDBFragment)
}

func Test_SQLXConnAdapter_Close_JoinsConnectionAndHandleErrors(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockSQLX(t)
	mock.ExpectPing()

	adapter, err := adapters.NewSQLXConnAdapter(ctx, db)
	require.NoError(t, err)

	closeErr := errors.New("connection reset by peer")
	mock.ExpectClose().WillReturnError(closeErr)

	assert.ErrorIs(t, adapter.Close(ctx), closeErr)
	assert.ErrorIs(t, adapter.Close(ctx), sql.ErrConnDone)
}
