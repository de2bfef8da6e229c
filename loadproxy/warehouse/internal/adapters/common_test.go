package adapters_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/warehouse/internal/adapters"
)

type countingRows struct {
	left     int
	iterErr  error
	closeErr error
	closed   int
}

func (r *countingRows) Next() bool {
	if r.left == 0 {
		return false
	}
	r.left--

	return true
}

func (r *countingRows) Err() error {
	return r.iterErr
}

func (r *countingRows) Close() error {
	r.closed++
	return r.closeErr
}

func Test_Drain_CountsAndCloses(t *testing.T) {
	rows := &countingRows{left: 5}

	n, err := adapters.Drain(rows)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, 1, rows.closed)
}

func Test_Drain_PrefersIterationError(t *testing.T) {
	iterErr := errors.New("iteration failed")
	rows := &countingRows{left: 1, iterErr: iterErr, closeErr: errors.New("close failed")}

	n, err := adapters.Drain(rows)

	assert.ErrorIs(t, err, iterErr)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, rows.closed)
}

func Test_Drain_ReportsCloseError(t *testing.T) {
	closeErr := errors.New("close failed")

	_, err := adapters.Drain(&countingRows{closeErr: closeErr})

	assert.ErrorIs(t, err, closeErr)
}
