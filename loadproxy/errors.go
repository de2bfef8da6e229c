package loadproxy

import (
	"errors"
)

// Configuration errors are fatal at startup.
var (
	ErrUnknownVendor       = errors.New("unknown vendor")
	ErrInvalidPoolSize     = errors.New("invalid pool size, connections_per_thread must not be negative")
	ErrInvalidResultMode   = errors.New("invalid result mode")
	ErrLoadingConfigFailed = errors.New("loading config failed")
)

// Connection errors are fatal during warm-up and reported during lazy creation.
var (
	ErrConnectionFailed    = errors.New("connecting to warehouse failed")
	ErrSessionTuningFailed = errors.New("disabling the result cache failed")
	ErrWarmupFailed        = errors.New("warm-up failed")
)

// Query errors are reported to the request caller and never fatal to the process.
var (
	ErrQueryFailed  = errors.New("query execution failed")
	ErrQueryTimeout = errors.New("query execution timed out")
)

// ErrBadRequest marks a malformed inbound request.
var ErrBadRequest = errors.New("bad request")

// Pool state errors.
var (
	ErrPoolNotReady = errors.New("pool not ready, slot has no connection")
	ErrPoolClosed   = errors.New("pool is closed")
	ErrNilConnector = errors.New("nil connector supplied")
)

// IsConfigError reports whether err is caused by an invalid configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownVendor) ||
		errors.Is(err, ErrInvalidPoolSize) ||
		errors.Is(err, ErrInvalidResultMode) ||
		errors.Is(err, ErrLoadingConfigFailed)
}

// IsBadRequest reports whether err is caused by a malformed request.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsQueryError reports whether err is a vendor execution failure, timeouts included.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQueryFailed) || errors.Is(err, ErrQueryTimeout)
}
