package dispatch

import (
	"context"
	"math"
	"time"
)

func (d *Dispatcher) logDebug(ctx context.Context, msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}

	if d.contextualLogger != nil {
		d.contextualLogger.DebugContext(ctx, msg, args...)
	}
}

func (d *Dispatcher) logWarn(ctx context.Context, msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}

	if d.contextualLogger != nil {
		d.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (d *Dispatcher) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if d.logger != nil {
		d.logger.Error(msg, allArgs...)
	}

	if d.contextualLogger != nil {
		d.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
