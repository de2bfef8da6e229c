package httpapi

import (
	"context"
	"math"
	"net/http"
	"time"
)

func (h *Handler) logServed(ctx context.Context, requestID string, status int, err error, duration time.Duration, remote string) {
	args := []any{
		logAttrRequestID, requestID,
		logAttrStatus, status,
		logAttrDuration, math.Round(float64(duration.Nanoseconds())/1e6*1000) / 1000,
		logAttrRemote, remote,
	}

	if err != nil {
		args = append(args, logAttrError, err.Error())
	}

	switch {
	case status >= http.StatusInternalServerError:
		if h.logger != nil {
			h.logger.Error(logMsgRequest, args...)
		}
		if h.contextualLogger != nil {
			h.contextualLogger.ErrorContext(ctx, logMsgRequest, args...)
		}

	case status >= http.StatusBadRequest:
		if h.logger != nil {
			h.logger.Warn(logMsgRequest, args...)
		}
		if h.contextualLogger != nil {
			h.contextualLogger.WarnContext(ctx, logMsgRequest, args...)
		}

	default:
		if h.logger != nil {
			h.logger.Debug(logMsgRequest, args...)
		}
		if h.contextualLogger != nil {
			h.contextualLogger.DebugContext(ctx, logMsgRequest, args...)
		}
	}
}
