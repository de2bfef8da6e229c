package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/oteladapters"
)

func Test_ContextualLogger_FollowsLogMode(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()

	assert.IsType(t, &oteladapters.SlogBridgeLogger{}, contextualLogger(logModeBridge, provider))
	assert.IsType(t, &oteladapters.OTelLogger{}, contextualLogger(logModeDirect, provider))
}

func Test_SetupTelemetry_RejectsUnknownLogMode(t *testing.T) {
	_, err := setupTelemetry(context.Background(), "localhost:4317", "stdout")

	assert.ErrorIs(t, err, errUnknownLogMode)
}
