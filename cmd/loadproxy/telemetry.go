package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/oteladapters"
)

const (
	instrumentationName    = "github.com/AntonStoeckl/warehouse-loadproxy"
	metricExportInterval   = 5 * time.Second
	telemetryShutdownAfter = 5 * time.Second

	// logModeBridge routes contextual logs through the otelslog bridge,
	// logModeDirect emits otel log records without slog in between.
	logModeBridge = "bridge"
	logModeDirect = "direct"
)

var errUnknownLogMode = errors.New("unknown OTLP log mode")

type telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider

	Metrics *oteladapters.MetricsCollector
	Tracing *oteladapters.TracingCollector
	Logger  loadproxy.ContextualLogger
}

// setupTelemetry exports traces, metrics and logs over OTLP gRPC to endpoint.
func setupTelemetry(ctx context.Context, endpoint, logMode string) (*telemetry, error) {
	if err := validateLogMode(logMode); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String("loadproxy"),
		semconv.ServiceVersionKey.String(Version),
	))
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	logExporter, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpoint(endpoint), otlploggrpc.WithInsecure())
	if err != nil {
		return nil, err
	}

	t := &telemetry{
		tracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
		),
		meterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(metricExportInterval))),
			sdkmetric.WithResource(res),
		),
		loggerProvider: sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		),
	}

	otel.SetTracerProvider(t.tracerProvider)
	otel.SetMeterProvider(t.meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Metrics = oteladapters.NewMetricsCollector(t.meterProvider.Meter(instrumentationName))
	t.Tracing = oteladapters.NewTracingCollector(t.tracerProvider.Tracer(instrumentationName))
	t.Logger = contextualLogger(logMode, t.loggerProvider)

	return t, nil
}

func validateLogMode(mode string) error {
	switch mode {
	case logModeBridge, logModeDirect:
		return nil
	default:
		return fmt.Errorf("%w %q, use %s or %s", errUnknownLogMode, mode, logModeBridge, logModeDirect)
	}
}

func contextualLogger(mode string, provider *sdklog.LoggerProvider) loadproxy.ContextualLogger {
	if mode == logModeDirect {
		return oteladapters.NewOTelLogger(provider.Logger(instrumentationName))
	}

	return oteladapters.NewSlogBridgeLogger(instrumentationName, provider)
}

// Shutdown flushes and stops every provider.
func (t *telemetry) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownAfter)
	defer cancel()

	return errors.Join(
		t.tracerProvider.Shutdown(ctx),
		t.meterProvider.Shutdown(ctx),
		t.loggerProvider.Shutdown(ctx),
	)
}
