// Command loadproxy holds one warehouse connection per slot and executes the queries
// that load-test workers post to it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/config"
	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/service"
)

var Version = "dev"

const envPort = "PORT"

func main() {
	app := &cli.App{
		Name:    "loadproxy",
		Usage:   "per-worker connection pool for warehouse benchmarks",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: config.DefaultConfigPath, Usage: "run configuration file (.json, .yaml, .yml)"},
			&cli.StringFlag{Name: "creds", Usage: "legacy JSON credentials file, environment variables take precedence"},
			&cli.StringFlag{Name: "env-file", Value: config.DefaultEnvFile, Usage: ".env file loaded without overriding the environment"},
			&cli.IntFlag{Name: "port", Value: service.DefaultPort, Usage: "listen port, falls back to $PORT"},
			&cli.StringFlag{Name: "log-format", Value: logFormatText, Usage: "text or json"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "otlp-endpoint", Usage: "OTLP gRPC endpoint, enables metrics, traces and log export"},
			&cli.StringFlag{Name: "otlp-log-mode", Value: logModeBridge, Usage: "bridge (otelslog) or direct (otel log records)"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.String("log-format"), c.String("log-level"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader, err := config.NewLoader(config.WithLogger(logger))
	if err != nil {
		return err
	}

	if err = loader.DotEnv(c.String("env-file")); err != nil {
		return err
	}

	port, err := listenPort(c)
	if err != nil {
		return err
	}

	options := []service.Option{
		service.WithConfigPath(c.String("config")),
		service.WithCredentialsPath(c.String("creds")),
		service.WithEnvFile(""),
		service.WithPort(port),
		service.WithLogger(logger),
	}

	if endpoint := c.String("otlp-endpoint"); endpoint != "" {
		telemetry, telemetryErr := setupTelemetry(ctx, endpoint, c.String("otlp-log-mode"))
		if telemetryErr != nil {
			return telemetryErr
		}

		defer func() {
			if shutdownErr := telemetry.Shutdown(); shutdownErr != nil {
				logger.Warn("telemetry shutdown failed", "error", shutdownErr.Error())
			}
		}()

		options = append(options,
			service.WithMetrics(telemetry.Metrics),
			service.WithTracing(telemetry.Tracing),
			service.WithContextualLogger(telemetry.Logger),
		)
	}

	svc, err := service.New(options...)
	if err != nil {
		return err
	}

	return svc.Run(ctx)
}

// listenPort prefers --port, then $PORT (possibly set by the .env file), then the default.
func listenPort(c *cli.Context) (int, error) {
	if c.IsSet("port") {
		return c.Int("port"), nil
	}

	if value := os.Getenv(envPort); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", envPort, value, err)
		}

		return port, nil
	}

	return c.Int("port"), nil
}
