// Command loadgen sends k6-style {query, vuID} traffic to a running loadproxy and prints a summary.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cheggaaa/pb/v3"
	"github.com/urfave/cli/v2"

	"github.com/AntonStoeckl/warehouse-loadproxy/loadproxy/loadgen"
)

func main() {
	app := &cli.App{
		Name:  "loadgen",
		Usage: "drive a loadproxy with concurrent virtual users",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: "http://localhost:3000", Usage: "proxy base URL"},
			&cli.IntFlag{Name: "vus", Value: 10, Usage: "virtual users"},
			&cli.IntFlag{Name: "iterations", Usage: "requests per virtual user, 0 runs for --duration"},
			&cli.DurationFlag{Name: "duration", Usage: "run length, e.g. 30s"},
			&cli.DurationFlag{Name: "pause", Usage: "sleep between requests of one virtual user"},
			&cli.StringFlag{Name: "queries", Usage: "file with one query per line"},
			&cli.StringFlag{Name: "query", Value: "SELECT 1", Usage: "single query, used when --queries is not set"},
			&cli.BoolFlag{Name: "progress", Value: true, Usage: "show a progress bar"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	queries := []string{c.String("query")}
	if path := c.String("queries"); path != "" {
		loaded, err := loadgen.LoadQueries(path)
		if err != nil {
			return err
		}
		queries = loaded
	}

	config := loadgen.Config{
		Target:     c.String("target"),
		VUs:        c.Int("vus"),
		Iterations: c.Int("iterations"),
		Duration:   c.Duration("duration"),
		Pause:      c.Duration("pause"),
		Queries:    queries,
	}

	options := []loadgen.Option{
		loadgen.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	}

	var bar *pb.ProgressBar
	if c.Bool("progress") {
		bar = pb.New(0)
		options = append(options, loadgen.WithProgress(func() { bar.Increment() }))
	}

	runner, err := loadgen.NewRunner(config, options...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if bar != nil {
		bar.SetTotal(int64(runner.Total())).Start()
	}

	report := runner.Run(ctx)

	if bar != nil {
		bar.Finish()
	}

	report.Print(os.Stdout)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d requests failed", report.Failed, report.Requests)
	}

	return nil
}
