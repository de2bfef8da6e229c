package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

func newLogger(format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	options := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case logFormatText:
		return slog.New(slog.NewTextHandler(os.Stderr, options)), nil
	case logFormatJSON:
		return slog.New(slog.NewJSONHandler(os.Stderr, options)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q, use %s or %s", format, logFormatText, logFormatJSON)
	}
}
