package config

import (
	"io"
	"log/slog"
	"os"
)

const serviceName = "vivo"

func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

// NewLoggerTo is NewLogger writing to w; CLIs keep stdout for results
func NewLoggerTo(env string, w io.Writer) *slog.Logger {
	return newLogger(env, w)
}

func newLogger(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		AddSource: env == "development",
	}

	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(w, opts)
	} else {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", serviceName, "env", env)
}
