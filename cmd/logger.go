package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/immxrtalbeast/codecollab/internal/config"
	"github.com/immxrtalbeast/codecollab/lib/logger/slogpretty"
	"github.com/immxrtalbeast/codecollab/lib/logger/slogzap"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env, backend string) *slog.Logger {
	return newLogger(os.Stdout, env, backend)
}

func newLogger(out io.Writer, env, backend string) *slog.Logger {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	if backend == config.LogBackendZap {
		return slog.New(slogzap.NewHandler(out, slogzap.Options{Level: level}))
	}

	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(out)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog(out)
	}

	return log
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(out)

	return slog.New(handler)
}
