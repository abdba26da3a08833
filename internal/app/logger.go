package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/specialistvlad/plume/internal/ctxlog"
)

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

// withLogFile returns a context whose logger writes to the console and to
// name, relative to the project root. The file is truncated, so it only
// holds the latest run.
func (a *App) withLogFile(ctx context.Context, name string) (context.Context, error) {
	if name == "" {
		return ctx, nil
	}
	path := filepath.Join(a.config.Root, filepath.FromSlash(name))
	f, err := os.Create(path)
	if err != nil {
		return ctx, fmt.Errorf("open log file: %w", err)
	}
	a.closers = append(a.closers, f)

	logger := newLogger(a.config.LogLevel, a.config.LogFormat, io.MultiWriter(a.outW, f)).
		With("run_id", a.runID)
	logger.Debug("Logging to file.", "path", path)
	return ctxlog.WithLogger(ctx, logger), nil
}
