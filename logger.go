package viewsel

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with viewsel-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithView adds a view index field to the logger.
func (l *Logger) WithView(view int) *Logger {
	return &Logger{
		Logger: l.Logger.With("view", view),
	}
}

// WithLatent adds a latent index field to the logger.
func (l *Logger) WithLatent(latent int) *Logger {
	return &Logger{
		Logger: l.Logger.With("latent", latent),
	}
}

// WithCount adds a source-count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogRankingBuild logs the one-time similarity ranking construction.
func (l *Logger) LogRankingBuild(ctx context.Context, targets, candidates, secondaries int, duration time.Duration) {
	l.InfoContext(ctx, "similarity ranking built",
		"targets", targets,
		"candidates", candidates,
		"secondaries", secondaries,
		"duration", duration,
	)
}

// LogSelect logs a training-time source selection.
func (l *Logger) LogSelect(ctx context.Context, target, secondary, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "source selection failed",
			"target", target,
			"secondary", secondary,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "sources selected",
			"target", target,
			"secondary", secondary,
			"count", count,
		)
	}
}

// LogViewerSelect logs a viewer-path source selection.
func (l *Logger) LogViewerSelect(ctx context.Context, latent, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "viewer selection failed",
			"latent", latent,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "viewer sources selected",
			"latent", latent,
			"count", count,
		)
	}
}

// LogLoad logs a payload loading operation.
func (l *Logger) LogLoad(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "payload load failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "payloads loaded",
			"count", count,
		)
	}
}

// LogSnapshot logs a ranking snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "ranking snapshot failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "ranking snapshot written",
			"filename", filename,
		)
	}
}
