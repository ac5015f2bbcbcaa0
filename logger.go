package meshtopo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with meshtopo-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRank adds a rank field to the logger.
func (l *Logger) WithRank(rank int) *Logger {
	return &Logger{
		Logger: l.Logger.With("rank", rank),
	}
}

// WithDimension adds a topological dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogTopology logs the outcome of CreateTopology.
func (l *Logger) LogTopology(ctx context.Context, owned, ghosts, cells int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "topology construction failed",
			"duration", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "topology created",
			"owned_vertices", owned,
			"ghost_vertices", ghosts,
			"cells", cells,
			"duration", elapsed,
		)
	}
}

// LogEntities logs an entity creation.
func (l *Logger) LogEntities(ctx context.Context, dim int, owned int32, err error) {
	if err != nil {
		l.ErrorContext(ctx, "entity creation failed",
			"dimension", dim,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "entities created",
			"dimension", dim,
			"owned", owned,
		)
	}
}

// LogConnectivity logs a connectivity computation.
func (l *Logger) LogConnectivity(ctx context.Context, d0, d1 int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "connectivity failed",
			"d0", d0,
			"d1", d1,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "connectivity created",
			"d0", d0,
			"d1", d1,
		)
	}
}
