package observability

import (
	"context"
	"log/slog"
	"time"
)

// StoreLogger provides structured logging for catalog sync and mutations.
type StoreLogger struct {
	component string
	logger    *slog.Logger
}

// NewStoreLogger creates a StoreLogger tagged with component.
func NewStoreLogger(component string) *StoreLogger {
	return &StoreLogger{
		component: component,
		logger:    slog.Default(),
	}
}

// LogSync logs a completed snapshot reload.
func (l *StoreLogger) LogSync(ctx context.Context, reason string, count int, elapsed time.Duration) {
	l.logger.InfoContext(ctx, "catalog synced",
		slog.String("component", l.component),
		slog.String("reason", reason),
		slog.Int("listings", count),
		slog.Duration("elapsed", elapsed),
	)
}

// LogMutation logs a mutation forwarded to the remote store.
func (l *StoreLogger) LogMutation(ctx context.Context, operation, id string) {
	l.logger.InfoContext(ctx, "catalog mutation",
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("listing_id", id),
	)
}

// LogError logs a failed operation. The caller keeps serving its last snapshot.
func (l *StoreLogger) LogError(ctx context.Context, err error, operation string) {
	l.logger.ErrorContext(ctx, "catalog error",
		slog.String("component", l.component),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// LogWarn logs a degraded but non-failing condition.
func (l *StoreLogger) LogWarn(ctx context.Context, msg string, attrs ...any) {
	l.logger.WarnContext(ctx, msg, append([]any{slog.String("component", l.component)}, attrs...)...)
}
