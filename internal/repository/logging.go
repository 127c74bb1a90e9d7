package repository

import (
	"context"
	"log/slog"

	"estatehub/internal/middleware"
)

func logRepoWarn(ctx context.Context, msg string, err error) {
	middleware.Logger.WarnContext(ctx, msg, slog.String("error", err.Error()))
}
