package health

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/wspubsub/core/handler"
	"github.com/dmitrymomot/wspubsub/core/logger"
	"github.com/dmitrymomot/wspubsub/core/response"
)

// Readiness returns "READY" when every check succeeds and 503 otherwise.
func Readiness[C handler.Context](log *slog.Logger, checks ...func(context.Context) error) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed", logger.Error(err))
				return response.Error(response.ErrServiceUnavailable)
			}
		}
		return response.String("READY")
	}
}
