package behavior

import (
	"context"

	"github.com/google/uuid"

	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
)

// RequestID makes sure every dispatch carries a request id in its context.
// An id set by the transport is kept.
func RequestID() mediator.OpenBehavior {
	return &named{name: "behavior.RequestID", fn: func(ctx context.Context, _ any, next mediator.NextAny) (any, error) {
		if logger.RequestIDFromContext(ctx) == "" {
			ctx = logger.WithRequestID(ctx, uuid.NewString())
		}
		return next(ctx)
	}}
}
