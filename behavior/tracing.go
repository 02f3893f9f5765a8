package behavior

import (
	"context"

	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
	"github.com/kbukum/mediator/observability"
	"github.com/kbukum/mediator/resilience"
)

// SpanSend is the span name of a traced dispatch.
const SpanSend = "mediator.send"

// Tracing wraps each dispatch in a span and exposes its trace id to loggers.
func Tracing() mediator.OpenBehavior {
	return &named{name: "behavior.Tracing", fn: func(ctx context.Context, request any, next mediator.NextAny) (out any, err error) {
		ctx, op := observability.StartOperation(ctx, SpanSend, mediator.RequestName(request))
		if id := observability.TraceID(ctx); id != "" {
			ctx = logger.WithTraceID(ctx, id)
		}
		if rid := logger.RequestIDFromContext(ctx); rid != "" {
			observability.SetSpanAttribute(ctx, logger.FieldRequestID, rid)
		}

		defer func() {
			if r := recover(); r != nil {
				op.End(resilience.ErrPanicked)
				panic(r)
			}
			op.End(err)
		}()
		return next(ctx)
	}}
}
