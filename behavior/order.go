package behavior

import (
	"context"

	"github.com/kbukum/mediator/mediator"
)

// Conventional orders of the built-in behaviors.
const (
	OrderRecover        = -1000
	OrderRequestID      = -900
	OrderTracing        = -800
	OrderLogging        = -700
	OrderMetrics        = -600
	OrderAudit          = -500
	OrderAuthorization  = -400
	OrderRateLimit      = -300
	OrderBulkhead       = -200
	OrderCircuitBreaker = -100
	OrderValidation     = -50
)

// named wraps an open behavior function with a name for introspection.
type named struct {
	name string
	fn   func(ctx context.Context, request any, next mediator.NextAny) (any, error)
}

func (n *named) Name() string { return n.name }

func (n *named) Handle(ctx context.Context, request any, next mediator.NextAny) (any, error) {
	return n.fn(ctx, request, next)
}
