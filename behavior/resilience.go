package behavior

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/kbukum/mediator/errors"
	"github.com/kbukum/mediator/mediator"
	"github.com/kbukum/mediator/resilience"
)

// CircuitBreaker guards each request type with its own breaker from set.
// A rejected call fails with a retryable SERVICE_UNAVAILABLE error.
func CircuitBreaker(set *resilience.BreakerSet) mediator.OpenBehavior {
	return &named{name: "behavior.CircuitBreaker", fn: func(ctx context.Context, request any, next mediator.NextAny) (out any, err error) {
		name := mediator.RequestName(request)
		done, aerr := set.Get(name).Allow()
		if aerr != nil {
			return nil, errors.ServiceUnavailable(name + " handler").WithCause(aerr)
		}
		// a panic must still release a half-open slot
		defer func() {
			if r := recover(); r != nil {
				done(resilience.ErrPanicked)
				panic(r)
			}
			done(err)
		}()
		return next(ctx)
	}}
}

// RateLimit throttles each request type with its own token bucket built
// from cfg.
func RateLimit(cfg resilience.RateLimiterConfig) mediator.OpenBehavior {
	var limiters sync.Map
	return &named{name: "behavior.RateLimit", fn: func(ctx context.Context, request any, next mediator.NextAny) (any, error) {
		name := mediator.RequestName(request)
		l, ok := limiters.Load(name)
		if !ok {
			c := cfg
			c.Name = name
			l, _ = limiters.LoadOrStore(name, resilience.NewRateLimiter(c))
		}
		if err := l.(*resilience.RateLimiter).Wait(ctx); err != nil {
			if stderrors.Is(err, resilience.ErrRateLimited) {
				return nil, errors.RateLimited().WithDetail("request_type", name).WithCause(err)
			}
			return nil, err
		}
		return next(ctx)
	}}
}

// Bulkhead caps the number of requests in flight across all request types.
func Bulkhead(b *resilience.Bulkhead) mediator.OpenBehavior {
	return &named{name: "behavior.Bulkhead", fn: func(ctx context.Context, request any, next mediator.NextAny) (any, error) {
		var out any
		err := b.Execute(ctx, func() error {
			var err error
			out, err = next(ctx)
			return err
		})
		if stderrors.Is(err, resilience.ErrBulkheadFull) || stderrors.Is(err, resilience.ErrBulkheadTimeout) {
			return nil, errors.Overloaded("dispatcher").WithDetail("request_type", mediator.RequestName(request)).WithCause(err)
		}
		return out, err
	}}
}
