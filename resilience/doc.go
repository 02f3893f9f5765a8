// Package resilience guards request handlers against overload and failing
// dependencies.
//
//   - CircuitBreaker fails fast after repeated failures and tries trial calls to detect recovery.
//   - BreakerSet keeps one breaker per key, typically per request type.
//   - Bulkhead caps concurrent executions (golang.org/x/sync/semaphore).
//   - RateLimiter is a token bucket (golang.org/x/time/rate).
//
// The guards are independent and are usually stacked as dispatch behaviors:
//
//	breakers := resilience.NewBreakerSet(resilience.DefaultCircuitBreakerConfig(""))
//	err := breakers.Get("orders.Create").Execute(func() error {
//	    return bh.Execute(ctx, func() error { return handle(ctx) })
//	})
package resilience
