package bootstrap

import (
	"github.com/kbukum/mediator/audit"
	"github.com/kbukum/mediator/behavior"
	"github.com/kbukum/mediator/config"
	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
	"github.com/kbukum/mediator/observability"
	"github.com/kbukum/mediator/resilience"
)

// installBehaviors registers the built-in behaviors enabled in the mediator
// config at their conventional orders.
func (a *App[C]) installBehaviors() error {
	mc := a.Cfg.GetAppConfig().Mediator
	log := a.Logger

	type install struct {
		name  string
		order int
		build func() (mediator.OpenBehavior, error)
	}
	installs := []install{
		{config.BehaviorRecover, behavior.OrderRecover, func() (mediator.OpenBehavior, error) {
			return behavior.Recover(log), nil
		}},
		{config.BehaviorRequestID, behavior.OrderRequestID, func() (mediator.OpenBehavior, error) {
			return behavior.RequestID(), nil
		}},
		{config.BehaviorTracing, behavior.OrderTracing, func() (mediator.OpenBehavior, error) {
			return behavior.Tracing(), nil
		}},
		{config.BehaviorLogging, behavior.OrderLogging, func() (mediator.OpenBehavior, error) {
			return behavior.Logging(log), nil
		}},
		{config.BehaviorMetrics, behavior.OrderMetrics, func() (mediator.OpenBehavior, error) {
			m, err := observability.NewDispatchMetrics(observability.Meter(observability.TracerName))
			if err != nil {
				return nil, err
			}
			a.Metrics = m
			return behavior.Metrics(m), nil
		}},
		{config.BehaviorAudit, behavior.OrderAudit, func() (mediator.OpenBehavior, error) {
			return audit.Behavior(a.Audit, log), nil
		}},
		{config.BehaviorAuthorization, behavior.OrderAuthorization, func() (mediator.OpenBehavior, error) {
			return behavior.Authorization(), nil
		}},
		{config.BehaviorRateLimit, behavior.OrderRateLimit, func() (mediator.OpenBehavior, error) {
			return behavior.RateLimit(resilience.RateLimiterConfig{
				Rate:    mc.RateLimit.Rate,
				Burst:   mc.RateLimit.Burst,
				MaxWait: mc.RateLimit.MaxWait,
			}), nil
		}},
		{config.BehaviorBulkhead, behavior.OrderBulkhead, func() (mediator.OpenBehavior, error) {
			return behavior.Bulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
				Name:          "dispatcher",
				MaxConcurrent: mc.Bulkhead.MaxConcurrent,
				MaxWait:       mc.Bulkhead.MaxWait,
				OnReject: func(name string, err error) {
					log.Warn("Bulkhead rejected request", logger.ErrorFields(name, err))
				},
			})), nil
		}},
		{config.BehaviorCircuitBreaker, behavior.OrderCircuitBreaker, func() (mediator.OpenBehavior, error) {
			a.Breakers = resilience.NewBreakerSet(resilience.CircuitBreakerConfig{
				MaxFailures:      mc.CircuitBreaker.MaxFailures,
				Timeout:          mc.CircuitBreaker.Timeout,
				HalfOpenMaxCalls: mc.CircuitBreaker.HalfOpenMaxCalls,
				IsFailure:        behavior.IsServerError,
				OnStateChange: func(name string, from, to resilience.State) {
					log.Warn("Circuit breaker state changed", map[string]interface{}{
						logger.FieldRequestType: name,
						"from":                  from.String(),
						"to":                    to.String(),
					})
				},
			})
			return behavior.CircuitBreaker(a.Breakers), nil
		}},
		{config.BehaviorValidation, behavior.OrderValidation, func() (mediator.OpenBehavior, error) {
			return behavior.Validation(), nil
		}},
	}

	for _, in := range installs {
		if !mc.Enabled(in.name) {
			continue
		}
		b, err := in.build()
		if err != nil {
			return err
		}
		if err := a.Registry.RegisterOpenBehavior(b, in.order); err != nil {
			return err
		}
		a.Summary.TrackBehavior(in.name, in.order)
	}
	return nil
}
