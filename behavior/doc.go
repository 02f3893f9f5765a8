// Package behavior provides the cross-cutting dispatch behaviors: panic
// recovery, request ids, tracing, logging, metrics, authorization,
// rate limiting, bulkheads, circuit breakers and validation.
//
// Every behavior here is a mediator.OpenBehavior and applies to all request
// types. The Order constants give the conventional nesting, outermost first;
// user behaviors registered with order 0 or higher run inside all of them.
//
//	_ = reg.RegisterOpenBehavior(behavior.Recover(log), behavior.OrderRecover)
//	_ = reg.RegisterOpenBehavior(behavior.Logging(log), behavior.OrderLogging)
package behavior
