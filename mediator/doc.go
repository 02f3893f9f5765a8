// Package mediator routes typed requests to exactly one handler through an
// ordered chain of behaviors.
//
// Handlers and behaviors are registered on a Registry at startup:
//
//	reg := mediator.NewRegistry()
//	_ = mediator.RegisterHandler[Ping, Pong](reg, pingHandler)
//	_ = mediator.RegisterBehavior[Ping, Pong](reg, timing, 10)
//	_ = reg.RegisterOpenBehavior(logging, 0)
//
//	d, err := mediator.NewDispatcher(reg)
//	pong, err := mediator.Send[Ping, Pong](ctx, d, Ping{Message: "hi"})
//
// Behaviors run in ascending order; equal orders keep registration order.
// The first behavior is outermost: its pre-work runs first and its post-work
// runs last. A behavior that returns without calling next short-circuits
// the rest of the chain, including the handler.
//
// NewDispatcher freezes the registry. After that no registrations are
// accepted and lookups run without locks.
//
// Besides requests the package dispatches notifications (zero or more
// handlers per type, see Publish) and streams (see CreateStream).
package mediator
