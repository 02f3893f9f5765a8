package mediator

import (
	"context"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/mediator/logger"
)

// NotificationHandler reacts to a published notification of type N.
type NotificationHandler[N any] interface {
	Handle(ctx context.Context, notification N) error
}

// NotificationHandlerFunc adapts an ordinary function to a NotificationHandler.
type NotificationHandlerFunc[N any] func(ctx context.Context, notification N) error

// Handle calls f(ctx, notification).
func (f NotificationHandlerFunc[N]) Handle(ctx context.Context, notification N) error {
	return f(ctx, notification)
}

// PublishStrategy decides how a notification reaches its handlers.
type PublishStrategy int

const (
	// PublishSequential calls handlers one by one in registration order and
	// stops at the first error.
	PublishSequential PublishStrategy = iota
	// PublishParallel starts every handler in its own goroutine and returns
	// the first error after all of them finished.
	PublishParallel
)

// String returns the strategy name used in configuration.
func (s PublishStrategy) String() string {
	switch s {
	case PublishSequential:
		return "sequential"
	case PublishParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// ParsePublishStrategy maps a configuration value onto a PublishStrategy.
// Unknown values fall back to sequential.
func ParsePublishStrategy(s string) PublishStrategy {
	if s == "parallel" {
		return PublishParallel
	}
	return PublishSequential
}

// RegisterNotificationHandler adds a handler for notifications of type N.
// Any number of handlers may share a notification type.
func RegisterNotificationHandler[N any](r *Registry, handler NotificationHandler[N]) error {
	if isNil(handler) {
		return ErrNilHandler
	}
	nt, err := requestTypeOf[N]()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}

	entry := notificationEntry{
		name: componentName(handler),
		invoke: func(ctx context.Context, notification any) error {
			return handler.Handle(ctx, notification.(N))
		},
	}
	r.notifications[nt] = append(r.notifications[nt], entry)

	r.log.Debug("notification handler registered", logger.Fields(
		logger.FieldRequestType, typeName(nt),
		logger.FieldHandler, entry.name,
		"position", len(r.notifications[nt]),
	))
	return nil
}

// Publish delivers notification to every handler registered for its dynamic
// type. A notification without handlers is not an error.
func (d *Dispatcher) Publish(ctx context.Context, notification any) error {
	if notification == nil {
		return ErrNilRequest
	}
	return d.publishTo(ctx, reflect.TypeOf(notification), notification)
}

// Publish is the typed form of Dispatcher.Publish.
func Publish[N any](ctx context.Context, d *Dispatcher, notification N) error {
	nt := reflect.TypeFor[N]()
	if nt.Kind() == reflect.Interface {
		nt = reflect.TypeOf(any(notification))
		if nt == nil {
			return ErrNilRequest
		}
	}
	return d.publishTo(ctx, nt, notification)
}

func (d *Dispatcher) publishTo(ctx context.Context, nt reflect.Type, notification any) (err error) {
	if d.observer != nil {
		defer func() { d.observer(ctx, typeName(nt), err) }()
	}

	handlers := d.registry.notifications[nt]
	if len(handlers) == 0 {
		d.log.Debug("notification has no handlers", logger.Fields(logger.FieldRequestType, typeName(nt)))
		return nil
	}

	if d.publish == PublishParallel && len(handlers) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for _, h := range handlers {
			g.Go(func() error {
				return h.invoke(gctx, notification)
			})
		}
		return g.Wait()
	}

	for _, h := range handlers {
		if err := h.invoke(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}
