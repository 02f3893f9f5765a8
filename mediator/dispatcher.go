package mediator

import (
	"context"
	"reflect"

	"github.com/kbukum/mediator/logger"
)

// StageHook observes behavior stage transitions. index is the behavior's
// position in Registration.Behaviors.
type StageHook func(reg *Registration, index int, stage Stage)

// Dispatcher sends requests through their resolved chains. It holds no
// mutable state and is safe for concurrent use.
type Dispatcher struct {
	registry  *Registry
	publish   PublishStrategy
	stageHook StageHook
	observer  PublishObserver
	log       *logger.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithPublishStrategy sets how notifications reach their handlers.
func WithPublishStrategy(s PublishStrategy) Option {
	return func(d *Dispatcher) { d.publish = s }
}

// PublishObserver is told the outcome of every Publish. notificationType is
// the name used in logs.
type PublishObserver func(ctx context.Context, notificationType string, err error)

// WithPublishObserver installs an observer for published notifications.
func WithPublishObserver(fn PublishObserver) Option {
	return func(d *Dispatcher) { d.observer = fn }
}

// WithStageHook installs an observer for behavior stage transitions.
func WithStageHook(h StageHook) Option {
	return func(d *Dispatcher) { d.stageHook = h }
}

// NewDispatcher freezes the registry and returns a dispatcher over it.
func NewDispatcher(registry *Registry, opts ...Option) (*Dispatcher, error) {
	if err := registry.Freeze(); err != nil {
		return nil, err
	}
	d := &Dispatcher{
		registry: registry,
		publish:  PublishSequential,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithComponent("mediator.dispatcher")
	return d, nil
}

// Registry returns the frozen registry behind the dispatcher.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Send dispatches request to its handler through the registered behaviors
// and returns the handler's (or a behavior's) result. Routing uses the
// request's dynamic type.
func (d *Dispatcher) Send(ctx context.Context, request any) (any, error) {
	if request == nil {
		return nil, ErrNilRequest
	}
	return d.send(ctx, reflect.TypeOf(request), request)
}

// Send is the typed form of Dispatcher.Send.
func Send[Req, Res any](ctx context.Context, d *Dispatcher, request Req) (Res, error) {
	var zero Res

	rt := reflect.TypeFor[Req]()
	if rt.Kind() == reflect.Interface {
		rt = reflect.TypeOf(any(request))
		if rt == nil {
			return zero, ErrNilRequest
		}
	}

	out, err := d.send(ctx, rt, request)
	return castResult[Res](request, out, err)
}

func (d *Dispatcher) send(ctx context.Context, rt reflect.Type, request any) (any, error) {
	reg, err := d.registry.resolve(KindRequest, &d.registry.requests, rt)
	if err != nil {
		return nil, err
	}
	return d.run(ctx, reg, request)
}

func (d *Dispatcher) run(ctx context.Context, reg *Registration, request any) (any, error) {
	if d.stageHook == nil {
		return reg.invoke(ctx, request)
	}
	hook := d.stageHook
	return reg.call(ctx, request, 0, func(i int, s Stage) { hook(reg, i, s) })
}
