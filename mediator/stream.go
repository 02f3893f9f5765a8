package mediator

import (
	"context"
	"reflect"
)

// StreamHandler handles a request by producing a stream of items.
type StreamHandler[Req, Item any] interface {
	Handle(ctx context.Context, request Req) (Iterator[Item], error)
}

// StreamHandlerFunc adapts an ordinary function to a StreamHandler.
type StreamHandlerFunc[Req, Item any] func(ctx context.Context, request Req) (Iterator[Item], error)

// Handle calls f(ctx, request).
func (f StreamHandlerFunc[Req, Item]) Handle(ctx context.Context, request Req) (Iterator[Item], error) {
	return f(ctx, request)
}

// NextStream invokes the remainder of a stream chain.
type NextStream[Item any] func(ctx context.Context) (Iterator[Item], error)

// StreamBehavior wraps the creation of a stream. To act on individual items
// it returns a wrapping iterator, for example with MapIterator.
type StreamBehavior[Req, Item any] interface {
	Handle(ctx context.Context, request Req, next NextStream[Item]) (Iterator[Item], error)
}

// StreamBehaviorFunc adapts an ordinary function to a StreamBehavior.
type StreamBehaviorFunc[Req, Item any] func(ctx context.Context, request Req, next NextStream[Item]) (Iterator[Item], error)

// Handle calls f(ctx, request, next).
func (f StreamBehaviorFunc[Req, Item]) Handle(ctx context.Context, request Req, next NextStream[Item]) (Iterator[Item], error) {
	return f(ctx, request, next)
}

// RegisterStreamHandler registers the single stream handler for Req.
func RegisterStreamHandler[Req, Item any](r *Registry, handler StreamHandler[Req, Item]) error {
	if isNil(handler) {
		return ErrNilHandler
	}
	rt, err := requestTypeOf[Req]()
	if err != nil {
		return err
	}
	return r.addHandler(KindStream, &r.streams, &handlerEntry{
		requestType: rt,
		resultType:  reflect.TypeFor[Item](),
		name:        componentName(handler),
		invoke: func(ctx context.Context, request any) (any, error) {
			it, err := handler.Handle(ctx, request.(Req))
			return it, err
		},
	})
}

// RegisterStreamBehavior appends a stream behavior for Req with the same
// ordering rules as RegisterBehavior.
func RegisterStreamBehavior[Req, Item any](r *Registry, behavior StreamBehavior[Req, Item], order int) error {
	if isNil(behavior) {
		return ErrNilHandler
	}
	rt, err := requestTypeOf[Req]()
	if err != nil {
		return err
	}
	return r.addBehavior(&r.streams, rt, behaviorEntry{
		name:       componentName(behavior),
		order:      order,
		resultType: reflect.TypeFor[Item](),
		link: func(ctx context.Context, request any, next NextAny) (any, error) {
			it, err := behavior.Handle(ctx, request.(Req), func(ctx context.Context) (Iterator[Item], error) {
				out, err := next(ctx)
				return castResult[Iterator[Item]](request, out, err)
			})
			return it, err
		},
	})
}

// ResolveStream returns the stream handler and behaviors for a request type.
func (r *Registry) ResolveStream(requestType reflect.Type) (*Registration, error) {
	return r.resolve(KindStream, &r.streams, requestType)
}

// CreateStream dispatches request to its stream handler through the stream
// behaviors and returns the resulting iterator.
func CreateStream[Req, Item any](ctx context.Context, d *Dispatcher, request Req) (Iterator[Item], error) {
	rt := reflect.TypeFor[Req]()
	if rt.Kind() == reflect.Interface {
		rt = reflect.TypeOf(any(request))
		if rt == nil {
			return nil, ErrNilRequest
		}
	}

	reg, err := d.registry.resolve(KindStream, &d.registry.streams, rt)
	if err != nil {
		return nil, err
	}
	out, err := d.run(ctx, reg, request)
	return castResult[Iterator[Item]](request, out, err)
}
