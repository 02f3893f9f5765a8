package mediator

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Unit is the result type of requests that produce no value.
type Unit struct{}

// Handler handles one request type and produces one result type.
type Handler[Req, Res any] interface {
	Handle(ctx context.Context, request Req) (Res, error)
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc[Req, Res any] func(ctx context.Context, request Req) (Res, error)

// Handle calls f(ctx, request).
func (f HandlerFunc[Req, Res]) Handle(ctx context.Context, request Req) (Res, error) {
	return f(ctx, request)
}

// Next invokes the remainder of a behavior chain. It may be called at most once.
type Next[Res any] func(ctx context.Context) (Res, error)

// Behavior wraps the handling of one request/result pair. It may run code
// before and after next, short-circuit by not calling next, or replace the
// result or error.
type Behavior[Req, Res any] interface {
	Handle(ctx context.Context, request Req, next Next[Res]) (Res, error)
}

// BehaviorFunc adapts an ordinary function to a Behavior.
type BehaviorFunc[Req, Res any] func(ctx context.Context, request Req, next Next[Res]) (Res, error)

// Handle calls f(ctx, request, next).
func (f BehaviorFunc[Req, Res]) Handle(ctx context.Context, request Req, next Next[Res]) (Res, error) {
	return f(ctx, request, next)
}

// NextAny is the type-erased form of Next used by open behaviors.
type NextAny func(ctx context.Context) (any, error)

// OpenBehavior applies to every request type. Request and result are passed
// as their dynamic values.
type OpenBehavior interface {
	Handle(ctx context.Context, request any, next NextAny) (any, error)
}

// OpenBehaviorFunc adapts an ordinary function to an OpenBehavior.
type OpenBehaviorFunc func(ctx context.Context, request any, next NextAny) (any, error)

// Handle calls f(ctx, request, next).
func (f OpenBehaviorFunc) Handle(ctx context.Context, request any, next NextAny) (any, error) {
	return f(ctx, request, next)
}

// Named lets handlers and behaviors report a readable name for introspection
// and logs. Values that don't implement it are named after their Go type.
type Named interface {
	Name() string
}

// RequestName returns the short type name used for a request in logs,
// metrics and spans: the package-qualified name without pointer markers.
func RequestName(request any) string {
	if request == nil {
		return "<nil>"
	}
	return typeName(reflect.TypeOf(request))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return strings.TrimLeft(t.String(), "*")
}

func componentName(v any) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", v)
}

// isNil reports a nil interface or an interface holding a nil func, pointer,
// map, chan or slice, such as HandlerFunc[Req, Res](nil).
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// erased forms stored in the registry
type (
	invokeFunc func(ctx context.Context, request any) (any, error)
	linkFunc   func(ctx context.Context, request any, next NextAny) (any, error)
)
