package mediator

import (
	"context"
	"reflect"
	"slices"
	"sync/atomic"
)

// Stage is the position of one behavior within a dispatch.
type Stage int32

const (
	StageNotEntered Stage = iota
	StageExecutingPre
	StageAwaitingNext
	StageExecutingPost
	StageDone
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageNotEntered:
		return "not-entered"
	case StageExecutingPre:
		return "executing-pre"
	case StageAwaitingNext:
		return "awaiting-next"
	case StageExecutingPost:
		return "executing-post"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Registration is the resolved chain for one request type: its handler and
// its behaviors in execution order. It is immutable and shared by every
// dispatch of that type.
type Registration struct {
	kind        Kind
	requestType reflect.Type
	resultType  reflect.Type
	handlerName string
	handler     invokeFunc
	links       []linkFunc
	names       []string
}

// Kind reports whether this is a request or a stream registration.
func (r *Registration) Kind() Kind { return r.kind }

// RequestType returns the routed request type.
func (r *Registration) RequestType() reflect.Type { return r.requestType }

// ResultType returns the handler's result type (the item type for streams).
func (r *Registration) ResultType() reflect.Type { return r.resultType }

// Handler returns the handler name.
func (r *Registration) Handler() string { return r.handlerName }

// Behaviors returns the behavior names, outermost first.
func (r *Registration) Behaviors() []string { return slices.Clone(r.names) }

// invoke runs request through the chain starting at the outermost behavior.
func (r *Registration) invoke(ctx context.Context, request any) (any, error) {
	return r.call(ctx, request, 0, nil)
}

// call runs link i. trace, when set, observes stage transitions.
func (r *Registration) call(ctx context.Context, request any, i int, trace func(int, Stage)) (any, error) {
	if i == len(r.links) {
		return r.handler(ctx, request)
	}

	l := &linkState{index: i, trace: trace}
	next := func(ctx context.Context) (any, error) {
		if err := l.enterNext(); err != nil {
			return nil, err
		}
		out, err := r.call(ctx, request, i+1, trace)
		l.set(StageExecutingPost)
		return out, err
	}

	l.set(StageExecutingPre)
	out, err := r.links[i](ctx, request, next)
	l.set(StageDone)
	return out, err
}

type linkState struct {
	stage atomic.Int32
	index int
	trace func(int, Stage)
}

func (l *linkState) set(s Stage) {
	l.stage.Store(int32(s))
	if l.trace != nil {
		l.trace(l.index, s)
	}
}

// enterNext moves the link from executing-pre to awaiting-next. Any other
// starting stage means next was already used.
func (l *linkState) enterNext() error {
	if l.stage.CompareAndSwap(int32(StageExecutingPre), int32(StageAwaitingNext)) {
		if l.trace != nil {
			l.trace(l.index, StageAwaitingNext)
		}
		return nil
	}
	if Stage(l.stage.Load()) == StageDone {
		return ErrChainCompleted
	}
	return ErrNextCalledTwice
}

// typedLink erases a typed behavior into the registry's link form.
func typedLink[Req, Res any](b Behavior[Req, Res]) linkFunc {
	return func(ctx context.Context, request any, next NextAny) (any, error) {
		res, err := b.Handle(ctx, request.(Req), func(ctx context.Context) (Res, error) {
			out, err := next(ctx)
			return castResult[Res](request, out, err)
		})
		return res, err
	}
}

// castResult converts an erased chain result back to Res.
func castResult[Res any](request any, out any, err error) (Res, error) {
	var zero Res
	if out == nil {
		return zero, err
	}
	res, ok := out.(Res)
	if !ok {
		if err != nil {
			return zero, err
		}
		return zero, &ResultTypeError{
			RequestType: reflect.TypeOf(request),
			Want:        reflect.TypeFor[Res](),
			Got:         reflect.TypeOf(out),
		}
	}
	return res, err
}
