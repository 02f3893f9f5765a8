package mediator

import (
	"context"
	"errors"
)

// PreProcessor runs before the handler. An error stops the dispatch.
type PreProcessor[Req any] interface {
	Process(ctx context.Context, request Req) error
}

// PreProcessorFunc adapts an ordinary function to a PreProcessor.
type PreProcessorFunc[Req any] func(ctx context.Context, request Req) error

// Process calls f(ctx, request).
func (f PreProcessorFunc[Req]) Process(ctx context.Context, request Req) error {
	return f(ctx, request)
}

// PostProcessor runs after the handler succeeded.
type PostProcessor[Req, Res any] interface {
	Process(ctx context.Context, request Req, response Res) error
}

// PostProcessorFunc adapts an ordinary function to a PostProcessor.
type PostProcessorFunc[Req, Res any] func(ctx context.Context, request Req, response Res) error

// Process calls f(ctx, request, response).
func (f PostProcessorFunc[Req, Res]) Process(ctx context.Context, request Req, response Res) error {
	return f(ctx, request, response)
}

// ExceptionState carries the decision of exception handlers. A handler that
// calls SetHandled stops the error and supplies the result.
type ExceptionState[Res any] struct {
	handled  bool
	response Res
}

// SetHandled marks the error handled with response as the dispatch result.
func (s *ExceptionState[Res]) SetHandled(response Res) {
	s.handled = true
	s.response = response
}

// Handled reports whether a handler accepted the error.
func (s *ExceptionState[Res]) Handled() bool { return s.handled }

// Response returns the result supplied with SetHandled.
func (s *ExceptionState[Res]) Response() Res { return s.response }

// ExceptionHandler may turn an error into a result. A non-nil return replaces
// the original error.
type ExceptionHandler[Req, Res any] interface {
	Handle(ctx context.Context, request Req, err error, state *ExceptionState[Res]) error
}

// ExceptionHandlerFunc adapts an ordinary function to an ExceptionHandler.
type ExceptionHandlerFunc[Req, Res any] func(ctx context.Context, request Req, err error, state *ExceptionState[Res]) error

// Handle calls f(ctx, request, err, state).
func (f ExceptionHandlerFunc[Req, Res]) Handle(ctx context.Context, request Req, err error, state *ExceptionState[Res]) error {
	return f(ctx, request, err, state)
}

// HandleError builds an ExceptionHandler that only sees errors matching E.
func HandleError[Req, Res any, E error](fn func(ctx context.Context, request Req, err E, state *ExceptionState[Res]) error) ExceptionHandler[Req, Res] {
	return ExceptionHandlerFunc[Req, Res](func(ctx context.Context, request Req, err error, state *ExceptionState[Res]) error {
		var target E
		if !errors.As(err, &target) {
			return nil
		}
		return fn(ctx, request, target, state)
	})
}

// ExceptionAction observes an error without handling it.
type ExceptionAction[Req any] interface {
	Execute(ctx context.Context, request Req, err error) error
}

// ExceptionActionFunc adapts an ordinary function to an ExceptionAction.
type ExceptionActionFunc[Req any] func(ctx context.Context, request Req, err error) error

// Execute calls f(ctx, request, err).
func (f ExceptionActionFunc[Req]) Execute(ctx context.Context, request Req, err error) error {
	return f(ctx, request, err)
}

// PreProcessing runs processors in order before continuing the chain.
func PreProcessing[Req, Res any](processors ...PreProcessor[Req]) Behavior[Req, Res] {
	return &preProcessing[Req, Res]{processors: processors}
}

type preProcessing[Req, Res any] struct {
	processors []PreProcessor[Req]
}

func (b *preProcessing[Req, Res]) Name() string { return "mediator.PreProcessing" }

func (b *preProcessing[Req, Res]) Handle(ctx context.Context, request Req, next Next[Res]) (Res, error) {
	for _, p := range b.processors {
		if err := p.Process(ctx, request); err != nil {
			var zero Res
			return zero, err
		}
	}
	return next(ctx)
}

// PostProcessing runs processors in order after the rest of the chain
// succeeded. A processor error becomes the dispatch error.
func PostProcessing[Req, Res any](processors ...PostProcessor[Req, Res]) Behavior[Req, Res] {
	return &postProcessing[Req, Res]{processors: processors}
}

type postProcessing[Req, Res any] struct {
	processors []PostProcessor[Req, Res]
}

func (b *postProcessing[Req, Res]) Name() string { return "mediator.PostProcessing" }

func (b *postProcessing[Req, Res]) Handle(ctx context.Context, request Req, next Next[Res]) (Res, error) {
	res, err := next(ctx)
	if err != nil {
		return res, err
	}
	for _, p := range b.processors {
		if err := p.Process(ctx, request, res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ExceptionHandling offers an error from the rest of the chain to handlers
// in order until one marks it handled.
func ExceptionHandling[Req, Res any](handlers ...ExceptionHandler[Req, Res]) Behavior[Req, Res] {
	return &exceptionHandling[Req, Res]{handlers: handlers}
}

type exceptionHandling[Req, Res any] struct {
	handlers []ExceptionHandler[Req, Res]
}

func (b *exceptionHandling[Req, Res]) Name() string { return "mediator.ExceptionHandling" }

func (b *exceptionHandling[Req, Res]) Handle(ctx context.Context, request Req, next Next[Res]) (Res, error) {
	res, err := next(ctx)
	if err == nil {
		return res, nil
	}
	handled, ok, herr := offerError(ctx, b.handlers, request, err)
	switch {
	case herr != nil:
		return res, herr
	case ok:
		return handled, nil
	}
	return res, err
}

// offerError passes err to handlers in order until one marks it handled.
// herr is the error of a failing handler, which replaces err.
func offerError[Req, Res any](ctx context.Context, handlers []ExceptionHandler[Req, Res], request Req, err error) (res Res, handled bool, herr error) {
	for _, h := range handlers {
		state := &ExceptionState[Res]{}
		if herr := h.Handle(ctx, request, err, state); herr != nil {
			return res, false, herr
		}
		if state.Handled() {
			return state.Response(), true, nil
		}
	}
	return res, false, nil
}

// ExceptionActions runs every action on an error from the rest of the chain.
// The original error always propagates; action failures are joined to it.
func ExceptionActions[Req, Res any](actions ...ExceptionAction[Req]) Behavior[Req, Res] {
	return &exceptionActions[Req, Res]{actions: actions}
}

type exceptionActions[Req, Res any] struct {
	actions []ExceptionAction[Req]
}

func (b *exceptionActions[Req, Res]) Name() string { return "mediator.ExceptionActions" }

func (b *exceptionActions[Req, Res]) Handle(ctx context.Context, request Req, next Next[Res]) (Res, error) {
	res, err := next(ctx)
	if err == nil {
		return res, nil
	}
	return res, runActions(ctx, b.actions, request, err)
}

// runActions runs every action and returns err joined with their failures.
func runActions[Req any](ctx context.Context, actions []ExceptionAction[Req], request Req, err error) error {
	errs := []error{err}
	for _, a := range actions {
		if aerr := a.Execute(ctx, request, err); aerr != nil {
			errs = append(errs, aerr)
		}
	}
	if len(errs) == 1 {
		return err
	}
	return errors.Join(errs...)
}
