package mediator

import "context"

// StreamPreProcessing runs processors in order before the stream is created.
func StreamPreProcessing[Req, Item any](processors ...PreProcessor[Req]) StreamBehavior[Req, Item] {
	return &streamPreProcessing[Req, Item]{processors: processors}
}

type streamPreProcessing[Req, Item any] struct {
	processors []PreProcessor[Req]
}

func (b *streamPreProcessing[Req, Item]) Name() string { return "mediator.StreamPreProcessing" }

func (b *streamPreProcessing[Req, Item]) Handle(ctx context.Context, request Req, next NextStream[Item]) (Iterator[Item], error) {
	for _, p := range b.processors {
		if err := p.Process(ctx, request); err != nil {
			return nil, err
		}
	}
	return next(ctx)
}

// StreamPostProcessing runs processors on every item. A processor error
// ends the stream with that error.
func StreamPostProcessing[Req, Item any](processors ...PostProcessor[Req, Item]) StreamBehavior[Req, Item] {
	return &streamPostProcessing[Req, Item]{processors: processors}
}

type streamPostProcessing[Req, Item any] struct {
	processors []PostProcessor[Req, Item]
}

func (b *streamPostProcessing[Req, Item]) Name() string { return "mediator.StreamPostProcessing" }

func (b *streamPostProcessing[Req, Item]) Handle(ctx context.Context, request Req, next NextStream[Item]) (Iterator[Item], error) {
	it, err := next(ctx)
	if err != nil {
		return nil, err
	}
	return MapIterator(it, func(ctx context.Context, item Item) (Item, error) {
		for _, p := range b.processors {
			if err := p.Process(ctx, request, item); err != nil {
				return item, err
			}
		}
		return item, nil
	}), nil
}

// StreamExceptionHandling offers errors raised while creating or reading
// the stream to handlers. A handled error yields the handler's item as the
// last item of the stream.
func StreamExceptionHandling[Req, Item any](handlers ...ExceptionHandler[Req, Item]) StreamBehavior[Req, Item] {
	return &streamExceptionHandling[Req, Item]{handlers: handlers}
}

type streamExceptionHandling[Req, Item any] struct {
	handlers []ExceptionHandler[Req, Item]
}

func (b *streamExceptionHandling[Req, Item]) Name() string { return "mediator.StreamExceptionHandling" }

func (b *streamExceptionHandling[Req, Item]) Handle(ctx context.Context, request Req, next NextStream[Item]) (Iterator[Item], error) {
	onErr := func(ctx context.Context, err error) (Item, bool, error) {
		item, handled, herr := offerError(ctx, b.handlers, request, err)
		switch {
		case herr != nil:
			return item, false, herr
		case handled:
			return item, true, nil
		}
		return item, false, err
	}

	it, err := next(ctx)
	if err != nil {
		item, ok, err := onErr(ctx, err)
		if err != nil {
			return nil, err
		}
		if ok {
			return SliceIterator(item), nil
		}
		return SliceIterator[Item](), nil
	}
	return &guardedIter[Item]{it: it, onErr: onErr}, nil
}

// StreamExceptionActions runs every action on an error raised while creating
// or reading the stream. The error always propagates.
func StreamExceptionActions[Req, Item any](actions ...ExceptionAction[Req]) StreamBehavior[Req, Item] {
	return &streamExceptionActions[Req, Item]{actions: actions}
}

type streamExceptionActions[Req, Item any] struct {
	actions []ExceptionAction[Req]
}

func (b *streamExceptionActions[Req, Item]) Name() string { return "mediator.StreamExceptionActions" }

func (b *streamExceptionActions[Req, Item]) Handle(ctx context.Context, request Req, next NextStream[Item]) (Iterator[Item], error) {
	it, err := next(ctx)
	if err != nil {
		return nil, runActions(ctx, b.actions, request, err)
	}
	return &guardedIter[Item]{it: it, onErr: func(ctx context.Context, err error) (Item, bool, error) {
		var zero Item
		return zero, false, runActions(ctx, b.actions, request, err)
	}}, nil
}

// guardedIter hands the first error of it to onErr and ends the stream
// after it.
type guardedIter[T any] struct {
	it    Iterator[T]
	onErr func(ctx context.Context, err error) (T, bool, error)
	done  bool
}

func (g *guardedIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if g.done {
		return zero, false, nil
	}
	v, ok, err := g.it.Next(ctx)
	if err == nil {
		return v, ok, nil
	}
	g.done = true
	return g.onErr(ctx, err)
}

func (g *guardedIter[T]) Close() error { return g.it.Close() }
