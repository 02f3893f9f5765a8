package mediator

import "context"

// Iterator provides pull-based sequential access to a stream of values.
// Close must be called when done to release resources.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// SliceIterator yields the given items in order.
func SliceIterator[T any](items ...T) Iterator[T] {
	return &sliceIter[T]{items: items}
}

type sliceIter[T any] struct {
	items []T
	pos   int
}

func (it *sliceIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.pos >= len(it.items) {
		return zero, false, nil
	}
	v := it.items[it.pos]
	it.pos++
	return v, true, nil
}

func (it *sliceIter[T]) Close() error {
	it.pos = len(it.items)
	return nil
}

// FuncIterator builds an Iterator from a next function and an optional closer.
func FuncIterator[T any](next func(ctx context.Context) (T, bool, error), closer func() error) Iterator[T] {
	return &funcIter[T]{next: next, closer: closer}
}

type funcIter[T any] struct {
	next   func(ctx context.Context) (T, bool, error)
	closer func() error
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) { return it.next(ctx) }

func (it *funcIter[T]) Close() error {
	if it.closer == nil {
		return nil
	}
	return it.closer()
}

// MapIterator applies fn to every item of it. An error from fn ends the stream.
func MapIterator[T any](it Iterator[T], fn func(ctx context.Context, item T) (T, error)) Iterator[T] {
	return FuncIterator(func(ctx context.Context) (T, bool, error) {
		v, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return v, ok, err
		}
		mapped, err := fn(ctx, v)
		if err != nil {
			var zero T
			return zero, false, err
		}
		return mapped, true, nil
	}, it.Close)
}

// Collect drains it into a slice and closes it.
func Collect[T any](ctx context.Context, it Iterator[T]) (items []T, err error) {
	defer func() {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return items, err
		}
		if !ok {
			return items, nil
		}
		items = append(items, v)
	}
}
