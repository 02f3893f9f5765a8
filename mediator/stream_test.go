package mediator_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kbukum/mediator/mediator"
)

type CountTo struct{ N int }

func countHandler() mediator.StreamHandlerFunc[CountTo, int] {
	return func(_ context.Context, req CountTo) (mediator.Iterator[int], error) {
		i := 0
		return mediator.FuncIterator(func(ctx context.Context) (int, bool, error) {
			if i >= req.N {
				return 0, false, nil
			}
			i++
			return i, true, nil
		}, nil), nil
	}
}

func TestCreateStream(t *testing.T) {
	tracker := &callTracker{}
	d := newDispatcher(t, func(reg *mediator.Registry) {
		_ = mediator.RegisterStreamHandler[CountTo, int](reg, countHandler())
		_ = mediator.RegisterStreamBehavior[CountTo, int](reg, mediator.StreamBehaviorFunc[CountTo, int](
			func(ctx context.Context, _ CountTo, next mediator.NextStream[int]) (mediator.Iterator[int], error) {
				tracker.record("double-pre")
				it, err := next(ctx)
				if err != nil {
					return nil, err
				}
				tracker.record("double-post")
				return mediator.MapIterator(it, func(_ context.Context, v int) (int, error) { return v * 2, nil }), nil
			}), 0)
	})

	it, err := mediator.CreateStream[CountTo, int](context.Background(), d, CountTo{N: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := mediator.Collect(context.Background(), it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expected := []int{2, 4, 6}; !reflect.DeepEqual(items, expected) {
		t.Errorf("expected %v, got %v", expected, items)
	}
	if expected := []string{"double-pre", "double-post"}; !reflect.DeepEqual(tracker.get(), expected) {
		t.Errorf("expected %v, got %v", expected, tracker.get())
	}
}

func TestCreateStream_Errors(t *testing.T) {
	reg := mediator.NewRegistry()
	if err := mediator.RegisterStreamHandler[CountTo, int](reg, countHandler()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := mediator.RegisterStreamHandler[CountTo, int](reg, countHandler())
	var dup *mediator.DuplicateHandlerError
	if !errors.As(err, &dup) || dup.Kind != mediator.KindStream {
		t.Fatalf("expected stream DuplicateHandlerError, got %v", err)
	}

	d, err := mediator.NewDispatcher(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = mediator.CreateStream[Ping, int](context.Background(), d, Ping{})
	if !errors.Is(err, mediator.ErrUnregisteredRequest) {
		t.Errorf("expected ErrUnregisteredRequest, got %v", err)
	}

	// A request handler does not make a stream handler.
	if _, err := d.Send(context.Background(), CountTo{}); !errors.Is(err, mediator.ErrUnregisteredRequest) {
		t.Errorf("expected ErrUnregisteredRequest for Send, got %v", err)
	}
}

func TestMapIterator_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	it := mediator.MapIterator(mediator.SliceIterator(1, 2, 3), func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	items, err := mediator.Collect(context.Background(), it)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !reflect.DeepEqual(items, []int{1}) {
		t.Errorf("expected [1], got %v", items)
	}
}

func TestSliceIterator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := mediator.SliceIterator(1).Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ---------- stream processors ----------

type FailingCount struct{ FailAfter int }

var errStreamBroke = errors.New("stream broke")

func failingCountHandler() mediator.StreamHandlerFunc[FailingCount, int] {
	return func(_ context.Context, req FailingCount) (mediator.Iterator[int], error) {
		if req.FailAfter < 0 {
			return nil, errStreamBroke
		}
		i := 0
		return mediator.FuncIterator(func(ctx context.Context) (int, bool, error) {
			if i >= req.FailAfter {
				return 0, false, errStreamBroke
			}
			i++
			return i, true, nil
		}, nil), nil
	}
}

func TestStreamPreProcessing_ErrorStopsCreation(t *testing.T) {
	rejected := errors.New("rejected")
	created := false
	d := newDispatcher(t, func(reg *mediator.Registry) {
		_ = mediator.RegisterStreamHandler[CountTo, int](reg, mediator.StreamHandlerFunc[CountTo, int](
			func(ctx context.Context, req CountTo) (mediator.Iterator[int], error) {
				created = true
				return countHandler()(ctx, req)
			}))
		_ = mediator.RegisterStreamBehavior[CountTo, int](reg, mediator.StreamPreProcessing[CountTo, int](
			mediator.PreProcessorFunc[CountTo](func(_ context.Context, req CountTo) error {
				if req.N > 10 {
					return rejected
				}
				return nil
			})), 0)
	})

	if _, err := mediator.CreateStream[CountTo, int](context.Background(), d, CountTo{N: 11}); !errors.Is(err, rejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	if created {
		t.Error("expected handler not to run")
	}

	it, err := mediator.CreateStream[CountTo, int](context.Background(), d, CountTo{N: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := mediator.Collect(context.Background(), it)
	if err != nil || !reflect.DeepEqual(items, []int{1, 2}) {
		t.Errorf("expected [1 2], got %v (err %v)", items, err)
	}
}

func TestStreamPostProcessing_RunsPerItem(t *testing.T) {
	tooBig := errors.New("too big")
	var seen []int
	d := newDispatcher(t, func(reg *mediator.Registry) {
		_ = mediator.RegisterStreamHandler[CountTo, int](reg, countHandler())
		_ = mediator.RegisterStreamBehavior[CountTo, int](reg, mediator.StreamPostProcessing[CountTo, int](
			mediator.PostProcessorFunc[CountTo, int](func(_ context.Context, _ CountTo, item int) error {
				if item > 3 {
					return tooBig
				}
				seen = append(seen, item)
				return nil
			})), 0)
	})

	it, err := mediator.CreateStream[CountTo, int](context.Background(), d, CountTo{N: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := mediator.Collect(context.Background(), it)
	if !errors.Is(err, tooBig) {
		t.Fatalf("expected too big, got %v", err)
	}
	if !reflect.DeepEqual(items, []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", items)
	}
	if !reflect.DeepEqual(seen, []int{1, 2, 3}) {
		t.Errorf("expected processor to see [1 2 3], got %v", seen)
	}
}

func TestStreamExceptionHandling(t *testing.T) {
	d := newDispatcher(t, func(reg *mediator.Registry) {
		_ = mediator.RegisterStreamHandler[FailingCount, int](reg, failingCountHandler())
		_ = mediator.RegisterStreamBehavior[FailingCount, int](reg, mediator.StreamExceptionHandling[FailingCount, int](
			mediator.ExceptionHandlerFunc[FailingCount, int](func(_ context.Context, _ FailingCount, err error, state *mediator.ExceptionState[int]) error {
				if errors.Is(err, errStreamBroke) {
					state.SetHandled(-1)
				}
				return nil
			})), 0)
	})

	tests := []struct {
		name      string
		failAfter int
		expected  []int
	}{
		{"creation error", -1, []int{-1}},
		{"item error", 2, []int{1, 2, -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			it, err := mediator.CreateStream[FailingCount, int](context.Background(), d, FailingCount{FailAfter: tc.failAfter})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			items, err := mediator.Collect(context.Background(), it)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(items, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, items)
			}
		})
	}
}

func TestStreamExceptionHandling_UnhandledPropagates(t *testing.T) {
	d := newDispatcher(t, func(reg *mediator.Registry) {
		_ = mediator.RegisterStreamHandler[FailingCount, int](reg, failingCountHandler())
		_ = mediator.RegisterStreamBehavior[FailingCount, int](reg, mediator.StreamExceptionHandling[FailingCount, int](
			mediator.ExceptionHandlerFunc[FailingCount, int](func(context.Context, FailingCount, error, *mediator.ExceptionState[int]) error {
				return nil
			})), 0)
	})

	it, err := mediator.CreateStream[FailingCount, int](context.Background(), d, FailingCount{FailAfter: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := mediator.Collect(context.Background(), it)
	if !errors.Is(err, errStreamBroke) {
		t.Fatalf("expected stream broke, got %v", err)
	}
	if !reflect.DeepEqual(items, []int{1}) {
		t.Errorf("expected [1], got %v", items)
	}

	if _, err := mediator.CreateStream[FailingCount, int](context.Background(), d, FailingCount{FailAfter: -1}); !errors.Is(err, errStreamBroke) {
		t.Errorf("expected stream broke on creation, got %v", err)
	}
}

func TestStreamExceptionActions(t *testing.T) {
	alertFailed := errors.New("alert failed")
	tracker := &callTracker{}
	d := newDispatcher(t, func(reg *mediator.Registry) {
		_ = mediator.RegisterStreamHandler[FailingCount, int](reg, failingCountHandler())
		_ = mediator.RegisterStreamBehavior[FailingCount, int](reg, mediator.StreamExceptionActions[FailingCount, int](
			mediator.ExceptionActionFunc[FailingCount](func(context.Context, FailingCount, error) error {
				tracker.record("log")
				return nil
			}),
			mediator.ExceptionActionFunc[FailingCount](func(context.Context, FailingCount, error) error {
				tracker.record("alert")
				return alertFailed
			})), 0)
	})

	it, err := mediator.CreateStream[FailingCount, int](context.Background(), d, FailingCount{FailAfter: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, err := mediator.Collect(context.Background(), it)
	if !errors.Is(err, errStreamBroke) || !errors.Is(err, alertFailed) {
		t.Fatalf("expected joined stream and action errors, got %v", err)
	}
	if !reflect.DeepEqual(items, []int{1}) {
		t.Errorf("expected [1], got %v", items)
	}
	if expected := []string{"log", "alert"}; !reflect.DeepEqual(tracker.get(), expected) {
		t.Errorf("expected %v, got %v", expected, tracker.get())
	}

	if _, err := mediator.CreateStream[FailingCount, int](context.Background(), d, FailingCount{FailAfter: -1}); !errors.Is(err, errStreamBroke) {
		t.Errorf("expected stream broke on creation, got %v", err)
	}
}
