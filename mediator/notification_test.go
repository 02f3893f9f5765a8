package mediator_test

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/kbukum/mediator/mediator"
)

type Pinged struct{ Message string }

func TestPublish_Sequential(t *testing.T) {
	tracker := &callTracker{}
	boom := errors.New("boom")
	d := newDispatcher(t, func(reg *mediator.Registry) {
		for _, name := range []string{"first", "fail", "third"} {
			_ = mediator.RegisterNotificationHandler[Pinged](reg, mediator.NotificationHandlerFunc[Pinged](
				func(context.Context, Pinged) error {
					tracker.record(name)
					if name == "fail" {
						return boom
					}
					return nil
				}))
		}
	})

	err := mediator.Publish(context.Background(), d, Pinged{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	expected := []string{"first", "fail"}
	if got := tracker.get(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestPublish_Parallel(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	d := newDispatcher(t, func(reg *mediator.Registry) {
		for i := 0; i < 4; i++ {
			_ = mediator.RegisterNotificationHandler[Pinged](reg, mediator.NotificationHandlerFunc[Pinged](
				func(context.Context, Pinged) error {
					calls.Add(1)
					if i == 0 {
						return boom
					}
					return nil
				}))
		}
	}, mediator.WithPublishStrategy(mediator.PublishParallel))

	err := d.Publish(context.Background(), Pinged{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("expected all 4 handlers to run, got %d", got)
	}
}

func TestPublish_NoHandlers(t *testing.T) {
	d := newDispatcher(t, func(*mediator.Registry) {})
	if err := d.Publish(context.Background(), Pinged{}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := d.Publish(context.Background(), nil); !errors.Is(err, mediator.ErrNilRequest) {
		t.Errorf("expected ErrNilRequest, got %v", err)
	}
}

func TestPublish_Observer(t *testing.T) {
	type outcome struct {
		name string
		err  error
	}
	var seen []outcome
	boom := errors.New("boom")
	d := newDispatcher(t, func(reg *mediator.Registry) {
		_ = mediator.RegisterNotificationHandler[Pinged](reg, mediator.NotificationHandlerFunc[Pinged](
			func(_ context.Context, p Pinged) error {
				if p.Message == "fail" {
					return boom
				}
				return nil
			}))
	}, mediator.WithPublishObserver(func(_ context.Context, name string, err error) {
		seen = append(seen, outcome{name, err})
	}))

	_ = d.Publish(context.Background(), Pinged{})
	_ = d.Publish(context.Background(), Pinged{Message: "fail"})
	_ = d.Publish(context.Background(), Ping{})

	if len(seen) != 3 {
		t.Fatalf("expected 3 observed publishes, got %d", len(seen))
	}
	if seen[0].err != nil || seen[2].err != nil {
		t.Errorf("expected nil errors for ok and unhandled publishes, got %v and %v", seen[0].err, seen[2].err)
	}
	if !errors.Is(seen[1].err, boom) {
		t.Errorf("expected boom, got %v", seen[1].err)
	}
	if seen[0].name == "" || seen[0].name == seen[2].name {
		t.Errorf("expected distinct notification names, got %q and %q", seen[0].name, seen[2].name)
	}
}

func TestParsePublishStrategy(t *testing.T) {
	tests := []struct {
		in       string
		expected mediator.PublishStrategy
	}{
		{"parallel", mediator.PublishParallel},
		{"sequential", mediator.PublishSequential},
		{"", mediator.PublishSequential},
		{"bogus", mediator.PublishSequential},
	}
	for _, tt := range tests {
		if got := mediator.ParsePublishStrategy(tt.in); got != tt.expected {
			t.Errorf("%q: expected %s, got %s", tt.in, tt.expected, got)
		}
	}
}
