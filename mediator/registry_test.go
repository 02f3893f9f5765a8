package mediator_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kbukum/mediator/mediator"
)

type Ping struct{ Message string }

type Pong struct{ Message string }

type Greeter interface{ Greet() string }

func pingHandler() mediator.HandlerFunc[Ping, Pong] {
	return func(_ context.Context, req Ping) (Pong, error) {
		return Pong{Message: req.Message + " Pong"}, nil
	}
}

type namedHandler struct{ name string }

func (h namedHandler) Name() string { return h.name }

func (h namedHandler) Handle(_ context.Context, req Ping) (Pong, error) {
	return Pong{Message: h.name + ":" + req.Message}, nil
}

type namedBehavior struct{ name string }

func (b namedBehavior) Name() string { return b.name }

func (b namedBehavior) Handle(ctx context.Context, _ Ping, next mediator.Next[Pong]) (Pong, error) {
	return next(ctx)
}

func TestRegisterHandler_Duplicate(t *testing.T) {
	reg := mediator.NewRegistry()
	if err := mediator.RegisterHandler[Ping, Pong](reg, namedHandler{name: "first"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := mediator.RegisterHandler[Ping, Pong](reg, namedHandler{name: "second"})
	if !errors.Is(err, mediator.ErrDuplicateHandler) {
		t.Fatalf("expected ErrDuplicateHandler, got %v", err)
	}
	var dup *mediator.DuplicateHandlerError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateHandlerError, got %T", err)
	}
	if dup.Existing != "first" || dup.Rejected != "second" {
		t.Errorf("expected existing=first rejected=second, got %s/%s", dup.Existing, dup.Rejected)
	}
	if dup.RequestType != reflect.TypeFor[Ping]() {
		t.Errorf("expected request type Ping, got %v", dup.RequestType)
	}

	// The original registration survives.
	reg2, err := reg.Resolve(reflect.TypeFor[Ping]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg2.Handler() != "first" {
		t.Errorf("expected handler first, got %s", reg2.Handler())
	}
}

func TestRegisterHandler_PointerAndValueAreDistinct(t *testing.T) {
	reg := mediator.NewRegistry()
	if err := mediator.RegisterHandler[Ping, Pong](reg, pingHandler()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ptr := mediator.HandlerFunc[*Ping, Pong](func(_ context.Context, req *Ping) (Pong, error) {
		return Pong{Message: "ptr"}, nil
	})
	if err := mediator.RegisterHandler[*Ping, Pong](reg, ptr); err != nil {
		t.Fatalf("expected pointer type to register separately, got %v", err)
	}
	if got := len(reg.RequestTypes()); got != 2 {
		t.Errorf("expected 2 request types, got %d", got)
	}
}

func TestRegisterHandler_Rejects(t *testing.T) {
	reg := mediator.NewRegistry()

	if err := mediator.RegisterHandler[Ping, Pong](reg, nil); !errors.Is(err, mediator.ErrNilHandler) {
		t.Errorf("expected ErrNilHandler, got %v", err)
	}

	iface := mediator.HandlerFunc[Greeter, string](func(_ context.Context, g Greeter) (string, error) {
		return g.Greet(), nil
	})
	if err := mediator.RegisterHandler[Greeter, string](reg, iface); !errors.Is(err, mediator.ErrInterfaceRequest) {
		t.Errorf("expected ErrInterfaceRequest, got %v", err)
	}
}

func TestRegister_RejectsTypedNilFuncs(t *testing.T) {
	reg := mediator.NewRegistry()

	tests := []struct {
		name string
		err  error
	}{
		{"handler", mediator.RegisterHandler[Ping, Pong](reg, mediator.HandlerFunc[Ping, Pong](nil))},
		{"behavior", mediator.RegisterBehavior[Ping, Pong](reg, mediator.BehaviorFunc[Ping, Pong](nil), 0)},
		{"open behavior", reg.RegisterOpenBehavior(mediator.OpenBehaviorFunc(nil), 0)},
		{"stream handler", mediator.RegisterStreamHandler[Ping, int](reg, mediator.StreamHandlerFunc[Ping, int](nil))},
		{"stream behavior", mediator.RegisterStreamBehavior[Ping, int](reg, mediator.StreamBehaviorFunc[Ping, int](nil), 0)},
		{"notification handler", mediator.RegisterNotificationHandler[Ping](reg, mediator.NotificationHandlerFunc[Ping](nil))},
	}
	for _, tc := range tests {
		if !errors.Is(tc.err, mediator.ErrNilHandler) {
			t.Errorf("%s: expected ErrNilHandler, got %v", tc.name, tc.err)
		}
	}
	// nothing was stored, so a real handler still registers
	if err := mediator.RegisterHandler[Ping, Pong](reg, pingHandler()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResolve_Unregistered(t *testing.T) {
	reg := mediator.NewRegistry()
	_, err := reg.Resolve(reflect.TypeFor[Ping]())
	if !errors.Is(err, mediator.ErrUnregisteredRequest) {
		t.Fatalf("expected ErrUnregisteredRequest, got %v", err)
	}

	if err := reg.Freeze(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = reg.Resolve(reflect.TypeFor[Ping]())
	var unreg *mediator.UnregisteredRequestError
	if !errors.As(err, &unreg) {
		t.Fatalf("expected *UnregisteredRequestError after freeze, got %v", err)
	}
	if unreg.Kind != mediator.KindRequest {
		t.Errorf("expected kind request, got %s", unreg.Kind)
	}
}

func TestResolve_OrderIsStableAndDeterministic(t *testing.T) {
	reg := mediator.NewRegistry()
	if err := mediator.RegisterHandler[Ping, Pong](reg, pingHandler()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	add := func(name string, order int) {
		t.Helper()
		if err := mediator.RegisterBehavior[Ping, Pong](reg, namedBehavior{name: name}, order); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	add("c", 20)
	add("a", 10)
	add("b", 10)
	if err := reg.RegisterOpenBehavior(openNamed("open"), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	add("first", 0)

	expected := []string{"first", "a", "b", "open", "c"}

	for _, freeze := range []bool{false, true} {
		if freeze {
			if err := reg.Freeze(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		for i := 0; i < 3; i++ {
			r, err := reg.Resolve(reflect.TypeFor[Ping]())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(r.Behaviors(), expected) {
				t.Fatalf("frozen=%v: expected %v, got %v", freeze, expected, r.Behaviors())
			}
		}
	}
}

func TestFreeze_RejectsRegistration(t *testing.T) {
	reg := mediator.NewRegistry()
	if err := reg.Freeze(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("expected second freeze to be a no-op, got %v", err)
	}
	if !reg.Frozen() {
		t.Fatal("expected registry to be frozen")
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"handler", func() error { return mediator.RegisterHandler[Ping, Pong](reg, pingHandler()) }},
		{"behavior", func() error { return mediator.RegisterBehavior[Ping, Pong](reg, namedBehavior{name: "b"}, 0) }},
		{"open behavior", func() error { return reg.RegisterOpenBehavior(openNamed("o"), 0) }},
		{"notification", func() error {
			return mediator.RegisterNotificationHandler[Ping](reg, mediator.NotificationHandlerFunc[Ping](
				func(context.Context, Ping) error { return nil }))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, mediator.ErrRegistryFrozen) {
				t.Errorf("expected ErrRegistryFrozen, got %v", err)
			}
		})
	}
}

func TestFreeze_BehaviorMismatch(t *testing.T) {
	reg := mediator.NewRegistry()
	if err := mediator.RegisterHandler[Ping, Pong](reg, pingHandler()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wrong := mediator.BehaviorFunc[Ping, string](func(ctx context.Context, _ Ping, next mediator.Next[string]) (string, error) {
		return next(ctx)
	})
	if err := mediator.RegisterBehavior[Ping, string](reg, wrong, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := reg.Freeze()
	var mismatch *mediator.BehaviorMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *BehaviorMismatchError, got %v", err)
	}
	if mismatch.Want != reflect.TypeFor[Pong]() || mismatch.Got != reflect.TypeFor[string]() {
		t.Errorf("expected want=Pong got=string, got want=%v got=%v", mismatch.Want, mismatch.Got)
	}
	if reg.Frozen() {
		t.Error("expected failed freeze to leave the registry open")
	}
}

func TestRegistrations(t *testing.T) {
	reg := mediator.NewRegistry()
	_ = mediator.RegisterHandler[Ping, Pong](reg, namedHandler{name: "ping"})
	_ = mediator.RegisterStreamHandler[Ping, int](reg, mediator.StreamHandlerFunc[Ping, int](
		func(context.Context, Ping) (mediator.Iterator[int], error) { return mediator.SliceIterator(1), nil }))
	_ = reg.RegisterOpenBehavior(openNamed("log"), 0)
	_ = mediator.RegisterNotificationHandler[Pong](reg, mediator.NotificationHandlerFunc[Pong](
		func(context.Context, Pong) error { return nil }))

	regs, err := reg.Registrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 registrations, got %d", len(regs))
	}
	if regs[0].Kind() != mediator.KindRequest || regs[1].Kind() != mediator.KindStream {
		t.Errorf("expected request then stream, got %s then %s", regs[0].Kind(), regs[1].Kind())
	}
	if got := regs[0].Behaviors(); len(got) != 1 || got[0] != "log" {
		t.Errorf("expected open behavior on request chain, got %v", got)
	}
	if got := regs[1].Behaviors(); len(got) != 0 {
		t.Errorf("expected open behaviors to skip streams, got %v", got)
	}
	if regs[0].ResultType() != reflect.TypeFor[Pong]() {
		t.Errorf("expected result type Pong, got %v", regs[0].ResultType())
	}

	notes := reg.Notifications()
	if len(notes["mediator_test.Pong"]) != 1 {
		t.Errorf("expected one Pong notification handler, got %v", notes)
	}
}

type openNamed string

func (o openNamed) Name() string { return string(o) }

func (o openNamed) Handle(ctx context.Context, _ any, next mediator.NextAny) (any, error) {
	return next(ctx)
}
