package mediator

import (
	"cmp"
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/kbukum/mediator/logger"
)

type handlerEntry struct {
	requestType reflect.Type
	resultType  reflect.Type
	name        string
	invoke      invokeFunc
}

type behaviorEntry struct {
	name  string
	order int
	seq   int
	// resultType is nil for open behaviors.
	resultType reflect.Type
	link       linkFunc
}

type notificationEntry struct {
	name   string
	invoke func(ctx context.Context, notification any) error
}

// handlerTable holds the handlers and behaviors of one dispatch kind.
type handlerTable struct {
	handlers  map[reflect.Type]*handlerEntry
	behaviors map[reflect.Type][]behaviorEntry
	open      []behaviorEntry
	chains    map[reflect.Type]*Registration
}

func newHandlerTable() handlerTable {
	return handlerTable{
		handlers:  make(map[reflect.Type]*handlerEntry),
		behaviors: make(map[reflect.Type][]behaviorEntry),
	}
}

// Registry maps request types to their handler and ordered behaviors.
//
// Registration happens during startup and is safe from multiple goroutines.
// Freeze builds every chain once; afterwards the registry rejects
// registrations and serves lookups without locking.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool
	seq    int

	requests      handlerTable
	streams       handlerTable
	notifications map[reflect.Type][]notificationEntry

	log *logger.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for registration events.
func WithRegistryLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		requests:      newHandlerTable(),
		streams:       newHandlerTable(),
		notifications: make(map[reflect.Type][]notificationEntry),
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithComponent("mediator.registry")
	return r
}

// RegisterHandler registers the single handler for requests of type Req.
// It fails with a DuplicateHandlerError if Req already has one.
func RegisterHandler[Req, Res any](r *Registry, handler Handler[Req, Res]) error {
	if isNil(handler) {
		return ErrNilHandler
	}
	rt, err := requestTypeOf[Req]()
	if err != nil {
		return err
	}
	return r.addHandler(KindRequest, &r.requests, &handlerEntry{
		requestType: rt,
		resultType:  reflect.TypeFor[Res](),
		name:        componentName(handler),
		invoke: func(ctx context.Context, request any) (any, error) {
			res, err := handler.Handle(ctx, request.(Req))
			return res, err
		},
	})
}

// RegisterBehavior appends a behavior bound to the Req/Res pair. Behaviors run
// in ascending order; equal orders keep registration order.
func RegisterBehavior[Req, Res any](r *Registry, behavior Behavior[Req, Res], order int) error {
	if isNil(behavior) {
		return ErrNilHandler
	}
	rt, err := requestTypeOf[Req]()
	if err != nil {
		return err
	}
	return r.addBehavior(&r.requests, rt, behaviorEntry{
		name:       componentName(behavior),
		order:      order,
		resultType: reflect.TypeFor[Res](),
		link:       typedLink(behavior),
	})
}

// RegisterOpenBehavior appends a behavior that applies to every request type.
// It shares the ordering of RegisterBehavior.
func (r *Registry) RegisterOpenBehavior(behavior OpenBehavior, order int) error {
	if isNil(behavior) {
		return ErrNilHandler
	}
	return r.addBehavior(&r.requests, nil, behaviorEntry{
		name:  componentName(behavior),
		order: order,
		link:  linkFunc(behavior.Handle),
	})
}

// Resolve returns the handler and ordered behaviors for a request type.
func (r *Registry) Resolve(requestType reflect.Type) (*Registration, error) {
	return r.resolve(KindRequest, &r.requests, requestType)
}

// Freeze builds every chain and makes the registry read-only. It is
// idempotent. A failed freeze leaves the registry open.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return nil
	}

	requests, err := r.requests.build(KindRequest, r.log)
	if err != nil {
		return err
	}
	streams, err := r.streams.build(KindStream, r.log)
	if err != nil {
		return err
	}
	r.requests.chains = requests
	r.streams.chains = streams
	r.frozen.Store(true)

	r.log.Debug("registry frozen", logger.Fields(
		"requests", len(requests),
		"streams", len(streams),
		"notifications", len(r.notifications),
	))
	return nil
}

// Frozen reports whether Freeze has completed.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Registrations returns every request and stream registration sorted by
// kind then request name.
func (r *Registry) Registrations() ([]*Registration, error) {
	out := make([]*Registration, 0)
	for _, kt := range []struct {
		kind  Kind
		table *handlerTable
	}{{KindRequest, &r.requests}, {KindStream, &r.streams}} {
		for _, rt := range r.handlerTypes(kt.table) {
			reg, err := r.resolve(kt.kind, kt.table, rt)
			if err != nil {
				return nil, err
			}
			out = append(out, reg)
		}
	}
	return out, nil
}

// RequestTypes returns the names of every request type with a handler,
// sorted.
func (r *Registry) RequestTypes() []string {
	types := r.handlerTypes(&r.requests)
	names := make([]string, len(types))
	for i, rt := range types {
		names[i] = typeName(rt)
	}
	return names
}

// Notifications returns the handler names registered per notification type.
func (r *Registry) Notifications() map[string][]string {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make(map[string][]string, len(r.notifications))
	for nt, entries := range r.notifications {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.name
		}
		out[typeName(nt)] = names
	}
	return out
}

func (r *Registry) handlerTypes(t *handlerTable) []reflect.Type {
	if !r.frozen.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return sortedTypes(t.handlers)
}

func (r *Registry) resolve(kind Kind, t *handlerTable, rt reflect.Type) (*Registration, error) {
	if rt == nil {
		return nil, ErrNilRequest
	}
	if r.frozen.Load() {
		reg, ok := t.chains[rt]
		if !ok {
			return nil, &UnregisteredRequestError{Kind: kind, RequestType: rt}
		}
		return reg, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return t.chain(kind, rt)
}

func (r *Registry) addHandler(kind Kind, t *handlerTable, entry *handlerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if existing, ok := t.handlers[entry.requestType]; ok {
		return &DuplicateHandlerError{
			Kind:        kind,
			RequestType: entry.requestType,
			Existing:    existing.name,
			Rejected:    entry.name,
		}
	}
	t.handlers[entry.requestType] = entry

	r.log.Debug("handler registered", logger.Fields(
		logger.FieldRequestType, typeName(entry.requestType),
		logger.FieldHandler, entry.name,
		"kind", string(kind),
	))
	return nil
}

// addBehavior stores a typed behavior under rt, or an open one when rt is nil.
func (r *Registry) addBehavior(t *handlerTable, rt reflect.Type, entry behaviorEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	r.seq++
	entry.seq = r.seq

	target := "*"
	if rt == nil {
		t.open = append(t.open, entry)
	} else {
		t.behaviors[rt] = append(t.behaviors[rt], entry)
		target = typeName(rt)
	}

	r.log.Debug("behavior registered", logger.Fields(
		logger.FieldBehavior, entry.name,
		logger.FieldRequestType, target,
		logger.FieldOrder, entry.order,
	))
	return nil
}

// chain assembles the Registration for rt. Callers hold r.mu or own the table.
func (t *handlerTable) chain(kind Kind, rt reflect.Type) (*Registration, error) {
	h, ok := t.handlers[rt]
	if !ok {
		return nil, &UnregisteredRequestError{Kind: kind, RequestType: rt}
	}

	entries := make([]behaviorEntry, 0, len(t.behaviors[rt])+len(t.open))
	entries = append(entries, t.behaviors[rt]...)
	entries = append(entries, t.open...)
	slices.SortStableFunc(entries, func(a, b behaviorEntry) int {
		return cmp.Or(cmp.Compare(a.order, b.order), cmp.Compare(a.seq, b.seq))
	})

	reg := &Registration{
		kind:        kind,
		requestType: rt,
		resultType:  h.resultType,
		handlerName: h.name,
		handler:     h.invoke,
		links:       make([]linkFunc, 0, len(entries)),
		names:       make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if e.resultType != nil && e.resultType != h.resultType {
			return nil, &BehaviorMismatchError{
				RequestType: rt,
				Behavior:    e.name,
				Want:        h.resultType,
				Got:         e.resultType,
			}
		}
		reg.links = append(reg.links, e.link)
		reg.names = append(reg.names, e.name)
	}
	return reg, nil
}

func (t *handlerTable) build(kind Kind, log *logger.Logger) (map[reflect.Type]*Registration, error) {
	chains := make(map[reflect.Type]*Registration, len(t.handlers))
	for _, rt := range sortedTypes(t.handlers) {
		reg, err := t.chain(kind, rt)
		if err != nil {
			return nil, err
		}
		chains[rt] = reg
	}
	for _, rt := range sortedTypes(t.behaviors) {
		if _, ok := t.handlers[rt]; !ok {
			log.Warn("behaviors registered for a request type without handler", logger.Fields(
				logger.FieldRequestType, typeName(rt),
				"kind", string(kind),
				"behaviors", len(t.behaviors[rt]),
			))
		}
	}
	return chains, nil
}

func sortedTypes[V any](m map[reflect.Type]V) []reflect.Type {
	types := make([]reflect.Type, 0, len(m))
	for rt := range m {
		types = append(types, rt)
	}
	slices.SortFunc(types, func(a, b reflect.Type) int {
		return cmp.Compare(a.String(), b.String())
	})
	return types
}

func requestTypeOf[Req any]() (reflect.Type, error) {
	rt := reflect.TypeFor[Req]()
	if rt.Kind() == reflect.Interface {
		return nil, ErrInterfaceRequest
	}
	return rt, nil
}
