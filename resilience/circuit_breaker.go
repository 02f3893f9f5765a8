package resilience

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows requests to pass through.
	StateClosed State = iota
	// StateOpen blocks all requests.
	StateOpen
	// StateHalfOpen allows limited requests to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrPanicked is recorded as the outcome of a call that panicked. The panic
// itself is re-raised.
var ErrPanicked = errors.New("call panicked")

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies this circuit breaker for logging.
	Name string
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// HalfOpenMaxCalls is the number of trial calls allowed while half-open.
	HalfOpenMaxCalls int
	// IsFailure decides whether an error counts against the breaker.
	// Nil counts every non-nil error.
	IsFailure func(err error) bool
	// OnStateChange is called when state changes, outside the breaker's lock.
	OnStateChange func(name string, from, to State)
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

func (c *CircuitBreakerConfig) applyDefaults() {
	if c.MaxFailures <= 0 {
		c.MaxFailures = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls <= 0 {
		c.HalfOpenMaxCalls = 1
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// CircuitBreaker fails fast while a downstream is unhealthy.
//
// Closed counts consecutive failures and opens at MaxFailures. Open rejects
// every call until Timeout elapsed, then turns half-open. Half-open admits
// HalfOpenMaxCalls trial calls: one failure reopens, all succeeding closes.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	openedAt      time.Time
	halfOpenCalls int
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	config.applyDefaults()
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string { return cb.config.Name }

// Allow reserves a call. On success the returned done function must be
// called exactly once with the call's outcome.
func (cb *CircuitBreaker) Allow() (done func(err error), err error) {
	cb.mu.Lock()
	changed := cb.advance()
	allowed := false
	switch cb.state {
	case StateClosed:
		allowed = true
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.config.HalfOpenMaxCalls {
			cb.halfOpenCalls++
			allowed = true
		}
	}
	cb.mu.Unlock()
	cb.notify(changed)

	if !allowed {
		return nil, ErrCircuitOpen
	}
	var once sync.Once
	return func(err error) {
		once.Do(func() { cb.record(err) })
	}, nil
}

// Execute runs fn through the breaker. Returns ErrCircuitOpen without
// calling fn when the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	done, err := cb.Allow()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			done(ErrPanicked)
			panic(r)
		}
	}()
	err = fn()
	done(err)
	return err
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	changed := cb.advance()
	s := cb.state
	cb.mu.Unlock()
	cb.notify(changed)
	return s
}

// Failures returns the current consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	changed := cb.toState(StateClosed)
	cb.mu.Unlock()
	cb.notify(changed)
}

func (cb *CircuitBreaker) record(err error) {
	failed := err != nil
	if failed && cb.config.IsFailure != nil {
		failed = cb.config.IsFailure(err)
	}

	cb.mu.Lock()
	var changed *transition
	if failed {
		changed = cb.onFailure()
	} else {
		changed = cb.onSuccess()
	}
	cb.mu.Unlock()
	cb.notify(changed)
}

func (cb *CircuitBreaker) onSuccess() *transition {
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.HalfOpenMaxCalls {
			return cb.toState(StateClosed)
		}
	}
	return nil
}

func (cb *CircuitBreaker) onFailure() *transition {
	cb.failures++
	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			return cb.toState(StateOpen)
		}
	case StateHalfOpen:
		return cb.toState(StateOpen)
	}
	return nil
}

// advance moves an expired open circuit to half-open. Callers hold mu.
func (cb *CircuitBreaker) advance() *transition {
	if cb.state == StateOpen && cb.config.Now().Sub(cb.openedAt) >= cb.config.Timeout {
		return cb.toState(StateHalfOpen)
	}
	return nil
}

type transition struct{ from, to State }

// toState switches state and resets the counters. Callers hold mu.
func (cb *CircuitBreaker) toState(to State) *transition {
	if cb.state == to {
		return nil
	}
	from := cb.state
	cb.state = to
	cb.successes = 0
	cb.halfOpenCalls = 0
	switch to {
	case StateClosed:
		cb.failures = 0
	case StateOpen:
		cb.openedAt = cb.config.Now()
	}
	return &transition{from: from, to: to}
}

func (cb *CircuitBreaker) notify(t *transition) {
	if t != nil && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, t.from, t.to)
	}
}

// BreakerSet lazily creates one CircuitBreaker per key from a template config.
type BreakerSet struct {
	template CircuitBreakerConfig

	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerSet creates an empty set. The template's Name is replaced by
// each key.
func NewBreakerSet(template CircuitBreakerConfig) *BreakerSet {
	return &BreakerSet{template: template, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for key, creating it on first use.
func (s *BreakerSet) Get(key string) *CircuitBreaker {
	s.mu.RLock()
	cb, ok := s.breakers[key]
	s.mu.RUnlock()
	if ok {
		return cb
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.breakers[key]; ok {
		return cb
	}
	cfg := s.template
	cfg.Name = key
	cb = NewCircuitBreaker(cfg)
	s.breakers[key] = cb
	return cb
}

// States returns the current state of every breaker by key.
func (s *BreakerSet) States() map[string]State {
	s.mu.RLock()
	breakers := make(map[string]*CircuitBreaker, len(s.breakers))
	for k, cb := range s.breakers {
		breakers[k] = cb
	}
	s.mu.RUnlock()

	out := make(map[string]State, len(breakers))
	for k, cb := range breakers {
		out[k] = cb.State()
	}
	return out
}
