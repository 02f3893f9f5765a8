package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/mediator/logger"
)

// Component is a lifecycle-managed piece of infrastructure: a telemetry
// provider, the audit store, the HTTP server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Checker is optionally implemented by components that can report health.
type Checker interface {
	Check(ctx context.Context) error
}

// NewComponent builds a Component from functions. Either may be nil.
func NewComponent(name string, start, stop func(ctx context.Context) error) Component {
	return &funcComponent{name: name, start: start, stop: stop}
}

type funcComponent struct {
	name        string
	start, stop func(ctx context.Context) error
}

func (c *funcComponent) Name() string { return c.name }

func (c *funcComponent) Start(ctx context.Context) error {
	if c.start == nil {
		return nil
	}
	return c.start(ctx)
}

func (c *funcComponent) Stop(ctx context.Context) error {
	if c.stop == nil {
		return nil
	}
	return c.stop(ctx)
}

type componentEntry struct {
	component Component
	started   bool
}

// Components starts components in registration order and stops them in
// reverse order. Only started components are stopped.
type Components struct {
	mu      sync.Mutex
	entries []*componentEntry
	lookup  map[string]*componentEntry
	log     *logger.Logger
}

// NewComponents creates an empty component set.
func NewComponents(log *logger.Logger) *Components {
	return &Components{
		lookup: make(map[string]*componentEntry),
		log:    log,
	}
}

// Register adds c. Register dependencies first.
func (r *Components) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	entry := &componentEntry{component: c}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry

	r.log.Debug("Component registered", map[string]interface{}{
		logger.FieldComponent: name,
	})
	return nil
}

// StartAll starts every registered component not started yet.
func (r *Components) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.entries {
		if entry.started {
			continue
		}
		name := entry.component.Name()
		if err := entry.component.Start(ctx); err != nil {
			r.log.Error("Component start failed", map[string]interface{}{
				logger.FieldComponent: name,
				logger.FieldError:     err.Error(),
			})
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		entry.started = true
		r.log.Debug("Component started", map[string]interface{}{logger.FieldComponent: name})
	}
	return nil
}

// StopAll stops started components in reverse registration order and
// joins their errors.
func (r *Components) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if !entry.started {
			continue
		}
		name := entry.component.Name()

		stopCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := entry.component.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", name, err))
			r.log.Error("Component stop failed", map[string]interface{}{
				logger.FieldComponent: name,
				logger.FieldError:     err.Error(),
			})
		} else {
			r.log.Debug("Component stopped", map[string]interface{}{logger.FieldComponent: name})
		}
		entry.started = false
		cancel()
	}
	return stderrors.Join(errs...)
}

// Check runs Check on every started component that implements Checker and
// returns the failures keyed by component name.
func (r *Components) Check(ctx context.Context) map[string]error {
	r.mu.Lock()
	checkers := make(map[string]Checker)
	for _, entry := range r.entries {
		if checker, ok := entry.component.(Checker); ok && entry.started {
			checkers[entry.component.Name()] = checker
		}
	}
	r.mu.Unlock()

	failures := make(map[string]error)
	for name, checker := range checkers {
		if err := checker.Check(ctx); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// Names returns component names in registration order.
func (r *Components) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.component.Name()
	}
	return names
}
