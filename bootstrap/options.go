package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/mediator/audit"
	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	auditStore      audit.Store
	summaryWriter   io.Writer
	dispatcherOpts  []mediator.Option
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithAuditStore uses store instead of opening the configured driver.
// The App still closes it on shutdown.
func WithAuditStore(store audit.Store) Option {
	return func(o *appOptions) {
		o.auditStore = store
	}
}

// WithSummaryWriter redirects the startup summary (default: stdout).
func WithSummaryWriter(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryWriter = w
	}
}

// WithDispatcherOptions passes extra options to mediator.NewDispatcher.
func WithDispatcherOptions(opts ...mediator.Option) Option {
	return func(o *appOptions) {
		o.dispatcherOpts = append(o.dispatcherOpts, opts...)
	}
}
