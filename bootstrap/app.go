package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediator/audit"
	"github.com/kbukum/mediator/httpx"
	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
	"github.com/kbukum/mediator/observability"
	"github.com/kbukum/mediator/resilience"
)

// App is a mediator service with uniform lifecycle management.
// The type parameter C is the config type; any struct embedding AppConfig
// satisfies Config.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*OrdersConfig]) error {
//	    // a.Cfg is *OrdersConfig, fully typed
//	    return mediator.RegisterHandler[PlaceOrder, Order](a.Registry, placeOrder)
//	})
//	app.Run(context.Background())
type App[C Config] struct {
	Name       string
	Version    string
	Cfg        C
	Logger     *logger.Logger
	Registry   *mediator.Registry
	Components *Components
	Summary    *Summary

	// Set during startup.
	Dispatcher *mediator.Dispatcher
	Server     *httpx.Server
	Audit      audit.Store
	Metrics    *observability.DispatchMetrics
	Breakers   *resilience.BreakerSet

	gracefulTimeout time.Duration
	dispatcherOpts  []mediator.Option
	onConfigure     []func(ctx context.Context, app *App[C]) error
	onRoutes        []func(r gin.IRoutes, d *mediator.Dispatcher)

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates an application from a typed config.
// It applies defaults, validates the config and initializes the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetAppConfig()

	o := resolveOptions(opts)
	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		dispatcherOpts:  o.dispatcherOpts,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Registry = mediator.NewRegistry(mediator.WithRegistryLogger(app.Logger))
	app.Components = NewComponents(app.Logger.WithComponent("bootstrap"))
	app.Summary = NewSummary(base.Name, base.Version)
	if o.summaryWriter != nil {
		app.Summary.SetWriter(o.summaryWriter)
	}

	if err := app.registerInfrastructure(o.auditStore); err != nil {
		return nil, err
	}
	if base.HTTP.Enabled {
		app.Server = httpx.New(base.HTTP, app.Logger)
	}
	return app, nil
}

// OnConfigure registers a callback that registers handlers and behaviors.
// Callbacks run after infrastructure is started and before the registry
// is frozen.
func (a *App[C]) OnConfigure(fn func(ctx context.Context, app *App[C]) error) {
	a.onConfigure = append(a.onConfigure, fn)
}

// OnRoutes registers a callback that mounts HTTP routes once the dispatcher
// exists. Ignored when HTTP is disabled.
func (a *App[C]) OnRoutes(fn func(r gin.IRoutes, d *mediator.Dispatcher)) {
	a.onRoutes = append(a.onRoutes, fn)
}

// ReadyCheck verifies that every started component reports healthy.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	failures := a.Components.Check(ctx)
	if len(failures) == 0 {
		return nil
	}
	unhealthy := make([]string, 0, len(failures))
	for name, err := range failures {
		unhealthy = append(unhealthy, name+"("+err.Error()+")")
	}
	return fmt.Errorf("unhealthy components: %v", unhealthy)
}

// Run starts the application and serves until SIGINT, SIGTERM or ctx
// cancellation, then shuts down.
func (a *App[C]) Run(ctx context.Context) error {
	return a.RunTask(ctx, func(ctx context.Context) error {
		a.Logger.Info("Application ready, waiting for shutdown signal")
		<-ctx.Done()
		return nil
	})
}

// RunTask executes a finite task with the full bootstrap lifecycle. The
// task's context is canceled on SIGINT/SIGTERM; shutdown follows the task.
// A task error takes precedence over a shutdown error.
//
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := mediator.Send[Reindex, mediator.Unit](ctx, app.Dispatcher, Reindex{})
//	    return err
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		_ = a.stop()
		return err
	}

	taskCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	done := make(chan struct{})
	go func() {
		select {
		case <-taskCtx.Done():
			if ctx.Err() == nil {
				a.Logger.Info("Received shutdown signal, canceling task")
			}
		case <-done:
		}
	}()

	taskErr := task(taskCtx)
	close(done)
	if stopErr := a.stop(); taskErr == nil {
		return stopErr
	}
	return taskErr
}

// startup performs the initialization sequence shared by Run and RunTask.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()
	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if err := a.installBehaviors(); err != nil {
		return fmt.Errorf("installing behaviors: %w", err)
	}
	if err := a.configure(ctx); err != nil {
		return fmt.Errorf("configuration failed: %w", err)
	}

	opts := append([]mediator.Option{
		mediator.WithLogger(a.Logger),
		mediator.WithPublishStrategy(mediator.ParsePublishStrategy(a.Cfg.GetAppConfig().Mediator.PublishStrategy)),
	}, a.dispatcherOpts...)
	if a.Metrics != nil {
		opts = append(opts, mediator.WithPublishObserver(a.Metrics.RecordPublish))
	}
	d, err := mediator.NewDispatcher(a.Registry, opts...)
	if err != nil {
		return fmt.Errorf("building dispatcher: %w", err)
	}
	a.Dispatcher = d

	if err := a.startTransport(ctx); err != nil {
		return err
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", logger.ErrorFields("ready_check", err))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// configure runs the OnConfigure callbacks.
func (a *App[C]) configure(ctx context.Context) error {
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// startTransport mounts routes and starts the HTTP server, if enabled.
func (a *App[C]) startTransport(ctx context.Context) error {
	if a.Server == nil {
		return nil
	}
	routes := a.Server.Routes()
	for _, fn := range a.onRoutes {
		fn(routes, a.Dispatcher)
	}
	if err := a.Components.Register(&serverComponent{server: a.Server}); err != nil {
		return err
	}
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("starting transport: %w", err)
	}
	return nil
}

// DisplaySummary writes the startup summary.
func (a *App[C]) DisplaySummary() {
	a.Summary.Display(a.Registry, a.Server, a.Components)
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App[C]) Shutdown(_ context.Context) error {
	return a.stop()
}

// stop runs OnStop hooks and stops components within the graceful timeout.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.ErrorFields("on_stop", err))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Shutdown completed with errors", logger.ErrorFields("stop", err))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
