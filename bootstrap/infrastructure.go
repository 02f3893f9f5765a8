package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/mediator/audit"
	"github.com/kbukum/mediator/config"
	"github.com/kbukum/mediator/httpx"
	"github.com/kbukum/mediator/observability"
)

// registerInfrastructure adds the components implied by the configuration.
// They start in phase 1, before any handler is registered.
func (a *App[C]) registerInfrastructure(override audit.Store) error {
	cfg := a.Cfg.GetAppConfig()

	if cfg.Telemetry.Tracing.Enabled {
		tc := observability.TracerConfigFrom(&cfg.ServiceConfig, cfg.Telemetry.Tracing)
		var shutdown func(context.Context) error
		err := a.Components.Register(NewComponent("tracer",
			func(ctx context.Context) error {
				tp, err := observability.InitTracer(ctx, tc)
				if err != nil {
					return err
				}
				shutdown = tp.Shutdown
				return nil
			},
			func(ctx context.Context) error { return shutdown(ctx) }))
		if err != nil {
			return err
		}
		a.Summary.TrackInfrastructure("tracer", "otlp/http "+tc.Endpoint)
	}

	if cfg.Telemetry.Metrics.Enabled {
		mc := observability.MeterConfigFrom(&cfg.ServiceConfig, cfg.Telemetry.Metrics)
		var shutdown func(context.Context) error
		err := a.Components.Register(NewComponent("meter",
			func(ctx context.Context) error {
				mp, err := observability.InitMeter(ctx, mc)
				if err != nil {
					return err
				}
				shutdown = mp.Shutdown
				return nil
			},
			func(ctx context.Context) error { return shutdown(ctx) }))
		if err != nil {
			return err
		}
		a.Summary.TrackInfrastructure("meter", "otlp/http "+mc.Endpoint)
	}

	if cfg.Mediator.Enabled(config.BehaviorAudit) || override != nil {
		if err := a.Components.Register(&auditComponent[C]{app: a, cfg: cfg.Mediator.Audit, store: override}); err != nil {
			return err
		}
		a.Summary.TrackInfrastructure("audit", "driver="+cfg.Mediator.Audit.Driver)
	}
	return nil
}

// auditComponent opens the configured store on start and publishes it on
// the App for the audit behavior.
type auditComponent[C Config] struct {
	app   *App[C]
	cfg   config.AuditConfig
	store audit.Store
}

func (c *auditComponent[C]) Name() string { return "audit" }

func (c *auditComponent[C]) Start(_ context.Context) error {
	if c.store == nil {
		store, err := audit.Open(c.cfg)
		if err != nil {
			return err
		}
		c.store = store
	}
	c.app.Audit = c.store
	return nil
}

func (c *auditComponent[C]) Stop(_ context.Context) error {
	return c.store.Close()
}

func (c *auditComponent[C]) Check(ctx context.Context) error {
	if p, ok := c.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// serverComponent starts the HTTP transport after routes are mounted.
type serverComponent struct {
	server *httpx.Server
}

func (c *serverComponent) Name() string { return "http" }

func (c *serverComponent) Start(ctx context.Context) error {
	if err := c.server.Start(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (c *serverComponent) Stop(ctx context.Context) error {
	return c.server.Stop(ctx)
}
