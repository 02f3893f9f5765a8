// Package bootstrap wires a mediator service from configuration.
//
// An App owns the logger, the handler registry, the built-in behaviors
// selected in the mediator config, telemetry providers, the audit store and
// the optional HTTP transport.
//
// # Quick Start
//
//	cfg, err := config.Load[bootstrap.AppConfig]("orders")
//	app, err := bootstrap.NewApp(cfg)
//	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*bootstrap.AppConfig]) error {
//	    return mediator.RegisterHandler[PlaceOrder, Order](a.Registry, placeOrder)
//	})
//	app.OnRoutes(func(r gin.IRoutes, d *mediator.Dispatcher) {
//	    httpx.Handle[PlaceOrder, Order](r, http.MethodPost, "/orders", d)
//	})
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Lifecycle
//
// Startup runs in phases: infrastructure components start, OnStart hooks
// run, OnConfigure callbacks register handlers, the registry is frozen into
// a Dispatcher, OnRoutes callbacks mount HTTP routes, the transport starts
// and OnReady hooks run. Shutdown runs OnStop hooks then stops components in
// reverse order.
package bootstrap
