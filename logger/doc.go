// Package logger provides structured logging on top of zerolog.
//
// It supports console and JSON output, level configuration, component-scoped
// loggers and request/trace IDs carried through context.Context.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "orders").WithComponent("mediator")
//	log.Info("handler registered", logger.Fields("request_type", "PlaceOrder"))
package logger
