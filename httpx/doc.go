// Package httpx exposes a mediator.Dispatcher over HTTP using Gin.
//
// Each route is bound to one request type. The request is decoded from the
// URI, query string and JSON body, dispatched, and the result is written as
// {"data": ...}. Failures are written as the errors package envelope with the
// AppError's status code.
//
//	router := srv.Engine()
//	router.Use(httpx.RequestID(), httpx.BearerAuth(cfg.JWT))
//	httpx.Handle[*GetOrder, *Order](router, http.MethodGet, "/orders/:id", d)
//	httpx.Handle[*PlaceOrder, *Order](router, http.MethodPost, "/orders", d, httpx.WithStatus(http.StatusCreated))
//
// # Middleware
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-Id propagation into the request context
//   - AccessLog: one log line per request, level by status
//   - BearerAuth: HS256 JWT validation, claims for behavior.Authorization
package httpx
