package httpx

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/mediator/errors"
	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
)

// Stream event names.
const (
	EventMessage = "message"
	EventError   = "error"
	EventDone    = "done"
)

// RouteOption customizes a registered route.
type RouteOption func(*route)

type route struct {
	status int
	log    *logger.Logger
}

func newRoute(status int, opts []RouteOption) route {
	rt := route{status: status}
	for _, opt := range opts {
		opt(&rt)
	}
	if rt.log == nil {
		rt.log = logger.GetGlobalLogger().WithComponent("httpx")
	}
	return rt
}

// WithStatus overrides the success status code.
func WithStatus(code int) RouteOption {
	return func(r *route) { r.status = code }
}

// WithLogger sets the logger for failures the route cannot report to the
// client, usually Server.Logger.
func WithLogger(l *logger.Logger) RouteOption {
	return func(r *route) { r.log = l }
}

// Handle binds method and path to request type Req. Routes whose result is
// mediator.Unit answer 204 unless WithStatus says otherwise.
func Handle[Req, Res any](r gin.IRoutes, method, path string, d *mediator.Dispatcher, opts ...RouteOption) {
	status := http.StatusOK
	if reflect.TypeFor[Res]() == reflect.TypeFor[mediator.Unit]() {
		status = http.StatusNoContent
	}
	rt := newRoute(status, opts)

	r.Handle(method, path, func(c *gin.Context) {
		req, err := Bind[Req](c)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		res, err := mediator.Send[Req, Res](c.Request.Context(), d, req)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		respond(c, rt.status, res)
	})
}

// HandlePublish binds method and path to notification type N and answers
// 202 once every handler has run.
func HandlePublish[N any](r gin.IRoutes, method, path string, d *mediator.Dispatcher) {
	r.Handle(method, path, func(c *gin.Context) {
		n, err := Bind[N](c)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		if err := mediator.Publish(c.Request.Context(), d, n); err != nil {
			RespondWithError(c, err)
			return
		}
		RespondAccepted(c, nil)
	})
}

// HandleStream binds method and path to stream request type Req and writes
// every item as a server-sent "message" event. A failure before the first
// item is an ordinary error response; later failures end the stream with an
// "error" event. A failed Close is logged.
func HandleStream[Req, Item any](r gin.IRoutes, method, path string, d *mediator.Dispatcher, opts ...RouteOption) {
	rt := newRoute(http.StatusOK, opts)
	r.Handle(method, path, func(c *gin.Context) {
		req, err := Bind[Req](c)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		ctx := c.Request.Context()
		it, err := mediator.CreateStream[Req, Item](ctx, d, req)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		defer func() {
			if err := it.Close(); err != nil {
				rt.log.WithContext(ctx).Warn("Stream close failed", logger.ErrorFields("close_stream", err))
			}
		}()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		count := 0
		for {
			item, ok, err := it.Next(ctx)
			if err != nil {
				c.SSEvent(EventError, mediator.AsAppError(err).ToResponse())
				c.Writer.Flush()
				return
			}
			if !ok {
				c.SSEvent(EventDone, gin.H{"count": count})
				c.Writer.Flush()
				return
			}
			c.SSEvent(EventMessage, item)
			c.Writer.Flush()
			count++
		}
	})
}

// Bind decodes the URI parameters, query string and JSON body into a new Req.
// Pointer request types are allocated. Non-struct requests are returned as
// their zero value.
func Bind[Req any](c *gin.Context) (Req, error) {
	var req Req
	target := any(&req)
	t := reflect.TypeFor[Req]()
	if t.Kind() == reflect.Pointer {
		v := reflect.New(t.Elem())
		req = v.Interface().(Req)
		target = req
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return req, nil
	}

	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(target); err != nil {
			return req, errors.InvalidInput("path", err.Error())
		}
	}
	if c.Request.URL.RawQuery != "" {
		if err := c.ShouldBindQuery(target); err != nil {
			return req, errors.InvalidInput("query", err.Error())
		}
	}
	if hasBody(c.Request) {
		if err := c.ShouldBindJSON(target); err != nil {
			return req, errors.InvalidInput("body", err.Error())
		}
	}
	return req, nil
}

func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}
