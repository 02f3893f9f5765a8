package behavior

import (
	"context"
	"time"

	"github.com/kbukum/mediator/errors"
	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
)

// Logging writes one line per dispatch. Successes log at debug, client
// errors at warn and everything else at error.
func Logging(log *logger.Logger) mediator.OpenBehavior {
	log = log.WithComponent("behavior.logging")
	return &named{name: "behavior.Logging", fn: func(ctx context.Context, request any, next mediator.NextAny) (any, error) {
		start := time.Now()
		out, err := next(ctx)

		l := log.WithContext(ctx).WithRequestType(mediator.RequestName(request))
		fields := logger.Fields(logger.FieldDuration, time.Since(start).Milliseconds())
		switch {
		case err == nil:
			fields[logger.FieldStatus] = "ok"
			l.Debug("request handled", fields)
		case !IsServerError(err):
			fields[logger.FieldStatus] = "rejected"
			fields[logger.FieldError] = err.Error()
			l.Warn("request rejected", fields)
		default:
			fields[logger.FieldStatus] = "error"
			fields[logger.FieldError] = err.Error()
			l.Error("request failed", fields)
		}
		return out, err
	}}
}

// IsServerError reports whether err is the service's fault rather than the
// caller's: any error that is not an AppError with a 4xx status.
func IsServerError(err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.HTTPStatus >= 500 || appErr.HTTPStatus == 0
	}
	return true
}
