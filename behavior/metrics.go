package behavior

import (
	"context"
	"time"

	"github.com/kbukum/mediator/mediator"
	"github.com/kbukum/mediator/observability"
	"github.com/kbukum/mediator/resilience"
)

// Metrics records dispatch count, duration and errors per request type.
func Metrics(m *observability.DispatchMetrics) mediator.OpenBehavior {
	return &named{name: "behavior.Metrics", fn: func(ctx context.Context, request any, next mediator.NextAny) (out any, err error) {
		name := mediator.RequestName(request)
		start := time.Now()
		m.RecordStart(ctx, name, string(mediator.KindRequest))
		defer func() {
			if r := recover(); r != nil {
				m.RecordDispatch(ctx, name, string(mediator.KindRequest), resilience.ErrPanicked, time.Since(start))
				panic(r)
			}
			m.RecordDispatch(ctx, name, string(mediator.KindRequest), err, time.Since(start))
		}()
		return next(ctx)
	}}
}
