package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/mediator/behavior"
	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
	"github.com/kbukum/mediator/observability"
)

// Redactor is implemented by requests whose audited payload must differ
// from the request itself, e.g. to drop secrets.
type Redactor interface {
	AuditPayload() any
}

// Skipped is implemented by requests that must not be audited.
type Skipped interface {
	SkipAudit()
}

// Behavior records every dispatch in store. A failed save is logged and
// does not affect the dispatch result.
func Behavior(store Store, log *logger.Logger) mediator.OpenBehavior {
	return &auditBehavior{store: store, log: log.WithComponent("audit"), now: time.Now}
}

type auditBehavior struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

func (b *auditBehavior) Name() string { return "audit.Behavior" }

func (b *auditBehavior) Handle(ctx context.Context, request any, next mediator.NextAny) (any, error) {
	if _, skip := request.(Skipped); skip {
		return next(ctx)
	}

	start := b.now()
	out, err := next(ctx)

	record := &Record{
		ID:          uuid.NewString(),
		RequestID:   logger.RequestIDFromContext(ctx),
		RequestType: mediator.RequestName(request),
		Status:      observability.Status(err),
		Payload:     payloadOf(request),
		StartedAt:   start.UTC(),
		DurationMs:  b.now().Sub(start).Milliseconds(),
	}
	if claims, ok := behavior.ClaimsFromContext(ctx); ok {
		record.Subject = claims.Subject
	}
	if err != nil {
		record.ErrorCode = observability.ErrorCode(err)
		record.Error = err.Error()
	}

	// the dispatch context may already be cancelled
	if serr := b.store.Save(context.WithoutCancel(ctx), record); serr != nil {
		b.log.WithContext(ctx).Error("audit record not saved", logger.Fields(
			logger.FieldRequestType, record.RequestType,
			logger.FieldError, serr.Error(),
		))
	}
	return out, err
}

func payloadOf(request any) string {
	v := request
	if r, ok := request.(Redactor); ok {
		v = r.AuditPayload()
	}
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
