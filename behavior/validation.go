package behavior

import (
	"context"

	"github.com/kbukum/mediator/mediator"
	"github.com/kbukum/mediator/validation"
)

// Validation rejects requests that fail validation.Validate before they
// reach the handler.
func Validation() mediator.OpenBehavior {
	return &named{name: "behavior.Validation", fn: func(ctx context.Context, request any, next mediator.NextAny) (any, error) {
		if err := validation.Validate(request); err != nil {
			return nil, err
		}
		return next(ctx)
	}}
}
