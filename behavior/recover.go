package behavior

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/kbukum/mediator/errors"
	"github.com/kbukum/mediator/logger"
	"github.com/kbukum/mediator/mediator"
)

// Recover converts a panic further down the chain into an internal
// AppError and logs the stack.
func Recover(log *logger.Logger) mediator.OpenBehavior {
	log = log.WithComponent("behavior.recover")
	return &named{name: "behavior.Recover", fn: func(ctx context.Context, request any, next mediator.NextAny) (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithContext(ctx).Error("panic recovered", logger.Fields(
					logger.FieldRequestType, mediator.RequestName(request),
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				))
				out = nil
				err = errors.Internal(fmt.Errorf("panic handling %s: %v", mediator.RequestName(request), r))
			}
		}()
		return next(ctx)
	}}
}
