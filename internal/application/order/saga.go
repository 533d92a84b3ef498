package order

import (
	"context"
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// sagaStep is one unit of the order-creation workflow: an action against an
// independently-owned store and the compensation that undoes it. There is
// no shared transaction across the stores, so compensation is the only
// rollback mechanism available.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// runSaga executes the steps in order. When a step fails, the compensations
// of every completed step run in reverse order. A failing compensation is
// logged and the remaining compensations still run; at that point manual
// intervention is required and the log entry is the trail.
func runSaga(ctx context.Context, logger observability.Logger, steps []sagaStep) error {
	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}

		logger.Warn("saga_step_failed",
			observability.F("step", step.name),
			observability.F("error", err.Error()),
		)
		for j := i - 1; j >= 0; j-- {
			if steps[j].compensate == nil {
				continue
			}
			if cerr := steps[j].compensate(ctx); cerr != nil {
				logger.Error("saga_compensation_failed",
					observability.F("step", steps[j].name),
					observability.F("error", cerr.Error()),
				)
			}
		}
		return fmt.Errorf("%s: %w", step.name, err)
	}
	return nil
}
