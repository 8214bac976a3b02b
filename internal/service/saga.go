package service

import (
	"context"
	"fmt"
	"log/slog"
)

// sagaStep is one unit of a multi-step workflow with an undo action.
type sagaStep struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs steps in order. When a step fails, the compensations of every
// completed step run in reverse order. Compensation failures are logged and
// do not mask the original error.
type saga struct {
	steps  []sagaStep
	logger *slog.Logger
}

func (s *saga) run(ctx context.Context) error {
	var completed []sagaStep

	for _, step := range s.steps {
		if err := step.execute(ctx); err != nil {
			s.rollback(ctx, completed)
			return fmt.Errorf("step %s: %w", step.name, err)
		}
		completed = append(completed, step)
	}
	return nil
}

func (s *saga) rollback(ctx context.Context, completed []sagaStep) {
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.compensate == nil {
			continue
		}
		if err := step.compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				"step", step.name,
				"error", err,
			)
		}
	}
}
