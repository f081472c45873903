package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solaris-erp/backoffice/internal/domain/task"
)

// DispatchService routes tasks to their registered handlers by name.
type DispatchService struct {
	handlers map[task.Name]Handler
	logger   *slog.Logger
}

// NewDispatchService creates a dispatch service over the given handlers.
// Registering two handlers under the same name is a wiring bug and panics
// at startup rather than silently shadowing one of them.
func NewDispatchService(logger *slog.Logger, handlers ...Handler) *DispatchService {
	registry := make(map[task.Name]Handler, len(handlers))
	for _, h := range handlers {
		if _, dup := registry[h.Name()]; dup {
			panic(fmt.Sprintf("duplicate task handler registered for %q", h.Name()))
		}
		registry[h.Name()] = h
	}
	return &DispatchService{
		handlers: registry,
		logger:   logger,
	}
}

// ProcessTask executes the handler registered for the task's name. An
// unknown name completes with an error Result: redelivering it would never
// succeed, so it must not block the partition.
func (s *DispatchService) ProcessTask(ctx context.Context, t *task.Task) (task.Result, error) {
	handler, ok := s.handlers[t.Name]
	if !ok {
		s.logger.Error("No handler registered for task", "task_id", t.TaskID.String(), "name", string(t.Name))
		return task.Result{
			Status:  task.StatusError,
			Message: fmt.Sprintf("no handler registered for task %q", t.Name),
		}, nil
	}

	return handler.Handle(ctx, t)
}
