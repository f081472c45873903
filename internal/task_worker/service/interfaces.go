package service

import (
	"context"

	"github.com/solaris-erp/backoffice/internal/domain/task"
)

// ProcessingService executes one task from the queue. A returned Result
// (any status) completes the task; a returned error triggers redelivery.
type ProcessingService interface {
	ProcessTask(ctx context.Context, t *task.Task) (task.Result, error)
}

// Handler executes one registered task kind.
type Handler interface {
	Name() task.Name
	Handle(ctx context.Context, t *task.Task) (task.Result, error)
}
