package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/solaris-erp/backoffice/internal/domain/task"
)

// WorkerPoolProcessingService runs task execution on a bounded ants pool.
// The caller still blocks until its own task finishes, so the consumer
// commits offsets only after the side effect ran; the pool bounds how many
// outbound HTTP calls are in flight at once.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan taskOutcome
}

type taskOutcome struct {
	result task.Result
	err    error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan taskOutcome),
	}, nil
}

// ProcessTask submits a task to the worker pool and waits for its outcome.
func (s *WorkerPoolProcessingService) ProcessTask(ctx context.Context, t *task.Task) (task.Result, error) {
	logger := s.logger
	if t.CorrelationID != "" {
		logger = s.logger.With("correlation_id", t.CorrelationID)
	}

	logger.Info("Submitting task to worker pool",
		"task_id", t.TaskID.String(),
		"name", string(t.Name),
	)

	outcomeChan := make(chan taskOutcome, 1)

	taskID := t.TaskID.String()
	s.mu.Lock()
	s.results[taskID] = outcomeChan
	s.mu.Unlock()

	// Copy the task to avoid data races with the submitting goroutine
	taskCopy := *t

	err := s.pool.Submit(func() {
		result, err := s.baseService.ProcessTask(ctx, &taskCopy)

		outcomeChan <- taskOutcome{result: result, err: err}

		s.mu.Lock()
		delete(s.results, taskID)
		close(outcomeChan)
		s.mu.Unlock()
	})

	if err != nil {
		s.mu.Lock()
		delete(s.results, taskID)
		close(outcomeChan)
		s.mu.Unlock()

		logger.Error("Failed to submit task to worker pool",
			"task_id", t.TaskID.String(),
			"error", err,
		)
		return task.Result{}, err
	}

	outcome := <-outcomeChan
	return outcome.result, outcome.err
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
