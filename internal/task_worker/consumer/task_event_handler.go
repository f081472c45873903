package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/solaris-erp/backoffice/internal/domain/task"
	"github.com/solaris-erp/backoffice/internal/platform/messaging/producers"
	"github.com/solaris-erp/backoffice/internal/task_worker/service"
)

// TaskEventHandler handles incoming task messages from Kafka
type TaskEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewTaskEventHandler creates a new handler
func NewTaskEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *TaskEventHandler {
	return &TaskEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes one Kafka message. Unmarshalable messages go to
// the DLQ; a handler error Result completes the task (the failure is final);
// only a returned Go error keeps the offset uncommitted for redelivery.
func (h *TaskEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var t task.Task
	if err := json.Unmarshal(value, &t); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal task from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if t.CorrelationID != "" {
		logger = h.logger.With("correlation_id", t.CorrelationID)
	}

	logger.Info("Received task for execution",
		"task_id", t.TaskID.String(),
		"name", string(t.Name),
		"attempt", t.Attempt,
	)

	result, err := h.processingService.ProcessTask(ctx, &t)
	if err != nil {
		logger.Error("Task failed transiently, leaving offset uncommitted",
			"task_id", t.TaskID.String(),
			"name", string(t.Name),
			"error", err,
		)
		return fmt.Errorf("processing task %s failed: %w", t.TaskID.String(), err)
	}

	switch result.Status {
	case task.StatusSuccess:
		logger.Info("Task completed", "task_id", t.TaskID.String(), "name", string(t.Name))
	case task.StatusWarning:
		logger.Warn("Task completed with warning",
			"task_id", t.TaskID.String(), "name", string(t.Name), "message", result.Message)
	default:
		logger.Error("Task completed with final error",
			"task_id", t.TaskID.String(), "name", string(t.Name), "message", result.Message)
	}
	return nil // commit offset
}
