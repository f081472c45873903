package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solaris-erp/backoffice/internal/domain/outbox"
	"github.com/solaris-erp/backoffice/internal/domain/task"
	"github.com/solaris-erp/backoffice/internal/platform/messaging/producers"
)

// TaskPublisher moves one outbox message onto the task topic.
type TaskPublisher interface {
	PublishTask(ctx context.Context, message *outbox.Message) error
}

// KafkaTaskPublisher implements TaskPublisher on the task topic producer.
type KafkaTaskPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

func NewKafkaTaskPublisher(
	logger *slog.Logger,
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
) TaskPublisher {
	return &KafkaTaskPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishTask serializes the message's task envelope onto the topic and
// marks the outbox row PROCESSED. The task ID is the partition key so
// redeliveries of the same task stay ordered. A publish that succeeds but
// whose status update fails leaves the row PENDING; the task is then
// published twice, which handlers tolerate.
func (p *KafkaTaskPublisher) PublishTask(ctx context.Context, message *outbox.Message) error {
	logger := p.logger
	if message.CorrelationID != "" {
		logger = p.logger.With("correlation_id", message.CorrelationID)
	}

	if err := p.producer.Publish(ctx, message.TaskID.String(), message.AsTask()); err != nil {
		return fmt.Errorf("publishing task %s to topic: %w", message.TaskID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, task.OutboxStatusProcessed); err != nil {
		logger.Error("Published task but failed to mark outbox row processed",
			"outbox_id", message.ID, "task_id", message.TaskID.String(), "error", err)
		return fmt.Errorf("marking outbox message %d processed: %w", message.ID, err)
	}

	logger.Info("Outbox message published to task topic",
		"outbox_id", message.ID, "task_id", message.TaskID.String(), "name", string(message.TaskName))
	return nil
}
