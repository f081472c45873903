package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/solaris-erp/backoffice/internal/config"
)

// TaskMessageProducer publishes background task envelopes to the task topic.
// The outbox poller is its only caller, so publishing stays asynchronous for
// throughput; delivery guarantees come from the outbox, not the writer.
type TaskMessageProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new task producer and ensures topic exists
func NewTaskMessageProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TaskMessageProducer, error) {
	if cfg.TaskTopic == "" {
		return nil, fmt.Errorf("kafka task topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for task producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.TaskTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure task topic %s exists for task producer: %w", cfg.TaskTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.TaskTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.TaskTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.TaskTopic, "count", len(messages))
			}
		},
	}

	return &TaskMessageProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.TaskTopic,
	}, nil
}

func (p *TaskMessageProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for task producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via task producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via task producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via task producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *TaskMessageProducer) Close() error {
	p.logger.Info("Closing task Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close task kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
