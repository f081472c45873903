// Package outbox implements the durable side of the task dispatcher. Tasks
// are inserted in the same database transaction as the domain write, then
// picked up by a poller and published to the task topic. This makes Submit
// survive process restarts and decouples task execution from the submitting
// transaction's commit.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/solaris-erp/backoffice/internal/domain/task"
)

// Message is one durable task submission awaiting publication.
type Message struct {
	ID            int64             `json:"id"`
	TaskID        uuid.UUID         `json:"task_id"`
	TaskName      task.Name         `json:"task_name"`
	Payload       json.RawMessage   `json:"payload"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Status        task.OutboxStatus `json:"status"`
	Attempts      int               `json:"attempts"`
	CreatedAt     time.Time         `json:"created_at"`
	LastAttemptAt *time.Time        `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a task payload for durable submission.
func NewMessage(name task.Name, payload any, correlationID string, now time.Time) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		TaskID:        uuid.New(),
		TaskName:      name,
		Payload:       raw,
		CorrelationID: correlationID,
		Status:        task.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     now,
	}, nil
}

// AsTask builds the queue envelope published to the task topic.
func (m *Message) AsTask() *task.Task {
	return &task.Task{
		TaskID:        m.TaskID,
		Name:          m.TaskName,
		Payload:       m.Payload,
		CorrelationID: m.CorrelationID,
		Attempt:       m.Attempts,
		EnqueuedAt:    m.CreatedAt,
	}
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = task.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = task.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}
