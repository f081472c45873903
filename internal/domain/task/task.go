// Package task defines the envelope exchanged between the submitting side
// (HTTP services writing to the task outbox) and the worker that executes
// background work. Handlers are keyed by Name and must be idempotent:
// delivery is at-least-once and carries no ordering guarantee.
package task

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Name identifies a registered task handler.
type Name string

const (
	NameSendToOmie            Name = "financial.send_to_omie"
	NameResendApprovalRequest Name = "financial.resend_approval_request"
	NameNotifyAuditChange     Name = "financial.notify_audit_change"
	NameSendTicketToTeams     Name = "ticket.send_info_to_teams"
)

// Task is the message published to the task topic. Payload is the
// handler-specific JSON body; Attempt counts deliveries for backoff.
type Task struct {
	TaskID        uuid.UUID       `json:"task_id"`
	Name          Name            `json:"name"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Attempt       int             `json:"attempt"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
}

// ResultStatus classifies how a handler finished.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusWarning ResultStatus = "warning"
	StatusError   ResultStatus = "error"
)

// Result is a structured handler outcome. Any Result, including an error one,
// means the task is complete and must not be retried; retry happens only when
// the handler returns a Go error (transient failure).
type Result struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message"`
}

// OutboxStatus defines task publishing states in the durable outbox.
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// RecordTaskPayload is shared by the financial tasks that operate on a
// single financial record.
type RecordTaskPayload struct {
	RecordID uuid.UUID `json:"record_id"`
}

// TicketTaskPayload is carried by ticket notification tasks.
type TicketTaskPayload struct {
	TicketID uuid.UUID `json:"ticket_id"`
}
