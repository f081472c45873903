// Package ticket models support tickets and their lifecycle. Tickets inherit
// an SLA deadline from their type at creation and stamp responder/resolver
// bookkeeping on each transition; the conclusion date is write-once.
package ticket

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates ticket lifecycle states.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusWaiting  Status = "WAITING"
	StatusAnswered Status = "ANSWERED"
	StatusResolved Status = "RESOLVED"
	StatusClosed   Status = "CLOSED"
)

// Priority enumerates urgency levels.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// statusDisplay and priorityDisplay are the human-readable labels used in
// outbound notifications.
var statusDisplay = map[Status]string{
	StatusOpen:     "Aberto",
	StatusWaiting:  "Aguardando",
	StatusAnswered: "Respondido",
	StatusResolved: "Resolvido",
	StatusClosed:   "Fechado",
}

var priorityDisplay = map[Priority]string{
	PriorityLow:    "Baixa",
	PriorityMedium: "Média",
	PriorityHigh:   "Alta",
}

// Type categorizes tickets and carries the SLA deadline copied onto each
// ticket at creation.
type Type struct {
	ID       uuid.UUID
	Name     string
	Deadline *time.Duration
}

// Person is a user reference consumed by the ticket engine.
type Person struct {
	ID         uuid.UUID
	Name       string
	Email      string
	Department string
}

// Project is the slim CRM projection shown in notifications.
type Project struct {
	ID            uuid.UUID
	ProjectNumber string
	CustomerName  string
}

// Ticket is a support request.
type Ticket struct {
	ID       uuid.UUID
	Protocol string

	Project     *Project
	Subject     string
	Description string
	TicketType  Type
	Priority    Priority

	Requester             Person
	Responsible           *Person
	ResponsibleDepartment string

	Status   Status
	Deadline time.Duration // copied from TicketType at creation, read-only

	AnsweredAt *time.Time
	AnsweredBy *uuid.UUID
	ResolvedAt *time.Time
	ResolvedBy *uuid.UUID
	ClosedAt   *time.Time
	ClosedBy   *uuid.UUID

	// ConclusionDate is set on the first transition into RESOLVED or CLOSED
	// and never overwritten.
	ConclusionDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	Deleted   bool
}

// StatusDisplay returns the human-readable status label.
func (t *Ticket) StatusDisplay() string {
	if label, ok := statusDisplay[t.Status]; ok {
		return label
	}
	return string(t.Status)
}

// PriorityDisplay returns the human-readable urgency label.
func (t *Ticket) PriorityDisplay() string {
	if label, ok := priorityDisplay[t.Priority]; ok {
		return label
	}
	return string(t.Priority)
}

// New creates a ticket in OPEN state. The ticket type must define a deadline
// and the requester must belong to a department; the responsible department
// is derived from the requester's employment.
func New(ticketType Type, subject, description string, priority Priority, requester Person, responsible *Person, project *Project, now time.Time) (*Ticket, error) {
	if ticketType.Deadline == nil {
		return nil, ErrMissingDeadline
	}
	if requester.Department == "" {
		return nil, ErrRequesterWithoutDepartment
	}

	return &Ticket{
		ID:                    uuid.New(),
		Protocol:              now.Format("20060102150405"),
		Project:               project,
		Subject:               subject,
		Description:           description,
		TicketType:            ticketType,
		Priority:              priority,
		Requester:             requester,
		Responsible:           responsible,
		ResponsibleDepartment: requester.Department,
		Status:                StatusOpen,
		Deadline:              *ticketType.Deadline,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Transition moves the ticket to the target state. Any state is reachable
// from any other (admin-permitted); the bookkeeping below is the
// state-specific part. ConclusionDate is first-writer-wins.
func (t *Ticket) Transition(target Status, actor uuid.UUID, now time.Time) error {
	switch target {
	case StatusOpen, StatusWaiting:
	case StatusAnswered:
		t.AnsweredAt = &now
		t.AnsweredBy = &actor
	case StatusResolved:
		t.ResolvedAt = &now
		t.ResolvedBy = &actor
		t.concludeOnce(now)
	case StatusClosed:
		t.ClosedAt = &now
		t.ClosedBy = &actor
		t.concludeOnce(now)
	default:
		return ErrInvalidStatus
	}
	t.Status = target
	t.UpdatedAt = now
	return nil
}

func (t *Ticket) concludeOnce(now time.Time) {
	if t.ConclusionDate == nil {
		t.ConclusionDate = &now
	}
}
