package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
	"github.com/solaris-erp/backoffice/internal/platform/persistence"
)

// TicketRepository implements the ticket.Repository interface for PostgreSQL
type TicketRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTicketRepository creates a new PostgreSQL ticket repository
func NewTicketRepository(logger *slog.Logger, db *persistence.PostgresDB) ticket.Repository {
	return &TicketRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
func (r *TicketRepository) WithTx(tx pgx.Tx) ticket.Repository {
	return &TicketRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const ticketColumns = `
	id, protocol, subject, description,
	ticket_type_id, ticket_type_name, deadline_seconds, priority,
	project_id, project_number, project_customer_name,
	requester_id, requester_name, requester_email, requester_department,
	responsible_id, responsible_name, responsible_email, responsible_department,
	status, answered_at, answered_by, resolved_at, resolved_by,
	closed_at, closed_by, conclusion_date, created_at, updated_at
`

// Create stores a new ticket. The type snapshot (name and deadline) is
// denormalized onto the row so later type edits do not rewrite history.
func (r *TicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	`

	var projectID *uuid.UUID
	var projectNumber, projectCustomer *string
	if t.Project != nil {
		projectID = &t.Project.ID
		projectNumber = &t.Project.ProjectNumber
		projectCustomer = &t.Project.CustomerName
	}

	var responsibleID *uuid.UUID
	var responsibleName, responsibleEmail *string
	if t.Responsible != nil {
		responsibleID = &t.Responsible.ID
		responsibleName = &t.Responsible.Name
		responsibleEmail = &t.Responsible.Email
	}

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.Protocol,
		t.Subject,
		t.Description,
		t.TicketType.ID,
		t.TicketType.Name,
		int64(t.Deadline/time.Second),
		t.Priority,
		projectID,
		projectNumber,
		projectCustomer,
		t.Requester.ID,
		t.Requester.Name,
		t.Requester.Email,
		t.Requester.Department,
		responsibleID,
		responsibleName,
		responsibleEmail,
		t.ResponsibleDepartment,
		t.Status,
		t.AnsweredAt,
		t.AnsweredBy,
		t.ResolvedAt,
		t.ResolvedBy,
		t.ClosedAt,
		t.ClosedBy,
		t.ConclusionDate,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ticket", "protocol", t.Protocol, "error", err)
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// GetByID retrieves a ticket by its ID, excluding soft-deleted rows.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1 AND deleted = FALSE
	`

	var t ticket.Ticket
	var deadlineSeconds int64
	var projectID *uuid.UUID
	var projectNumber, projectCustomer *string
	var responsibleID *uuid.UUID
	var responsibleName, responsibleEmail *string

	err := r.querier.QueryRow(ctx, query, id).Scan(
		&t.ID,
		&t.Protocol,
		&t.Subject,
		&t.Description,
		&t.TicketType.ID,
		&t.TicketType.Name,
		&deadlineSeconds,
		&t.Priority,
		&projectID,
		&projectNumber,
		&projectCustomer,
		&t.Requester.ID,
		&t.Requester.Name,
		&t.Requester.Email,
		&t.Requester.Department,
		&responsibleID,
		&responsibleName,
		&responsibleEmail,
		&t.ResponsibleDepartment,
		&t.Status,
		&t.AnsweredAt,
		&t.AnsweredBy,
		&t.ResolvedAt,
		&t.ResolvedBy,
		&t.ClosedAt,
		&t.ClosedBy,
		&t.ConclusionDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound{TicketID: id}
		}
		r.logger.Error("Failed to get ticket", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	t.Deadline = time.Duration(deadlineSeconds) * time.Second
	deadline := t.Deadline
	t.TicketType.Deadline = &deadline

	if projectID != nil {
		t.Project = &ticket.Project{ID: *projectID}
		if projectNumber != nil {
			t.Project.ProjectNumber = *projectNumber
		}
		if projectCustomer != nil {
			t.Project.CustomerName = *projectCustomer
		}
	}
	if responsibleID != nil {
		t.Responsible = &ticket.Person{ID: *responsibleID}
		if responsibleName != nil {
			t.Responsible.Name = *responsibleName
		}
		if responsibleEmail != nil {
			t.Responsible.Email = *responsibleEmail
		}
	}

	return &t, nil
}

// Update persists the mutable lifecycle state of an existing ticket. The
// conclusion date is write-once at the row level as well.
func (r *TicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	query := `
		UPDATE tickets
		SET status = $1, answered_at = $2, answered_by = $3,
		    resolved_at = $4, resolved_by = $5, closed_at = $6, closed_by = $7,
		    conclusion_date = COALESCE(conclusion_date, $8), updated_at = $9
		WHERE id = $10 AND deleted = FALSE
	`

	result, err := r.querier.Exec(ctx, query,
		t.Status,
		t.AnsweredAt,
		t.AnsweredBy,
		t.ResolvedAt,
		t.ResolvedBy,
		t.ClosedAt,
		t.ClosedBy,
		t.ConclusionDate,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update ticket", "id", t.ID.String(), "error", err)
		return fmt.Errorf("failed to update ticket: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ticket.ErrTicketNotFound{TicketID: t.ID}
	}

	return nil
}
