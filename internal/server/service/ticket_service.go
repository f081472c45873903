package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/solaris-erp/backoffice/internal/domain/audit"
	"github.com/solaris-erp/backoffice/internal/domain/outbox"
	"github.com/solaris-erp/backoffice/internal/domain/task"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
)

// TicketServiceImpl implements the TicketService interface
type TicketServiceImpl struct {
	logger     *slog.Logger
	db         TxRunner
	tickets    ticket.Repository
	outboxRepo outbox.Repository
	auditTrail audit.Repository
	now        func() time.Time
}

// NewTicketService creates a new ticket service
func NewTicketService(
	logger *slog.Logger,
	db TxRunner,
	tickets ticket.Repository,
	outboxRepo outbox.Repository,
	auditTrail audit.Repository,
) TicketService {
	return &TicketServiceImpl{
		logger:     logger,
		db:         db,
		tickets:    tickets,
		outboxRepo: outboxRepo,
		auditTrail: auditTrail,
		now:        time.Now,
	}
}

// Create opens a ticket and enqueues the Teams notification in the same
// transaction, so a ticket without its notification task cannot exist.
func (s *TicketServiceImpl) Create(ctx context.Context, in CreateTicketInput) (*ticket.Ticket, error) {
	t, err := ticket.New(in.TicketType, in.Subject, in.Description, in.Priority, in.Requester, in.Responsible, in.Project, s.now())
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.tickets.WithTx(tx).Create(ctx, t); err != nil {
			return err
		}
		message, err := outbox.NewMessage(task.NameSendTicketToTeams, task.TicketTaskPayload{TicketID: t.ID}, t.Protocol, s.now())
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, EntityTicket, t.ID, audit.HistoryCreated, in.Requester.Name, t)

	s.logger.Info("Ticket opened", "ticket_id", t.ID.String(), "protocol", t.Protocol, "type", t.TicketType.Name)
	return t, nil
}

// GetByID retrieves a ticket; returns ticket.ErrTicketNotFound when missing.
func (s *TicketServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Transition moves a ticket to the target state and records who did it.
func (s *TicketServiceImpl) Transition(ctx context.Context, id uuid.UUID, target ticket.Status, actor uuid.UUID) (*ticket.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := t.Transition(target, actor, s.now()); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, t); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, EntityTicket, t.ID, audit.HistoryUpdated, actor.String(), t)
	return t, nil
}

func (s *TicketServiceImpl) appendAudit(ctx context.Context, entityType string, entityID uuid.UUID, historyType audit.HistoryType, actor string, snapshot any) {
	entry, err := audit.NewEntry(entityType, entityID, historyType, actor, snapshot, s.now())
	if err != nil {
		s.logger.Error("Failed to build audit entry", "entity_id", entityID.String(), "error", err)
		return
	}
	if err := s.auditTrail.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit entry", "entity_id", entityID.String(), "error", err)
	}
}
