package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/solaris-erp/backoffice/internal/domain/outbox"
	"github.com/solaris-erp/backoffice/internal/domain/task"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) WithTx(tx pgx.Tx) ticket.Repository {
	m.Called(tx)
	return m
}

func supportTicketInput() CreateTicketInput {
	deadline := 48 * time.Hour
	return CreateTicketInput{
		TicketType:  ticket.Type{ID: uuid.New(), Name: "Suporte Técnico", Deadline: &deadline},
		Subject:     "Inversor sem comunicação",
		Description: "O inversor da usina 042 parou de reportar geração.",
		Priority:    ticket.PriorityHigh,
		Requester: ticket.Person{
			ID:         uuid.New(),
			Name:       "Bruno Costa",
			Email:      "bruno.costa@solaris.example",
			Department: "Operações",
		},
	}
}

func TestTicketServiceImpl_Create(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Success", func(t *testing.T) {
		tickets := new(MockTicketRepository)
		outboxRepo := new(MockOutboxRepo)
		auditTrail := new(MockAuditRepo)
		service := NewTicketService(logger, stubTxRunner{}, tickets, outboxRepo, auditTrail)

		tickets.On("WithTx", mock.Anything).Return(tickets).Once()
		tickets.On("Create", ctx, mock.AnythingOfType("*ticket.Ticket")).Return(nil).Once()
		outboxRepo.On("WithTx", mock.Anything).Return(outboxRepo).Once()
		outboxRepo.On("Create", ctx, mock.MatchedBy(func(msg *outbox.Message) bool {
			return msg.TaskName == task.NameSendTicketToTeams
		})).Return(nil).Once()
		auditTrail.On("Append", ctx, mock.AnythingOfType("*audit.Entry")).Return(nil).Once()

		created, err := service.Create(ctx, supportTicketInput())

		require.NoError(t, err)
		assert.Equal(t, ticket.StatusOpen, created.Status)
		assert.Equal(t, "Operações", created.ResponsibleDepartment)
		assert.NotEmpty(t, created.Protocol)
		tickets.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("TypeWithoutDeadlineFails", func(t *testing.T) {
		tickets := new(MockTicketRepository)
		service := NewTicketService(logger, stubTxRunner{}, tickets, new(MockOutboxRepo), new(MockAuditRepo))

		in := supportTicketInput()
		in.TicketType.Deadline = nil

		_, err := service.Create(ctx, in)

		assert.ErrorIs(t, err, ticket.ErrMissingDeadline)
		tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("FailedNotificationEnqueueAbortsCreation", func(t *testing.T) {
		tickets := new(MockTicketRepository)
		outboxRepo := new(MockOutboxRepo)
		service := NewTicketService(logger, stubTxRunner{}, tickets, outboxRepo, new(MockAuditRepo))

		tickets.On("WithTx", mock.Anything).Return(tickets).Once()
		tickets.On("Create", ctx, mock.AnythingOfType("*ticket.Ticket")).Return(nil).Once()
		outboxRepo.On("WithTx", mock.Anything).Return(outboxRepo).Once()
		outboxRepo.On("Create", ctx, mock.Anything).Return(assert.AnError).Once()

		_, err := service.Create(ctx, supportTicketInput())

		assert.Error(t, err)
	})
}

func TestTicketServiceImpl_Transition(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newOpenTicket := func(t *testing.T) *ticket.Ticket {
		t.Helper()
		in := supportTicketInput()
		tk, err := ticket.New(in.TicketType, in.Subject, in.Description, in.Priority, in.Requester, nil, nil, time.Now())
		require.NoError(t, err)
		return tk
	}

	t.Run("ResolvedStampsResolverAndConclusion", func(t *testing.T) {
		tickets := new(MockTicketRepository)
		auditTrail := new(MockAuditRepo)
		service := NewTicketService(logger, stubTxRunner{}, tickets, new(MockOutboxRepo), auditTrail)
		tk := newOpenTicket(t)
		actor := uuid.New()

		tickets.On("GetByID", ctx, tk.ID).Return(tk, nil).Once()
		tickets.On("Update", ctx, tk).Return(nil).Once()
		auditTrail.On("Append", ctx, mock.AnythingOfType("*audit.Entry")).Return(nil).Once()

		updated, err := service.Transition(ctx, tk.ID, ticket.StatusResolved, actor)

		require.NoError(t, err)
		assert.Equal(t, ticket.StatusResolved, updated.Status)
		require.NotNil(t, updated.ResolvedBy)
		assert.Equal(t, actor, *updated.ResolvedBy)
		assert.NotNil(t, updated.ConclusionDate)
	})

	t.Run("UnknownStatusFails", func(t *testing.T) {
		tickets := new(MockTicketRepository)
		service := NewTicketService(logger, stubTxRunner{}, tickets, new(MockOutboxRepo), new(MockAuditRepo))
		tk := newOpenTicket(t)

		tickets.On("GetByID", ctx, tk.ID).Return(tk, nil).Once()

		_, err := service.Transition(ctx, tk.ID, ticket.Status("ARCHIVED"), uuid.New())

		assert.ErrorIs(t, err, ticket.ErrInvalidStatus)
		tickets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("NotFound", func(t *testing.T) {
		tickets := new(MockTicketRepository)
		service := NewTicketService(logger, stubTxRunner{}, tickets, new(MockOutboxRepo), new(MockAuditRepo))
		missing := uuid.New()

		tickets.On("GetByID", ctx, missing).Return(nil, ticket.ErrTicketNotFound{TicketID: missing}).Once()

		_, err := service.Transition(ctx, missing, ticket.StatusClosed, uuid.New())

		var notFound ticket.ErrTicketNotFound
		assert.ErrorAs(t, err, &notFound)
	})
}
