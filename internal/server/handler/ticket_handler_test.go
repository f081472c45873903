package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
	"github.com/solaris-erp/backoffice/internal/server/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) Create(ctx context.Context, in service.CreateTicketInput) (*ticket.Ticket, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketService) Transition(ctx context.Context, id uuid.UUID, target ticket.Status, actor uuid.UUID) (*ticket.Ticket, error) {
	args := m.Called(ctx, id, target, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func openTicket() *ticket.Ticket {
	deadline := 48 * time.Hour
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	return &ticket.Ticket{
		ID:       uuid.New(),
		Protocol: "20240603100000",
		Subject:  "Inversor sem comunicação",
		TicketType: ticket.Type{
			ID:       uuid.New(),
			Name:     "Suporte Técnico",
			Deadline: &deadline,
		},
		Priority: ticket.PriorityHigh,
		Requester: ticket.Person{
			ID:         uuid.New(),
			Name:       "Bruno Costa",
			Email:      "bruno.costa@solaris.example",
			Department: "Operações",
		},
		ResponsibleDepartment: "Operações",
		Status:                ticket.StatusOpen,
		Deadline:              deadline,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func TestTicketHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	createBody := func(deadlineSeconds *int64) []byte {
		body, _ := json.Marshal(CreateTicketRequest{
			TicketType: TicketTypeRequest{
				ID:              uuid.NewString(),
				Name:            "Suporte Técnico",
				DeadlineSeconds: deadlineSeconds,
			},
			Subject:  "Inversor sem comunicação",
			Priority: "HIGH",
			Requester: TicketPersonRequest{
				ID:         uuid.NewString(),
				Name:       "Bruno Costa",
				Email:      "bruno.costa@solaris.example",
				Department: "Operações",
			},
		})
		return body
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTicketService)
		h := NewTicketHandler(logger, mockService)
		created := openTicket()
		mockService.On("Create", mock.Anything, mock.AnythingOfType("service.CreateTicketInput")).Return(created, nil).Once()

		router := setupTestRouter()
		router.POST("/tickets", h.Create)

		deadlineSeconds := int64(172800)
		req, _ := http.NewRequest(http.MethodPost, "/tickets", bytes.NewBuffer(createBody(&deadlineSeconds)))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		data, _ := json.Marshal(resp.Data)
		var ticketResp TicketResponse
		require.NoError(t, json.Unmarshal(data, &ticketResp))
		assert.Equal(t, "Aberto", ticketResp.StatusDisplay)
		assert.Equal(t, int64(172800), ticketResp.DeadlineSeconds)
	})

	t.Run("MissingDeadline", func(t *testing.T) {
		mockService := new(MockTicketService)
		h := NewTicketHandler(logger, mockService)
		mockService.On("Create", mock.Anything, mock.Anything).Return(nil, ticket.ErrMissingDeadline).Once()

		router := setupTestRouter()
		router.POST("/tickets", h.Create)

		req, _ := http.NewRequest(http.MethodPost, "/tickets", bytes.NewBuffer(createBody(nil)))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTicketHandler_Transition(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockTicketService)
		h := NewTicketHandler(logger, mockService)
		tk := openTicket()
		tk.Status = ticket.StatusResolved
		actor := uuid.New()
		mockService.On("Transition", mock.Anything, tk.ID, ticket.StatusResolved, actor).Return(tk, nil).Once()

		router := setupTestRouter()
		router.POST("/tickets/:id/transition", h.Transition)

		body, _ := json.Marshal(TicketTransitionRequest{Status: "RESOLVED", Actor: actor.String()})
		req, _ := http.NewRequest(http.MethodPost, "/tickets/"+tk.ID.String()+"/transition", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		mockService := new(MockTicketService)
		h := NewTicketHandler(logger, mockService)
		tk := openTicket()
		actor := uuid.New()
		mockService.On("Transition", mock.Anything, tk.ID, ticket.Status("ARCHIVED"), actor).
			Return(nil, ticket.ErrInvalidStatus).Once()

		router := setupTestRouter()
		router.POST("/tickets/:id/transition", h.Transition)

		body, _ := json.Marshal(TicketTransitionRequest{Status: "ARCHIVED", Actor: actor.String()})
		req, _ := http.NewRequest(http.MethodPost, "/tickets/"+tk.ID.String()+"/transition", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockTicketService)
		h := NewTicketHandler(logger, mockService)
		missing := uuid.New()
		actor := uuid.New()
		mockService.On("Transition", mock.Anything, missing, ticket.StatusClosed, actor).
			Return(nil, ticket.ErrTicketNotFound{TicketID: missing}).Once()

		router := setupTestRouter()
		router.POST("/tickets/:id/transition", h.Transition)

		body, _ := json.Marshal(TicketTransitionRequest{Status: "CLOSED", Actor: actor.String()})
		req, _ := http.NewRequest(http.MethodPost, "/tickets/"+missing.String()+"/transition", bytes.NewBuffer(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
