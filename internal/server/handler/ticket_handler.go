package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

// TicketHandler handles HTTP requests for support tickets
type TicketHandler struct {
	ticketService service.TicketService
	logger        *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(logger *slog.Logger, ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// Create handles creation of a new support ticket
func (h *TicketHandler) Create(c *gin.Context) {
	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	in := service.CreateTicketInput{
		TicketType: ticket.Type{
			ID:   uuid.MustParse(req.TicketType.ID),
			Name: req.TicketType.Name,
		},
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    ticket.Priority(req.Priority),
		Requester:   mapTicketPerson(req.Requester),
	}
	if req.TicketType.DeadlineSeconds != nil {
		deadline := time.Duration(*req.TicketType.DeadlineSeconds) * time.Second
		in.TicketType.Deadline = &deadline
	}
	if req.Responsible != nil {
		responsible := mapTicketPerson(*req.Responsible)
		in.Responsible = &responsible
	}
	if req.Project != nil {
		in.Project = &ticket.Project{
			ID:            uuid.MustParse(req.Project.ID),
			ProjectNumber: req.Project.ProjectNumber,
			CustomerName:  req.Project.CustomerName,
		}
	}

	created, err := h.ticketService.Create(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, ticket.ErrMissingDeadline) || errors.Is(err, ticket.ErrRequesterWithoutDepartment) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create ticket", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapTicketToResponse(created))
}

// GetByID retrieves a ticket by its ID, returning 404 if not found
func (h *TicketHandler) GetByID(c *gin.Context) {
	id, ok := h.ticketID(c)
	if !ok {
		return
	}

	t, err := h.ticketService.GetByID(c.Request.Context(), id)
	if err != nil {
		var notFound ticket.ErrTicketNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Ticket not found")
			return
		}
		h.logger.Error("Failed to get ticket", "ticket_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapTicketToResponse(t))
}

// Transition moves a ticket to a new lifecycle state
func (h *TicketHandler) Transition(c *gin.Context) {
	id, ok := h.ticketID(c)
	if !ok {
		return
	}

	var req TicketTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.ticketService.Transition(c.Request.Context(), id, ticket.Status(req.Status), uuid.MustParse(req.Actor))
	if err != nil {
		var notFound ticket.ErrTicketNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Ticket not found")
		case errors.Is(err, ticket.ErrInvalidStatus):
			RespondBadRequest(c, "Invalid ticket status: "+req.Status)
		default:
			h.logger.Error("Failed to transition ticket", "ticket_id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, mapTicketToResponse(updated))
}

func (h *TicketHandler) ticketID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid ticket ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid ticket ID")
		return uuid.Nil, false
	}
	return id, true
}

func mapTicketPerson(p TicketPersonRequest) ticket.Person {
	return ticket.Person{
		ID:         uuid.MustParse(p.ID),
		Name:       p.Name,
		Email:      p.Email,
		Department: p.Department,
	}
}

// mapTicketToResponse maps a ticket entity to a response DTO
func mapTicketToResponse(t *ticket.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:                    t.ID.String(),
		Protocol:              t.Protocol,
		Subject:               t.Subject,
		Description:           t.Description,
		TypeName:              t.TicketType.Name,
		Priority:              string(t.Priority),
		PriorityDisplay:       t.PriorityDisplay(),
		Status:                string(t.Status),
		StatusDisplay:         t.StatusDisplay(),
		RequesterName:         t.Requester.Name,
		ResponsibleDepartment: t.ResponsibleDepartment,
		DeadlineSeconds:       int64(t.Deadline / time.Second),
		CreatedAt:             t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             t.UpdatedAt.Format(time.RFC3339),
	}
	if t.Responsible != nil {
		resp.ResponsibleName = t.Responsible.Name
	}
	if t.Project != nil {
		resp.ProjectNumber = t.Project.ProjectNumber
	}
	if t.ConclusionDate != nil {
		concluded := t.ConclusionDate.Format(time.RFC3339)
		resp.ConclusionDate = &concluded
	}
	return resp
}
