package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/domain/task"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
)

// TicketTeamsHandler posts newly opened tickets to the support channel on
// Microsoft Teams.
type TicketTeamsHandler struct {
	tickets  ticket.Repository
	notifier WebhookNotifier
	webhooks *config.WebhooksConfig
	logger   *slog.Logger
}

func NewTicketTeamsHandler(logger *slog.Logger, tickets ticket.Repository, notifier WebhookNotifier, webhooks *config.WebhooksConfig) *TicketTeamsHandler {
	return &TicketTeamsHandler{tickets: tickets, notifier: notifier, webhooks: webhooks, logger: logger}
}

func (h *TicketTeamsHandler) Name() task.Name {
	return task.NameSendTicketToTeams
}

func (h *TicketTeamsHandler) Handle(ctx context.Context, t *task.Task) (task.Result, error) {
	var payload task.TicketTaskPayload
	if err := json.Unmarshal(t.Payload, &payload); err != nil {
		return task.Result{Status: task.StatusError, Message: fmt.Sprintf("invalid payload: %v", err)}, nil
	}

	tk, err := h.tickets.GetByID(ctx, payload.TicketID)
	if err != nil {
		var notFound ticket.ErrTicketNotFound
		if errors.As(err, &notFound) {
			return task.Result{Status: task.StatusError, Message: err.Error()}, nil
		}
		return task.Result{}, fmt.Errorf("loading ticket %s: %w", payload.TicketID, err)
	}

	if h.webhooks.TeamsTicketURL == "" {
		h.logger.Warn("Teams webhook not configured, skipping", "ticket_id", tk.ID)
		return task.Result{Status: task.StatusWarning, Message: "teams webhook is not configured"}, nil
	}

	if _, err := h.notifier.Post(ctx, h.webhooks.TeamsTicketURL, teamsTicketPayload(tk)); err != nil {
		return task.Result{}, fmt.Errorf("posting ticket %s to teams: %w", tk.Protocol, err)
	}

	h.logger.Info("Ticket posted to Teams", "ticket_id", tk.ID, "protocol", tk.Protocol)
	return task.Result{Status: task.StatusSuccess, Message: fmt.Sprintf("ticket %s posted to teams", tk.Protocol)}, nil
}

// teamsTicketPayload flattens the ticket into the fields the Teams flow
// expects. Optional references render as "Sem ..." placeholders because the
// flow template has no conditional sections.
func teamsTicketPayload(tk *ticket.Ticket) map[string]string {
	payload := map[string]string{
		"protocol":          tk.Protocol,
		"requester_name":    tk.Requester.Name,
		"requester_email":   tk.Requester.Email,
		"responsible_name":  "Sem responsável",
		"responsible_email": "",
		"title":             tk.Subject,
		"project":           "Sem projeto",
		"type":              tk.TicketType.Name,
		"status":            tk.StatusDisplay(),
		"urgency":           tk.PriorityDisplay(),
		"description":       tk.Description,
	}
	if tk.Responsible != nil {
		payload["responsible_name"] = tk.Responsible.Name
		payload["responsible_email"] = tk.Responsible.Email
	}
	if tk.Project != nil {
		payload["project"] = fmt.Sprintf("%s - %s", tk.Project.ProjectNumber, tk.Project.CustomerName)
	}
	if payload["description"] == "" {
		payload["description"] = "Sem descrição"
	}
	return payload
}
