package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/domain/task"
)

// ResendApprovalHandler re-issues the approval webhook for a record that is
// still waiting on its responsible. The previous workflow run, if known, is
// cancelled first so the responsible does not receive two live approval
// prompts for the same record.
type ResendApprovalHandler struct {
	records    financial.Repository
	omieClient OmieGateway
	notifier   WebhookNotifier
	webhooks   *config.WebhooksConfig
	logger     *slog.Logger
}

func NewResendApprovalHandler(logger *slog.Logger, records financial.Repository, omieClient OmieGateway, notifier WebhookNotifier, webhooks *config.WebhooksConfig) *ResendApprovalHandler {
	return &ResendApprovalHandler{records: records, omieClient: omieClient, notifier: notifier, webhooks: webhooks, logger: logger}
}

func (h *ResendApprovalHandler) Name() task.Name {
	return task.NameResendApprovalRequest
}

func (h *ResendApprovalHandler) Handle(ctx context.Context, t *task.Task) (task.Result, error) {
	var payload task.RecordTaskPayload
	if err := json.Unmarshal(t.Payload, &payload); err != nil {
		return task.Result{Status: task.StatusError, Message: fmt.Sprintf("invalid payload: %v", err)}, nil
	}

	record, err := h.records.GetByID(ctx, payload.RecordID)
	if err != nil {
		var notFound financial.ErrRecordNotFound
		if errors.As(err, &notFound) {
			return task.Result{Status: task.StatusError, Message: err.Error()}, nil
		}
		return task.Result{}, fmt.Errorf("loading record %s: %w", payload.RecordID, err)
	}

	if record.ResponsibleStatus != financial.ResponsiblePending {
		h.logger.Warn("Record already answered, skipping resend",
			"record_id", record.ID, "responsible_status", record.ResponsibleStatus)
		return task.Result{Status: task.StatusWarning, Message: "record is not pending approval"}, nil
	}

	if h.webhooks.ApprovalURL == "" {
		return task.Result{Status: task.StatusError, Message: "approval webhook is not configured"}, nil
	}

	// Cancellation is best effort: a run that cannot be cancelled simply
	// expires on the workflow side.
	if record.ResponsibleRequestIntegrationCode != nil && h.webhooks.CancelApprovalURL != "" {
		if err := h.notifier.CancelRun(ctx, h.webhooks.CancelApprovalURL, *record.ResponsibleRequestIntegrationCode); err != nil {
			h.logger.Warn("Failed to cancel previous approval run",
				"record_id", record.ID, "run_id", *record.ResponsibleRequestIntegrationCode, "error", err)
		}
	}

	supplier, err := h.omieClient.GetSupplier(ctx, record.ClientSupplierCode)
	if err != nil {
		return task.Result{}, fmt.Errorf("loading supplier %s: %w", record.ClientSupplierCode, err)
	}
	if supplier.Name == "" || supplier.CnpjCpf == "" {
		return task.Result{Status: task.StatusError, Message: financial.ErrIncompleteSupplier.Error()}, nil
	}

	body := approvalPayload(record, supplier.Name)
	receipt, err := h.notifier.Post(ctx, h.webhooks.ApprovalURL, body)
	if err != nil {
		return task.Result{}, fmt.Errorf("resending approval request for record %s: %w", record.Protocol, err)
	}

	record.RotateApprovalRun(receipt.CorrelationToken)
	if err := h.records.Update(ctx, record); err != nil {
		return task.Result{}, fmt.Errorf("persisting approval run for record %s: %w", record.Protocol, err)
	}

	h.logger.Info("Approval request re-sent", "record_id", record.ID, "protocol", record.Protocol)
	return task.Result{Status: task.StatusSuccess, Message: fmt.Sprintf("approval request re-sent for record %s", record.Protocol)}, nil
}

// approvalPayload mirrors the payload sent on record creation, enriched with
// the supplier name the workflow shows to the responsible.
func approvalPayload(record *financial.Record, supplierName string) map[string]any {
	payload := map[string]any{
		"record_id":   record.ID.String(),
		"protocol":    record.Protocol,
		"value":       record.Value.StringFixed(2),
		"description": fmt.Sprintf("Registro de Pagamento - nº %s\nCriado em %s\nValor: %s", record.Protocol, record.CreatedAt.Format("02/01/2006"), record.Value.StringFixed(2)),
		"requester":   record.Requester.Name,
		"supplier":    supplierName,
		"due_date":    record.DueDate.Format("02/01/2006"),
	}
	if record.Responsible != nil {
		payload["responsible_email"] = record.Responsible.Email
		payload["responsible_name"] = record.Responsible.Name
	}
	return payload
}
