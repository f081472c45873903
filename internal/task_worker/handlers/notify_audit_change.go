package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/domain/task"
)

// NotifyAuditChangeHandler mails the requester when the audit team cancels or
// rejects a payment request. The statement itself goes through a mail webhook
// that renders the message body.
type NotifyAuditChangeHandler struct {
	records    financial.Repository
	omieClient OmieGateway
	notifier   WebhookNotifier
	webhooks   *config.WebhooksConfig
	logger     *slog.Logger
}

func NewNotifyAuditChangeHandler(logger *slog.Logger, records financial.Repository, omieClient OmieGateway, notifier WebhookNotifier, webhooks *config.WebhooksConfig) *NotifyAuditChangeHandler {
	return &NotifyAuditChangeHandler{records: records, omieClient: omieClient, notifier: notifier, webhooks: webhooks, logger: logger}
}

func (h *NotifyAuditChangeHandler) Name() task.Name {
	return task.NameNotifyAuditChange
}

func (h *NotifyAuditChangeHandler) Handle(ctx context.Context, t *task.Task) (task.Result, error) {
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

	if h.webhooks.AuditNotifyURL == "" {
		h.logger.Warn("Audit notification webhook not configured, skipping", "record_id", record.ID)
		return task.Result{Status: task.StatusWarning, Message: "audit notification webhook is not configured"}, nil
	}

	supplierName := ""
	if record.ClientSupplierCode != "" {
		supplier, err := h.omieClient.GetSupplier(ctx, record.ClientSupplierCode)
		if err != nil {
			h.logger.Warn("Failed to load supplier for audit notice",
				"record_id", record.ID, "supplier_code", record.ClientSupplierCode, "error", err)
		} else {
			supplierName = supplier.Name
		}
	}

	body := map[string]any{
		"to":      record.Requester.Email,
		"subject": fmt.Sprintf("Registro de Pagamento nº %s - %s", record.Protocol, auditStatusDisplay(record.AuditStatus)),
		"message": auditChangeMessage(record, supplierName),
	}
	if _, err := h.notifier.Post(ctx, h.webhooks.AuditNotifyURL, body); err != nil {
		return task.Result{}, fmt.Errorf("delivering audit notice for record %s: %w", record.Protocol, err)
	}

	h.logger.Info("Audit change notice delivered",
		"record_id", record.ID, "protocol", record.Protocol, "audit_status", record.AuditStatus)
	return task.Result{Status: task.StatusSuccess, Message: fmt.Sprintf("requester notified for record %s", record.Protocol)}, nil
}

func auditStatusDisplay(status financial.AuditStatus) string {
	switch status {
	case financial.AuditApproved:
		return "Aprovado"
	case financial.AuditCancelled:
		return "Cancelado"
	case financial.AuditRejected:
		return "Rejeitado"
	default:
		return "Pendente"
	}
}

// auditChangeMessage renders the plain-text statement shown to the
// requester. Fields the record does not carry are omitted rather than
// rendered blank.
func auditChangeMessage(record *financial.Record, supplierName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "O registro de pagamento nº %s foi %s pela auditoria.\n\n", record.Protocol, strings.ToLower(auditStatusDisplay(record.AuditStatus)))
	fmt.Fprintf(&b, "Valor: R$ %s\n", record.Value.StringFixed(2))
	fmt.Fprintf(&b, "Criado em: %s\n", record.CreatedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "Vencimento: %s\n", record.DueDate.Format("02/01/2006"))
	fmt.Fprintf(&b, "Forma de pagamento: %s\n", record.PaymentMethod)
	fmt.Fprintf(&b, "Categoria: %s\n", record.CategoryCode)
	if record.RequestingDepartment != "" {
		fmt.Fprintf(&b, "Departamento: %s\n", record.RequestingDepartment)
	}
	if supplierName != "" {
		fmt.Fprintf(&b, "Fornecedor: %s\n", supplierName)
	}
	if record.AuditedBy != "" {
		fmt.Fprintf(&b, "Auditado por: %s\n", record.AuditedBy)
	}
	if record.AuditResponseDate != nil {
		fmt.Fprintf(&b, "Data da auditoria: %s\n", record.AuditResponseDate.Format("02/01/2006"))
	}
	if record.AuditNotes != "" {
		fmt.Fprintf(&b, "\nJustificativa: %s\n", record.AuditNotes)
	}
	return b.String()
}
