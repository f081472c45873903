package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/domain/task"
	"github.com/solaris-erp/backoffice/internal/platform/omie"
)

// SendToOmieHandler ships an approved record to the accounting system and
// stamps the returned launch codes on the record.
type SendToOmieHandler struct {
	records    financial.Repository
	omieClient OmieGateway
	logger     *slog.Logger
}

func NewSendToOmieHandler(logger *slog.Logger, records financial.Repository, omieClient OmieGateway) *SendToOmieHandler {
	return &SendToOmieHandler{records: records, omieClient: omieClient, logger: logger}
}

func (h *SendToOmieHandler) Name() task.Name {
	return task.NameSendToOmie
}

// Handle loads the record and creates the payable. A record that is no
// longer eligible (already shipped, not approved, already paid) is a warning
// no-op so stale or duplicate tasks drain without side effects. Transport
// failures against the accounting API surface as Go errors so the task is
// redelivered; domain rejections are final.
func (h *SendToOmieHandler) Handle(ctx context.Context, t *task.Task) (task.Result, error) {
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

	if !record.EligibleForOmie() {
		h.logger.Warn("Record not eligible for accounting, skipping",
			"record_id", record.ID, "protocol", record.Protocol,
			"responsible_status", record.ResponsibleStatus, "payment_status", record.PaymentStatus)
		return task.Result{Status: task.StatusWarning, Message: "record not eligible for accounting"}, nil
	}

	receipt, err := h.omieClient.CreatePayable(ctx, record)
	if err != nil {
		var omieErr *omie.Error
		if errors.As(err, &omieErr) && !omieErr.Retriable() {
			return task.Result{Status: task.StatusError, Message: fmt.Sprintf("accounting rejected record %s: %v", record.Protocol, err)}, nil
		}
		return task.Result{}, fmt.Errorf("creating payable for record %s: %w", record.Protocol, err)
	}

	if err := record.MarkIntegrated(receipt.IntegrationCode, receipt.OmieLaunchCode); err != nil {
		if errors.Is(err, financial.ErrAlreadyIntegrated) {
			h.logger.Warn("Record integrated concurrently", "record_id", record.ID)
			return task.Result{Status: task.StatusWarning, Message: "record already integrated"}, nil
		}
		return task.Result{Status: task.StatusError, Message: err.Error()}, nil
	}

	if err := h.records.Update(ctx, record); err != nil {
		return task.Result{}, fmt.Errorf("persisting integration codes for record %s: %w", record.Protocol, err)
	}

	h.logger.Info("Record shipped to accounting",
		"record_id", record.ID, "protocol", record.Protocol, "omie_launch_code", receipt.OmieLaunchCode)
	return task.Result{Status: task.StatusSuccess, Message: fmt.Sprintf("record %s integrated", record.Protocol)}, nil
}
