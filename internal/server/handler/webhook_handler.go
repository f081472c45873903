package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

// paidTopic is the only accounting callback this handler accepts.
const paidTopic = "Financas.ContaPagar.BaixaRealizada"

// WebhookHandler receives payment-confirmation callbacks from the accounting
// system and reconciles local records.
type WebhookHandler struct {
	financialService service.FinancialRecordService
	logger           *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *slog.Logger, financialService service.FinancialRecordService) *WebhookHandler {
	return &WebhookHandler{
		financialService: financialService,
		logger:           logger,
	}
}

// PaymentPaid handles the payment-paid callback. Entries that match no local
// record are logged and skipped; the batch as a whole still succeeds, so the
// accounting system never retries confirmations for records it does not own.
func (h *WebhookHandler) PaymentPaid(c *gin.Context) {
	var req PaidWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid webhook body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if req.Topic != paidTopic {
		h.logger.Warn("Rejected webhook with unexpected topic", "topic", req.Topic)
		RespondBadRequest(c, "Unexpected topic: "+req.Topic)
		return
	}

	events := flattenPaidEvents(req)
	if len(events) == 0 {
		RespondBadRequest(c, "Webhook carries no payable entries")
		return
	}

	matched, err := h.financialService.ReconcilePaid(c.Request.Context(), events)
	if err != nil {
		h.logger.Error("Failed to reconcile paid entries", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{"received": len(events), "matched": matched})
}

func flattenPaidEvents(req PaidWebhookRequest) []service.PaidEvent {
	now := time.Now()
	var events []service.PaidEvent
	for _, event := range req.Event {
		for _, entry := range event.ContaAPagar {
			if entry.CodigoLancamentoIntegracao == "" && entry.CodigoLancamentoOmie == "" {
				continue
			}
			events = append(events, service.PaidEvent{
				IntegrationCode: entry.CodigoLancamentoIntegracao,
				OmieCode:        entry.CodigoLancamentoOmie.String(),
				PaidAt:          now,
			})
		}
	}
	return events
}
