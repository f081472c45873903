package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/payment"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

// PaymentHandler handles HTTP requests for sale payments
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Create registers a payment, optionally splitting it into installments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		RespondBadRequest(c, "Invalid value: "+req.Value)
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		RespondBadRequest(c, "Invalid due_date, expected YYYY-MM-DD")
		return
	}

	in := service.CreatePaymentInput{
		SaleID:             uuid.MustParse(req.SaleID),
		Value:              value,
		Type:               payment.Type(req.Type),
		DueDate:            dueDate,
		CreateInstallments: req.CreateInstallments,
		InstallmentsNumber: req.InstallmentsNumber,
	}
	if req.Financier != nil {
		in.Financier = &payment.Financier{
			ID:   uuid.MustParse(req.Financier.ID),
			Name: req.Financier.Name,
		}
	}

	created, err := h.paymentService.Create(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrFinancierRequired),
			errors.Is(err, payment.ErrInvalidInstallmentCount),
			errors.Is(err, payment.ErrInstallmentsExceedValue):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create payment", "sale_id", req.SaleID, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapPaymentToResponse(created))
}

// mapPaymentToResponse maps a payment entity to a response DTO
func mapPaymentToResponse(p *payment.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:        p.ID.String(),
		SaleID:    p.SaleID.String(),
		Value:     p.Value.String(),
		Type:      string(p.Type),
		DueDate:   p.DueDate.Format(dateLayout),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
	for _, inst := range p.Installments {
		resp.Installments = append(resp.Installments, InstallmentResponse{
			ID:                inst.ID.String(),
			InstallmentNumber: inst.InstallmentNumber,
			Value:             inst.Value.String(),
			DueDate:           inst.DueDate.Format(dateLayout),
			Paid:              inst.Paid,
		})
	}
	return resp
}
