package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/franchise"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

// SaleHandler handles HTTP requests for sale updates
type SaleHandler struct {
	saleService service.SaleService
	logger      *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(logger *slog.Logger, saleService service.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
		logger:      logger,
	}
}

// Update applies changes to a sale's payout inputs and triggers the
// franchise installment recalculation when they changed
func (h *SaleHandler) Update(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid sale ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid sale ID")
		return
	}

	var req UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var in service.UpdateSaleInput
	if req.TotalValue != nil {
		total, err := decimal.NewFromString(*req.TotalValue)
		if err != nil {
			RespondBadRequest(c, "Invalid total_value: "+*req.TotalValue)
			return
		}
		in.TotalValue = &total
	}
	if req.TransferPercentage != nil {
		pct, err := decimal.NewFromString(*req.TransferPercentage)
		if err != nil {
			RespondBadRequest(c, "Invalid transfer_percentage: "+*req.TransferPercentage)
			return
		}
		in.TransferPercentage = &pct
	}

	sale, err := h.saleService.Update(c.Request.Context(), id, in)
	if err != nil {
		var notFound franchise.ErrSaleNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Sale not found")
		case errors.Is(err, franchise.ErrMissingTransferPercentage):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to update sale", "sale_id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	resp := SaleResponse{
		ID:         sale.ID.String(),
		TotalValue: sale.TotalValue.String(),
	}
	if sale.TransferPercentage != nil {
		resp.TransferPercentage = sale.TransferPercentage.String()
	}
	RespondOK(c, resp)
}
