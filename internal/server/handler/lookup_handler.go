package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/solaris-erp/backoffice/internal/platform/omie"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

// LookupHandler serves the supplier and category lookups behind the payment
// request form. Responses use the select2 envelope the form consumes.
type LookupHandler struct {
	lookupService service.LookupService
	logger        *slog.Logger
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(logger *slog.Logger, lookupService service.LookupService) *LookupHandler {
	return &LookupHandler{
		lookupService: lookupService,
		logger:        logger,
	}
}

// SearchSuppliers looks up suppliers in the accounting system by document
func (h *LookupHandler) SearchSuppliers(c *gin.Context) {
	term := c.Query("term")

	suppliers, err := h.lookupService.SearchSuppliers(c.Request.Context(), term)
	if err != nil {
		h.respondOmieError(c, err, "Failed to search suppliers")
		return
	}

	results := make([]SelectItem, 0, len(suppliers))
	for _, supplier := range suppliers {
		results = append(results, SelectItem{
			ID:   fmt.Sprintf("%d", supplier.SupplierCode),
			Text: fmt.Sprintf("%s (%s)", supplier.Name, supplier.CnpjCpf),
		})
	}
	c.JSON(200, SelectResponse{Results: results})
}

// CreateSupplier registers a supplier in the accounting system
func (h *LookupHandler) CreateSupplier(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	code, err := h.lookupService.CreateSupplier(c.Request.Context(), req.CpfCnpj, req.Name)
	if err != nil {
		var omieErr *omie.Error
		if errors.As(err, &omieErr) && omieErr.Kind == omie.KindDomain {
			RespondBadRequest(c, omieErr.Message)
			return
		}
		h.logger.Error("Failed to create supplier", "cnpj_cpf", req.CpfCnpj, "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, gin.H{"integration_code": code})
}

// ListCategories lists active expense categories
func (h *LookupHandler) ListCategories(c *gin.Context) {
	term := c.Query("term")

	categories, err := h.lookupService.ListCategories(c.Request.Context(), term)
	if err != nil {
		h.respondOmieError(c, err, "Failed to list categories")
		return
	}

	results := make([]SelectItem, 0, len(categories))
	for _, category := range categories {
		results = append(results, SelectItem{ID: category.Code, Text: category.Description})
	}
	c.JSON(200, SelectResponse{Results: results})
}

func (h *LookupHandler) respondOmieError(c *gin.Context, err error, logMessage string) {
	h.logger.Error(logMessage, "error", err)
	var omieErr *omie.Error
	if errors.As(err, &omieErr) && omieErr.Kind == omie.KindTransport {
		RespondWithError(c, 502, "UPSTREAM_UNAVAILABLE", "Accounting system unavailable")
		return
	}
	RespondInternalError(c)
}
