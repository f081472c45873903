package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/audit"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/server/service"
)

const dateLayout = "2006-01-02"

// FinancialRecordHandler handles HTTP requests for payment requests
type FinancialRecordHandler struct {
	financialService service.FinancialRecordService
	logger           *slog.Logger
}

// NewFinancialRecordHandler creates a new financial record handler
func NewFinancialRecordHandler(logger *slog.Logger, financialService service.FinancialRecordService) *FinancialRecordHandler {
	return &FinancialRecordHandler{
		financialService: financialService,
		logger:           logger,
	}
}

// Create handles creation of a new payment request
func (h *FinancialRecordHandler) Create(c *gin.Context) {
	var req CreateFinancialRecordRequest
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
	serviceDate, err := time.Parse(dateLayout, req.ServiceDate)
	if err != nil {
		RespondBadRequest(c, "Invalid service_date, expected YYYY-MM-DD")
		return
	}

	in := financial.NewRecordInput{
		Value:                value,
		CategoryCode:         req.CategoryCode,
		PaymentMethod:        financial.PaymentMethod(req.PaymentMethod),
		Description:          req.Description,
		Requester:            mapPartyRequest(req.Requester),
		RequestingDepartment: req.RequestingDepartment,
		ClientSupplierCode:   req.ClientSupplierCode,
		ServiceDate:          serviceDate,
	}
	if req.Responsible != nil {
		responsible := mapPartyRequest(*req.Responsible)
		in.Responsible = &responsible
	}

	record, err := h.financialService.Create(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, financial.ErrMissingResponsible) || errors.Is(err, financial.ErrNegativeValue) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create financial record", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapRecordToResponse(record))
}

// GetByID retrieves a payment request by its ID, returning 404 if not found
func (h *FinancialRecordHandler) GetByID(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	record, err := h.financialService.GetByID(c.Request.Context(), id)
	if err != nil {
		var notFound financial.ErrRecordNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Financial record not found")
			return
		}
		h.logger.Error("Failed to get financial record", "record_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// History returns the paginated audit trail of a payment request
func (h *FinancialRecordHandler) History(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	entries, total, err := h.financialService.History(c.Request.Context(), id, params.Page, params.PerPage)
	if err != nil {
		h.logger.Error("Failed to get record history", "record_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}
	RespondWithPaginatedData(c, 200, responses, params.Page, params.PerPage, int(total))
}

// ManagerApproval applies the responsible approver's answer
func (h *FinancialRecordHandler) ManagerApproval(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	var req ManagerApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.financialService.AnswerManager(c.Request.Context(), id, financial.ResponsibleStatus(req.ManagerAnswer))
	if err != nil {
		var notFound financial.ErrRecordNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Financial record not found")
		case errors.Is(err, financial.ErrNotPendingResponsible):
			RespondBadRequest(c, "Record is not pending responsible approval")
		default:
			h.logger.Error("Failed to apply manager answer", "record_id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// Audit applies the auditor's decision
func (h *FinancialRecordHandler) Audit(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	var req AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.financialService.DecideAudit(c.Request.Context(), id, financial.AuditStatus(req.AuditStatus), req.AuditNotes, req.AuditedBy)
	if err != nil {
		var notFound financial.ErrRecordNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Financial record not found")
		case errors.Is(err, financial.ErrMissingAuditNotes), errors.Is(err, financial.ErrInvalidAuditStatus):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to apply audit decision", "record_id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// ResendApproval enqueues a re-send of the approval request
func (h *FinancialRecordHandler) ResendApproval(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	if err := h.financialService.ResendApproval(c.Request.Context(), id); err != nil {
		var notFound financial.ErrRecordNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Financial record not found")
		case errors.Is(err, financial.ErrNotPendingResponsible):
			RespondBadRequest(c, "Record is not pending responsible approval")
		default:
			h.logger.Error("Failed to enqueue approval resend", "record_id", id.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondAccepted(c, gin.H{"record_id": id.String(), "status": "queued"})
}

// SendToOmie enqueues the admin send-to-omie task
func (h *FinancialRecordHandler) SendToOmie(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	if err := h.financialService.SendToOmie(c.Request.Context(), id); err != nil {
		var notFound financial.ErrRecordNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Financial record not found")
			return
		}
		h.logger.Error("Failed to enqueue send-to-omie task", "record_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, gin.H{"record_id": id.String(), "status": "queued"})
}

// Delete soft-deletes a payment request
func (h *FinancialRecordHandler) Delete(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	actor := c.GetHeader("X-Actor")
	if err := h.financialService.Delete(c.Request.Context(), id, actor); err != nil {
		var notFound financial.ErrRecordNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Financial record not found")
			return
		}
		h.logger.Error("Failed to delete financial record", "record_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondNoContent(c)
}

func (h *FinancialRecordHandler) recordID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid record ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid record ID")
		return uuid.Nil, false
	}
	return id, true
}

func mapPartyRequest(p PartyRequest) financial.Party {
	return financial.Party{
		ID:    uuid.MustParse(p.ID),
		Name:  p.Name,
		Email: p.Email,
	}
}

// mapRecordToResponse maps a financial record entity to a response DTO
func mapRecordToResponse(record *financial.Record) FinancialRecordResponse {
	resp := FinancialRecordResponse{
		ID:                   record.ID.String(),
		Protocol:             record.Protocol,
		Value:                record.Value.String(),
		CategoryCode:         record.CategoryCode,
		PaymentMethod:        string(record.PaymentMethod),
		Description:          record.Description,
		Requester:            PartyResponse{ID: record.Requester.ID.String(), Name: record.Requester.Name, Email: record.Requester.Email},
		RequestingDepartment: record.RequestingDepartment,
		ClientSupplierCode:   record.ClientSupplierCode,
		Status:               string(record.Status),
		ResponsibleStatus:    string(record.ResponsibleStatus),
		AuditStatus:          string(record.AuditStatus),
		PaymentStatus:        string(record.PaymentStatus),
		AuditNotes:           record.AuditNotes,
		AuditedBy:            record.AuditedBy,
		ServiceDate:          record.ServiceDate.Format(dateLayout),
		DueDate:              record.DueDate.Format(dateLayout),
		CreatedAt:            record.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            record.UpdatedAt.Format(time.RFC3339),
	}
	if record.Responsible != nil {
		resp.Responsible = &PartyResponse{ID: record.Responsible.ID.String(), Name: record.Responsible.Name, Email: record.Responsible.Email}
	}
	if record.IntegrationCode != nil {
		resp.IntegrationCode = *record.IntegrationCode
	}
	if record.OmieLaunchCode != nil {
		resp.OmieLaunchCode = *record.OmieLaunchCode
	}
	return resp
}

// mapEntryToResponse maps an audit entry to a response DTO
func mapEntryToResponse(entry *audit.Entry) HistoryEntryResponse {
	return HistoryEntryResponse{
		HistoryType: string(entry.HistoryType),
		Display:     entry.HistoryType.Display(),
		Actor:       entry.Actor,
		At:          entry.At.Format(time.RFC3339),
		Snapshot:    entry.Snapshot,
	}
}
