package handler

import "encoding/json"

// CreateFinancialRecordRequest opens a payment request. Value travels as a
// string to keep the decimal exact across the wire.
type CreateFinancialRecordRequest struct {
	Value                string        `json:"value" binding:"required"`
	CategoryCode         string        `json:"category_code" binding:"required"`
	PaymentMethod        string        `json:"payment_method" binding:"required"`
	Description          string        `json:"description"`
	Requester            PartyRequest  `json:"requester" binding:"required"`
	Responsible          *PartyRequest `json:"responsible,omitempty"`
	RequestingDepartment string        `json:"requesting_department"`
	ClientSupplierCode   string        `json:"client_supplier_code" binding:"required"`
	ServiceDate          string        `json:"service_date" binding:"required"` // 2006-01-02
}

// PartyRequest is a user reference on inbound requests
type PartyRequest struct {
	ID    string `json:"id" binding:"required,uuid"`
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// FinancialRecordResponse represents a financial record in API responses
type FinancialRecordResponse struct {
	ID                   string         `json:"id"`
	Protocol             string         `json:"protocol"`
	Value                string         `json:"value"`
	CategoryCode         string         `json:"category_code"`
	PaymentMethod        string         `json:"payment_method"`
	Description          string         `json:"description,omitempty"`
	Requester            PartyResponse  `json:"requester"`
	Responsible          *PartyResponse `json:"responsible,omitempty"`
	RequestingDepartment string         `json:"requesting_department,omitempty"`
	ClientSupplierCode   string         `json:"client_supplier_code"`
	Status               string         `json:"status"`
	ResponsibleStatus    string         `json:"responsible_status"`
	AuditStatus          string         `json:"audit_status"`
	PaymentStatus        string         `json:"payment_status"`
	AuditNotes           string         `json:"audit_notes,omitempty"`
	AuditedBy            string         `json:"audited_by,omitempty"`
	IntegrationCode      string         `json:"integration_code,omitempty"`
	OmieLaunchCode       string         `json:"omie_launch_code,omitempty"`
	ServiceDate          string         `json:"service_date"`
	DueDate              string         `json:"due_date"`
	CreatedAt            string         `json:"created_at"`
	UpdatedAt            string         `json:"updated_at"`
}

// PartyResponse is a user reference in API responses
type PartyResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ManagerApprovalRequest carries the responsible approver's answer
type ManagerApprovalRequest struct {
	ManagerAnswer string `json:"manager_answer" binding:"required,oneof=APPROVED REJECTED"`
}

// AuditRequest carries the auditor's decision
type AuditRequest struct {
	AuditStatus string `json:"audit_status" binding:"required,oneof=APPROVED CANCELLED REJECTED"`
	AuditNotes  string `json:"audit_notes"`
	AuditedBy   string `json:"audited_by" binding:"required"`
}

// HistoryEntryResponse is one audit-trail entry in API responses
type HistoryEntryResponse struct {
	HistoryType string          `json:"history_type"`
	Display     string          `json:"history_type_display"`
	Actor       string          `json:"actor,omitempty"`
	At          string          `json:"at"`
	Snapshot    json.RawMessage `json:"snapshot,omitempty"`
}

// PaidWebhookRequest is the payment-confirmation callback delivered by the
// accounting system.
type PaidWebhookRequest struct {
	Topic string             `json:"topic"`
	Event []PaidWebhookEvent `json:"event"`
}

// PaidWebhookEvent groups the payable entries of one callback event
type PaidWebhookEvent struct {
	ContaAPagar []PaidWebhookEntry `json:"conta_a_pagar"`
}

// PaidWebhookEntry identifies one settled payable. Either code may be absent;
// the integration code wins when both are present.
type PaidWebhookEntry struct {
	CodigoLancamentoIntegracao string      `json:"codigo_lancamento_integracao"`
	CodigoLancamentoOmie       json.Number `json:"codigo_lancamento_omie"`
}

// CreateSupplierRequest registers a supplier in the accounting system
type CreateSupplierRequest struct {
	CpfCnpj string `json:"cpfcnpj" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// SelectResponse is the select2-style envelope consumed by the request form
type SelectResponse struct {
	Results []SelectItem `json:"results"`
}

// SelectItem is one option of a SelectResponse
type SelectItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CreateTicketRequest opens a support ticket
type CreateTicketRequest struct {
	TicketType  TicketTypeRequest     `json:"ticket_type" binding:"required"`
	Subject     string                `json:"subject" binding:"required"`
	Description string                `json:"description"`
	Priority    string                `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH"`
	Requester   TicketPersonRequest   `json:"requester" binding:"required"`
	Responsible *TicketPersonRequest  `json:"responsible,omitempty"`
	Project     *TicketProjectRequest `json:"project,omitempty"`
}

// TicketTypeRequest carries the ticket category and its SLA in seconds
type TicketTypeRequest struct {
	ID              string `json:"id" binding:"required,uuid"`
	Name            string `json:"name" binding:"required"`
	DeadlineSeconds *int64 `json:"deadline_seconds"`
}

// TicketPersonRequest is a user reference on ticket requests
type TicketPersonRequest struct {
	ID         string `json:"id" binding:"required,uuid"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department"`
}

// TicketProjectRequest is the CRM project reference on ticket requests
type TicketProjectRequest struct {
	ID            string `json:"id" binding:"required,uuid"`
	ProjectNumber string `json:"project_number"`
	CustomerName  string `json:"customer_name"`
}

// TicketResponse represents a ticket in API responses
type TicketResponse struct {
	ID                    string  `json:"id"`
	Protocol              string  `json:"protocol"`
	Subject               string  `json:"subject"`
	Description           string  `json:"description,omitempty"`
	TypeName              string  `json:"type_name"`
	Priority              string  `json:"priority"`
	PriorityDisplay       string  `json:"priority_display"`
	Status                string  `json:"status"`
	StatusDisplay         string  `json:"status_display"`
	RequesterName         string  `json:"requester_name"`
	ResponsibleName       string  `json:"responsible_name,omitempty"`
	ResponsibleDepartment string  `json:"responsible_department"`
	ProjectNumber         string  `json:"project_number,omitempty"`
	DeadlineSeconds       int64   `json:"deadline_seconds"`
	ConclusionDate        *string `json:"conclusion_date,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

// TicketTransitionRequest moves a ticket to a new state
type TicketTransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Actor  string `json:"actor" binding:"required,uuid"`
}

// UpdateSaleRequest carries the mutable payout inputs of a sale. Absent
// fields stay unchanged.
type UpdateSaleRequest struct {
	TotalValue         *string `json:"total_value,omitempty"`
	TransferPercentage *string `json:"transfer_percentage,omitempty"`
}

// SaleResponse represents the payout projection of a sale
type SaleResponse struct {
	ID                 string `json:"id"`
	TotalValue         string `json:"total_value"`
	TransferPercentage string `json:"transfer_percentage,omitempty"`
}

// CreatePaymentRequest registers a payment for a sale
type CreatePaymentRequest struct {
	SaleID             string            `json:"sale_id" binding:"required,uuid"`
	Value              string            `json:"value" binding:"required"`
	Type               string            `json:"type" binding:"required,oneof=CREDIT DEBIT BOLETO FINANCING INTERNAL_INSTALLMENT"`
	Financier          *FinancierRequest `json:"financier,omitempty"`
	DueDate            string            `json:"due_date" binding:"required"` // 2006-01-02
	CreateInstallments bool              `json:"create_installments"`
	InstallmentsNumber int               `json:"installments_number"`
}

// FinancierRequest identifies the financing institution
type FinancierRequest struct {
	ID   string `json:"id" binding:"required,uuid"`
	Name string `json:"name" binding:"required"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID           string                `json:"id"`
	SaleID       string                `json:"sale_id"`
	Value        string                `json:"value"`
	Type         string                `json:"type"`
	DueDate      string                `json:"due_date"`
	Installments []InstallmentResponse `json:"installments,omitempty"`
	CreatedAt    string                `json:"created_at"`
}

// InstallmentResponse is one payment slice in API responses
type InstallmentResponse struct {
	ID                string `json:"id"`
	InstallmentNumber int    `json:"installment_number"`
	Value             string `json:"value"`
	DueDate           string `json:"due_date"`
	Paid              bool   `json:"paid"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}
