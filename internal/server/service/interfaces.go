package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/audit"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/domain/franchise"
	"github.com/solaris-erp/backoffice/internal/domain/payment"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
	"github.com/solaris-erp/backoffice/internal/platform/notifier"
	"github.com/solaris-erp/backoffice/internal/platform/omie"
)

// FinancialRecordService drives payment requests through requesting,
// responsible approval, audit and payment reconciliation.
type FinancialRecordService interface {
	// Create opens a payment request. Auto-approved categories start
	// APPROVED and get a send-to-omie task; everything else is sent to the
	// responsible approver via the approval webhook.
	Create(ctx context.Context, in financial.NewRecordInput) (*financial.Record, error)

	// GetByID retrieves a record.
	// Returns financial.ErrRecordNotFound if it doesn't exist.
	GetByID(ctx context.Context, id uuid.UUID) (*financial.Record, error)

	// History returns the paginated audit trail of a record plus the total
	// entry count.
	History(ctx context.Context, id uuid.UUID, page, perPage int) ([]*audit.Entry, int64, error)

	// AnswerManager applies the responsible approver's decision. Approval
	// ships the record to the accounting system synchronously.
	AnswerManager(ctx context.Context, id uuid.UUID, answer financial.ResponsibleStatus) (*financial.Record, error)

	// DecideAudit applies the auditor's decision; cancellations and
	// rejections enqueue a requester notification task.
	DecideAudit(ctx context.Context, id uuid.UUID, status financial.AuditStatus, notes, auditor string) (*financial.Record, error)

	// ResendApproval enqueues a re-send of the responsible approval request.
	// The record's responsible answer must still be pending.
	ResendApproval(ctx context.Context, id uuid.UUID) error

	// SendToOmie enqueues the admin send-to-omie task for the record.
	SendToOmie(ctx context.Context, id uuid.UUID) error

	// ReconcilePaid matches payment confirmations against records and marks
	// them paid. Misses are logged, not failed; returns the match count.
	ReconcilePaid(ctx context.Context, events []PaidEvent) (int, error)

	// Delete soft-deletes a record.
	Delete(ctx context.Context, id uuid.UUID, actor string) error
}

// PaidEvent is one entry of a payment-paid webhook batch. Exactly one of the
// two codes identifies the record; IntegrationCode is tried first.
type PaidEvent struct {
	IntegrationCode string
	OmieCode        string
	PaidAt          time.Time
}

// LookupService resolves suppliers and categories against the accounting
// system for the request form.
type LookupService interface {
	SearchSuppliers(ctx context.Context, cnpjCpf string) ([]omie.Supplier, error)
	CreateSupplier(ctx context.Context, cnpjCpf, name string) (string, error)
	ListCategories(ctx context.Context, term string) ([]omie.Category, error)
}

// TicketService drives support tickets through their lifecycle.
type TicketService interface {
	Create(ctx context.Context, in CreateTicketInput) (*ticket.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error)
	Transition(ctx context.Context, id uuid.UUID, target ticket.Status, actor uuid.UUID) (*ticket.Ticket, error)
}

// CreateTicketInput carries everything needed to open a ticket.
type CreateTicketInput struct {
	TicketType  ticket.Type
	Subject     string
	Description string
	Priority    ticket.Priority
	Requester   ticket.Person
	Responsible *ticket.Person
	Project     *ticket.Project
}

// SaleService applies sale updates and recomputes the franchise payout when
// the inputs of the formula change.
type SaleService interface {
	Update(ctx context.Context, id uuid.UUID, in UpdateSaleInput) (*franchise.Sale, error)
}

// UpdateSaleInput carries the mutable payout inputs; nil means unchanged.
type UpdateSaleInput struct {
	TotalValue         *decimal.Decimal
	TransferPercentage *decimal.Decimal
}

// PaymentService registers sale payments and their installment plans.
type PaymentService interface {
	Create(ctx context.Context, in CreatePaymentInput) (*payment.Payment, error)
}

// CreatePaymentInput carries a new payment. With CreateInstallments set the
// value is split into InstallmentsNumber slices due 30 days apart.
type CreatePaymentInput struct {
	SaleID             uuid.UUID
	Value              decimal.Decimal
	Type               payment.Type
	Financier          *payment.Financier
	DueDate            time.Time
	CreateInstallments bool
	InstallmentsNumber int
}

// OmieGateway is the slice of the accounting client the services consume.
// *omie.Client satisfies it; tests substitute a mock.
type OmieGateway interface {
	ListSuppliers(ctx context.Context, cnpjCpf string) ([]omie.Supplier, error)
	ListCategories(ctx context.Context) ([]omie.Category, error)
	CreateSupplier(ctx context.Context, cnpjCpf, name string) (string, error)
	CreatePayable(ctx context.Context, record *financial.Record) (omie.PayableReceipt, error)
	GetSupplier(ctx context.Context, supplierCode string) (*omie.Supplier, error)
}

// TxRunner runs a function inside a database transaction.
// *persistence.PostgresDB satisfies it; tests substitute a stub.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// WebhookNotifier is the slice of the notifier the services consume.
type WebhookNotifier interface {
	Post(ctx context.Context, url string, payload any) (notifier.Receipt, error)
	CancelRun(ctx context.Context, url, runID string) error
}
