// Package financial models payment requests (financial records) and the
// state machine that moves them through requesting, responsible-approval,
// audit and payment. State changes are pure mutations on the Record; side
// effects are expressed as domain events the caller turns into tasks.
package financial

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the requesting axis of a record.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusSentForApproval Status = "SENT_FOR_APPROVAL"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
	StatusDone            Status = "DONE"
)

// ResponsibleStatus is the responsible-approval axis.
type ResponsibleStatus string

const (
	ResponsiblePending  ResponsibleStatus = "PENDING"
	ResponsibleApproved ResponsibleStatus = "APPROVED"
	ResponsibleRejected ResponsibleStatus = "REJECTED"
)

// AuditStatus is the audit axis.
type AuditStatus string

const (
	AuditPending   AuditStatus = "PENDING"
	AuditApproved  AuditStatus = "APPROVED"
	AuditCancelled AuditStatus = "CANCELLED"
	AuditRejected  AuditStatus = "REJECTED"
)

// PaymentStatus is the payment axis.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSent    PaymentStatus = "SENT"
	PaymentPaid    PaymentStatus = "PAID"
)

// PaymentMethod enumerates how a request is paid out.
type PaymentMethod string

const (
	MethodPix          PaymentMethod = "PIX"
	MethodTed          PaymentMethod = "TED"
	MethodDoc          PaymentMethod = "DOC"
	MethodBoleto       PaymentMethod = "Boleto"
	MethodCreditCard   PaymentMethod = "Cartão de Crédito"
	MethodDebitCard    PaymentMethod = "Cartão de Débito"
	MethodCash         PaymentMethod = "Dinheiro"
	MethodCheck        PaymentMethod = "Cheque"
	MethodBankTransfer PaymentMethod = "Transferência Bancária"
	MethodBankDeposit  PaymentMethod = "Depósito Bancário"
	MethodOther        PaymentMethod = "Outros"
)

// autoApprovedCategories skip the responsible-approval stage entirely and are
// shipped to the accounting system on creation.
var autoApprovedCategories = map[string]struct{}{
	"2.02.94": {},
	"2.02.92": {},
}

// IsAutoApprovedCategory reports whether records in the category bypass
// responsible approval.
func IsAutoApprovedCategory(code string) bool {
	_, ok := autoApprovedCategories[code]
	return ok
}

// Party is a user reference carried on the record. User management itself
// lives outside this system; only identity, name and e-mail are consumed.
type Party struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Record is a payment request.
//
// Two fields are monotonic and set only when null: IntegrationCode (once
// set the record is considered shipped to the external ledger and must never
// be re-sent) and, on the paid transition, the PAID payment status.
// ResponsibleRequestIntegrationCode is not monotonic; it rotates when the
// approval request is re-sent.
type Record struct {
	ID       uuid.UUID
	Protocol string

	Value         decimal.Decimal // scale 6, non-negative
	CategoryCode  string
	PaymentMethod PaymentMethod
	Description   string

	Requester            Party
	Responsible          *Party
	RequestingDepartment string
	ClientSupplierCode   string

	Status            Status
	ResponsibleStatus ResponsibleStatus
	AuditStatus       AuditStatus
	PaymentStatus     PaymentStatus

	AuditNotes        string
	AuditedBy         string
	AuditResponseDate *time.Time

	IntegrationCode                   *string
	OmieLaunchCode                    *string
	ResponsibleRequestIntegrationCode *string

	ServiceDate time.Time
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Deleted     bool
}

// ShippedToOmie reports whether the record already carries an integration
// code. Every outbound path to the accounting system checks this first.
func (r *Record) ShippedToOmie() bool {
	return r.IntegrationCode != nil && *r.IntegrationCode != ""
}

// MarkIntegrated stores the integration code returned by the accounting
// system and flips the payment axis to SENT. First writer wins: a second
// call returns ErrAlreadyIntegrated and changes nothing.
func (r *Record) MarkIntegrated(integrationCode, omieLaunchCode string) error {
	if r.ShippedToOmie() {
		return ErrAlreadyIntegrated
	}
	r.IntegrationCode = &integrationCode
	if omieLaunchCode != "" {
		r.OmieLaunchCode = &omieLaunchCode
	}
	r.PaymentStatus = PaymentSent
	return nil
}

// AnswerResponsible applies the responsible approver's decision. Approval
// moves the record to IN_PROGRESS; rejection cancels it. Any answer other
// than approved/rejected is a validation error.
func (r *Record) AnswerResponsible(answer ResponsibleStatus, now time.Time) error {
	switch answer {
	case ResponsibleApproved:
		r.ResponsibleStatus = ResponsibleApproved
		r.Status = StatusInProgress
	case ResponsibleRejected:
		r.ResponsibleStatus = ResponsibleRejected
		r.Status = StatusCancelled
	default:
		return ErrInvalidManagerAnswer
	}
	r.UpdatedAt = now
	return nil
}

// DecideAudit applies the auditor's decision. Cancellations and rejections
// require a non-empty reason; this is enforced here, at the transition
// boundary, so no record can reach a rejected state silently.
// The returned flag tells the caller whether the requester must be notified.
func (r *Record) DecideAudit(status AuditStatus, notes, auditor string, now time.Time) (notify bool, err error) {
	switch status {
	case AuditApproved:
	case AuditCancelled, AuditRejected:
		if notes == "" {
			return false, ErrMissingAuditNotes
		}
		notify = true
	default:
		return false, ErrInvalidAuditStatus
	}
	r.AuditStatus = status
	r.AuditNotes = notes
	r.AuditedBy = auditor
	r.AuditResponseDate = &now
	r.UpdatedAt = now
	return notify, nil
}

// RotateApprovalRun replaces the correlation token of the in-flight approval
// workflow. Unlike IntegrationCode this field is rotated on every resend.
func (r *Record) RotateApprovalRun(token string) {
	r.ResponsibleRequestIntegrationCode = &token
}

// EligibleForOmie reports whether the admin send-to-omie action may run:
// never shipped, approved by the responsible, payment still pending.
func (r *Record) EligibleForOmie() bool {
	return !r.ShippedToOmie() &&
		r.ResponsibleStatus == ResponsibleApproved &&
		r.PaymentStatus == PaymentPending
}

// MarkPaid reconciles a payment confirmation from the accounting system.
// It reports whether any state changed; a record already PAID is a no-op.
func (r *Record) MarkPaid(now time.Time) bool {
	if r.PaymentStatus == PaymentPaid {
		return false
	}
	r.PaymentStatus = PaymentPaid
	r.Status = StatusDone
	r.UpdatedAt = now
	return true
}
