package financial

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewRecordInput carries everything needed to open a payment request.
type NewRecordInput struct {
	Value                decimal.Decimal
	CategoryCode         string
	PaymentMethod        PaymentMethod
	Description          string
	Requester            Party
	Responsible          *Party
	RequestingDepartment string
	ClientSupplierCode   string
	ServiceDate          time.Time
}

// NewRecord builds a record in its initial state. Protocol and due date are
// pure functions of the injected instant and the input, so creation is
// deterministic under test. Auto-approved categories start APPROVED and are
// expected to be shipped to accounting by a follow-up task; everything else
// starts SENT_FOR_APPROVAL and requires a responsible approver.
func NewRecord(in NewRecordInput, now time.Time) (*Record, error) {
	if in.Value.IsNegative() {
		return nil, ErrNegativeValue
	}

	r := &Record{
		ID:                   uuid.New(),
		Protocol:             NewProtocol(now),
		Value:                in.Value,
		CategoryCode:         in.CategoryCode,
		PaymentMethod:        in.PaymentMethod,
		Description:          in.Description,
		Requester:            in.Requester,
		Responsible:          in.Responsible,
		RequestingDepartment: in.RequestingDepartment,
		ClientSupplierCode:   in.ClientSupplierCode,
		ResponsibleStatus:    ResponsiblePending,
		AuditStatus:          AuditPending,
		PaymentStatus:        PaymentPending,
		ServiceDate:          in.ServiceDate,
		DueDate:              ComputeDueDate(in.ServiceDate, in.Value),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if IsAutoApprovedCategory(in.CategoryCode) {
		// The responsible axis is satisfied implicitly so the record passes
		// the send-to-omie eligibility gate without a human answer.
		r.Status = StatusApproved
		r.ResponsibleStatus = ResponsibleApproved
		return r, nil
	}

	if in.Responsible == nil {
		return nil, ErrMissingResponsible
	}
	r.Status = StatusSentForApproval
	return r, nil
}
