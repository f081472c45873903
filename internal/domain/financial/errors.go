package financial

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyIntegrated guards the monotonic integration code: a record
	// that carries one has been shipped and must not be sent again.
	ErrAlreadyIntegrated = errors.New("record already has an integration code")

	// ErrInvalidManagerAnswer rejects answers outside approved/rejected.
	ErrInvalidManagerAnswer = errors.New("manager answer must be APPROVED or REJECTED")

	// ErrInvalidAuditStatus rejects audit decisions outside approved/cancelled/rejected.
	ErrInvalidAuditStatus = errors.New("audit status must be APPROVED, CANCELLED or REJECTED")

	// ErrMissingAuditNotes is returned when a cancellation or rejection
	// carries no reason.
	ErrMissingAuditNotes = errors.New("audit notes are required for cancellation or rejection")

	// ErrMissingResponsible is returned when a non-auto-approved record is
	// created without a responsible approver.
	ErrMissingResponsible = errors.New("a responsible approver is required for this category")

	// ErrNegativeValue rejects negative money on creation.
	ErrNegativeValue = errors.New("record value must not be negative")

	// ErrNotPendingResponsible guards the resend-approval action.
	ErrNotPendingResponsible = errors.New("record is not pending responsible approval")

	// ErrIncompleteSupplier is returned when the accounting system knows the
	// supplier but name or document is missing.
	ErrIncompleteSupplier = errors.New("incomplete supplier information")
)

// ErrRecordNotFound indicates the referenced financial record does not exist.
type ErrRecordNotFound struct {
	RecordID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("financial record %s not found", e.RecordID)
}
