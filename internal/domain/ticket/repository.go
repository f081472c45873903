package ticket

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrMissingDeadline is returned when the ticket type defines no SLA.
	ErrMissingDeadline = errors.New("ticket type deadline is required")

	// ErrRequesterWithoutDepartment is returned when the requester has no
	// department to derive the responsible department from.
	ErrRequesterWithoutDepartment = errors.New("requester must belong to a department")

	// ErrInvalidStatus rejects transitions to unknown states.
	ErrInvalidStatus = errors.New("invalid ticket status")
)

// ErrTicketNotFound indicates the referenced ticket does not exist.
type ErrTicketNotFound struct {
	TicketID uuid.UUID
}

func (e ErrTicketNotFound) Error() string {
	return fmt.Sprintf("ticket %s not found", e.TicketID)
}

// Repository defines ticket persistence operations.
type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	Update(ctx context.Context, t *Ticket) error
	WithTx(tx pgx.Tx) Repository
}
