package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrPaymentNotFound indicates the referenced payment does not exist.
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return fmt.Sprintf("payment %s not found", e.PaymentID)
}

// Repository defines payment persistence operations. Installments are
// persisted together with their payment.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	WithTx(tx pgx.Tx) Repository
}
