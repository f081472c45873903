package franchise

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrSaleNotFound indicates the referenced sale does not exist.
type ErrSaleNotFound struct {
	SaleID uuid.UUID
}

func (e ErrSaleNotFound) Error() string {
	return fmt.Sprintf("sale %s not found", e.SaleID)
}

// Repository defines franchise installment persistence operations.
type Repository interface {
	GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]*Installment, error)
	UpdateValues(ctx context.Context, installments []*Installment) error
	WithTx(tx pgx.Tx) Repository
}

// SaleRepository exposes the slim sale projection the recalculator needs.
// The full sale lives in the CRM; only the payout inputs are read here.
type SaleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	Update(ctx context.Context, sale *Sale) error
	WithTx(tx pgx.Tx) SaleRepository
}
