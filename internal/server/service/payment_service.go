package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/solaris-erp/backoffice/internal/domain/payment"
)

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	logger   *slog.Logger
	db       TxRunner
	payments payment.Repository
	now      func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(logger *slog.Logger, db TxRunner, payments payment.Repository) PaymentService {
	return &PaymentServiceImpl{
		logger:   logger,
		db:       db,
		payments: payments,
		now:      time.Now,
	}
}

// Create registers a payment for a sale. When requested, the installment
// plan is generated before validation so the sum invariant covers it; the
// payment and its installments commit atomically.
func (s *PaymentServiceImpl) Create(ctx context.Context, in CreatePaymentInput) (*payment.Payment, error) {
	p := &payment.Payment{
		ID:        uuid.New(),
		SaleID:    in.SaleID,
		Value:     in.Value,
		Type:      in.Type,
		Financier: in.Financier,
		DueDate:   in.DueDate,
		CreatedAt: s.now(),
	}

	if in.CreateInstallments {
		if err := p.GenerateInstallments(in.InstallmentsNumber); err != nil {
			return nil, err
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return s.payments.WithTx(tx).Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment registered",
		"payment_id", p.ID.String(),
		"sale_id", p.SaleID.String(),
		"type", string(p.Type),
		"installments", len(p.Installments),
	)
	return p, nil
}
