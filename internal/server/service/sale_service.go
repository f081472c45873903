package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/audit"
	"github.com/solaris-erp/backoffice/internal/domain/franchise"
)

// SaleServiceImpl implements the SaleService interface
type SaleServiceImpl struct {
	logger       *slog.Logger
	db           TxRunner
	sales        franchise.SaleRepository
	installments franchise.Repository
	auditTrail   audit.Repository
	now          func() time.Time
}

// NewSaleService creates a new sale service
func NewSaleService(
	logger *slog.Logger,
	db TxRunner,
	sales franchise.SaleRepository,
	installments franchise.Repository,
	auditTrail audit.Repository,
) SaleService {
	return &SaleServiceImpl{
		logger:       logger,
		db:           db,
		sales:        sales,
		installments: installments,
		auditTrail:   auditTrail,
		now:          time.Now,
	}
}

// Update applies the sale changes and, when a payout input changed,
// redistributes the franchise installments in the same transaction. A sale
// without a transfer percentage on either level aborts the whole update.
func (s *SaleServiceImpl) Update(ctx context.Context, id uuid.UUID, in UpdateSaleInput) (*franchise.Sale, error) {
	var sale *franchise.Sale

	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		sale, err = s.sales.WithTx(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}

		recompute := false
		if in.TotalValue != nil && !in.TotalValue.Equal(sale.TotalValue) {
			sale.TotalValue = *in.TotalValue
			recompute = true
		}
		if in.TransferPercentage != nil && !samePercentage(sale.TransferPercentage, in.TransferPercentage) {
			sale.TransferPercentage = in.TransferPercentage
			recompute = true
		}

		if err := s.sales.WithTx(tx).Update(ctx, sale); err != nil {
			return err
		}
		if !recompute {
			return nil
		}

		installments, err := s.installments.WithTx(tx).GetBySaleID(ctx, id)
		if err != nil {
			return err
		}
		if err := franchise.Recalculate(sale, installments); err != nil {
			return err
		}
		if len(installments) == 0 {
			return nil
		}
		return s.installments.WithTx(tx).UpdateValues(ctx, installments)
	})
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, sale)
	return sale, nil
}

func samePercentage(current, next *decimal.Decimal) bool {
	if current == nil {
		return false
	}
	return current.Equal(*next)
}

func (s *SaleServiceImpl) appendAudit(ctx context.Context, sale *franchise.Sale) {
	entry, err := audit.NewEntry(EntitySale, sale.ID, audit.HistoryUpdated, "", sale, s.now())
	if err != nil {
		s.logger.Error("Failed to build audit entry", "sale_id", sale.ID.String(), "error", err)
		return
	}
	if err := s.auditTrail.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit entry", "sale_id", sale.ID.String(), "error", err)
	}
}
