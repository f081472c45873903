package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/franchise"
	"github.com/solaris-erp/backoffice/internal/platform/persistence"
)

// FranchiseInstallmentRepository implements franchise.Repository for PostgreSQL
type FranchiseInstallmentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFranchiseInstallmentRepository creates a new PostgreSQL franchise installment repository
func NewFranchiseInstallmentRepository(logger *slog.Logger, db *persistence.PostgresDB) franchise.Repository {
	return &FranchiseInstallmentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
func (r *FranchiseInstallmentRepository) WithTx(tx pgx.Tx) franchise.Repository {
	return &FranchiseInstallmentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetBySaleID returns the sale's installments in creation order.
func (r *FranchiseInstallmentRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]*franchise.Installment, error) {
	query := `
		SELECT id, sale_id, status, installment_value, paid_at
		FROM franchise_installments
		WHERE sale_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, saleID)
	if err != nil {
		r.logger.Error("Failed to get franchise installments", "sale_id", saleID.String(), "error", err)
		return nil, fmt.Errorf("failed to get franchise installments: %w", err)
	}
	defer rows.Close()

	var installments []*franchise.Installment
	for rows.Next() {
		var inst franchise.Installment
		var value string
		if err := rows.Scan(&inst.ID, &inst.SaleID, &inst.Status, &value, &inst.PaidAt); err != nil {
			r.logger.Error("Failed to scan franchise installment", "error", err)
			return nil, fmt.Errorf("failed to scan franchise installment: %w", err)
		}
		inst.InstallmentValue, err = decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("parsing installment value: %w", err)
		}
		installments = append(installments, &inst)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over franchise installments", "error", err)
		return nil, fmt.Errorf("error iterating over franchise installments: %w", err)
	}

	return installments, nil
}

// UpdateValues persists the recomputed values of the given installments.
func (r *FranchiseInstallmentRepository) UpdateValues(ctx context.Context, installments []*franchise.Installment) error {
	query := `
		UPDATE franchise_installments
		SET installment_value = $1, updated_at = NOW()
		WHERE id = $2
	`

	for _, inst := range installments {
		if _, err := r.querier.Exec(ctx, query, inst.InstallmentValue.String(), inst.ID); err != nil {
			r.logger.Error("Failed to update franchise installment", "id", inst.ID.String(), "error", err)
			return fmt.Errorf("failed to update franchise installment: %w", err)
		}
	}

	return nil
}

// SaleRepository implements franchise.SaleRepository for PostgreSQL.
// Products are stored as a JSONB snapshot; only the payout inputs live here.
type SaleRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSaleRepository creates a new PostgreSQL sale repository
func NewSaleRepository(logger *slog.Logger, db *persistence.PostgresDB) franchise.SaleRepository {
	return &SaleRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
func (r *SaleRepository) WithTx(tx pgx.Tx) franchise.SaleRepository {
	return &SaleRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// saleProduct is the JSONB shape of one product snapshot.
type saleProduct struct {
	Value          decimal.Decimal  `json:"value"`
	ReferenceValue *decimal.Decimal `json:"reference_value,omitempty"`
}

// GetByID retrieves the payout projection of a sale.
func (r *SaleRepository) GetByID(ctx context.Context, id uuid.UUID) (*franchise.Sale, error) {
	query := `
		SELECT id, total_value, transfer_percentage, branch_transfer_percentage, products
		FROM sales
		WHERE id = $1
	`

	var sale franchise.Sale
	var totalValue string
	var transferPct, branchPct *string
	var products []byte

	err := r.querier.QueryRow(ctx, query, id).Scan(
		&sale.ID,
		&totalValue,
		&transferPct,
		&branchPct,
		&products,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, franchise.ErrSaleNotFound{SaleID: id}
		}
		r.logger.Error("Failed to get sale", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	sale.TotalValue, err = decimal.NewFromString(totalValue)
	if err != nil {
		return nil, fmt.Errorf("parsing sale total value: %w", err)
	}
	if sale.TransferPercentage, err = parseOptionalDecimal(transferPct); err != nil {
		return nil, fmt.Errorf("parsing sale transfer percentage: %w", err)
	}
	if sale.BranchTransferPercentage, err = parseOptionalDecimal(branchPct); err != nil {
		return nil, fmt.Errorf("parsing branch transfer percentage: %w", err)
	}

	var snapshot []saleProduct
	if err := json.Unmarshal(products, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing sale products: %w", err)
	}
	sale.Products = make([]franchise.Product, 0, len(snapshot))
	for _, p := range snapshot {
		sale.Products = append(sale.Products, franchise.Product{Value: p.Value, ReferenceValue: p.ReferenceValue})
	}

	return &sale, nil
}

// Update persists the payout inputs of a sale.
func (r *SaleRepository) Update(ctx context.Context, sale *franchise.Sale) error {
	query := `
		UPDATE sales
		SET total_value = $1, transfer_percentage = $2, branch_transfer_percentage = $3,
		    products = $4, updated_at = NOW()
		WHERE id = $5
	`

	snapshot := make([]saleProduct, 0, len(sale.Products))
	for _, p := range sale.Products {
		snapshot = append(snapshot, saleProduct{Value: p.Value, ReferenceValue: p.ReferenceValue})
	}
	products, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding sale products: %w", err)
	}

	var transferPct, branchPct *string
	if sale.TransferPercentage != nil {
		s := sale.TransferPercentage.String()
		transferPct = &s
	}
	if sale.BranchTransferPercentage != nil {
		s := sale.BranchTransferPercentage.String()
		branchPct = &s
	}

	result, err := r.querier.Exec(ctx, query,
		sale.TotalValue.String(),
		transferPct,
		branchPct,
		products,
		sale.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update sale", "id", sale.ID.String(), "error", err)
		return fmt.Errorf("failed to update sale: %w", err)
	}

	if result.RowsAffected() == 0 {
		return franchise.ErrSaleNotFound{SaleID: sale.ID}
	}

	return nil
}

func parseOptionalDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
