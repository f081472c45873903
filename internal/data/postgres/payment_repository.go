package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/payment"
	"github.com/solaris-erp/backoffice/internal/platform/persistence"
)

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so a payment and its
// installment plan are stored atomically.
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a payment and its installments.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (id, sale_id, value, type, financier_id, financier_name, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var financierID *uuid.UUID
	var financierName *string
	if p.Financier != nil {
		financierID = &p.Financier.ID
		financierName = &p.Financier.Name
	}

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.SaleID,
		p.Value.String(),
		p.Type,
		financierID,
		financierName,
		p.DueDate,
		p.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	installmentQuery := `
		INSERT INTO payment_installments (id, payment_id, installment_number, value, due_date, paid, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, inst := range p.Installments {
		_, err := r.querier.Exec(ctx, installmentQuery,
			inst.ID,
			inst.PaymentID,
			inst.InstallmentNumber,
			inst.Value.String(),
			inst.DueDate,
			inst.Paid,
			inst.PaidAt,
		)
		if err != nil {
			r.logger.Error("Failed to create payment installment", "payment_id", p.ID.String(), "number", inst.InstallmentNumber, "error", err)
			return fmt.Errorf("failed to create payment installment: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a payment with its installment plan.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `
		SELECT id, sale_id, value, type, financier_id, financier_name, due_date, created_at
		FROM payments
		WHERE id = $1
	`

	var p payment.Payment
	var value string
	var financierID *uuid.UUID
	var financierName *string

	err := r.querier.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.SaleID,
		&value,
		&p.Type,
		&financierID,
		&financierName,
		&p.DueDate,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to get payment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	p.Value, err = decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("parsing payment value: %w", err)
	}
	if financierID != nil {
		p.Financier = &payment.Financier{ID: *financierID}
		if financierName != nil {
			p.Financier.Name = *financierName
		}
	}

	installmentQuery := `
		SELECT id, payment_id, installment_number, value, due_date, paid, paid_at
		FROM payment_installments
		WHERE payment_id = $1
		ORDER BY installment_number ASC
	`

	rows, err := r.querier.Query(ctx, installmentQuery, id)
	if err != nil {
		r.logger.Error("Failed to get payment installments", "payment_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment installments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var inst payment.Installment
		var instValue string
		if err := rows.Scan(&inst.ID, &inst.PaymentID, &inst.InstallmentNumber, &instValue, &inst.DueDate, &inst.Paid, &inst.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment installment: %w", err)
		}
		inst.Value, err = decimal.NewFromString(instValue)
		if err != nil {
			return nil, fmt.Errorf("parsing installment value: %w", err)
		}
		p.Installments = append(p.Installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over payment installments: %w", err)
	}

	return &p, nil
}
