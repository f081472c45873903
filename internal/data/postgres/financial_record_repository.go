// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the back-office system.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// FinancialRecordRepository implements the financial.Repository interface for PostgreSQL
type FinancialRecordRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewFinancialRecordRepository creates a new PostgreSQL financial record repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewFinancialRecordRepository(logger *slog.Logger, db *persistence.PostgresDB) financial.Repository {
	return &FinancialRecordRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic operations
// across multiple repository calls.
func (r *FinancialRecordRepository) WithTx(tx pgx.Tx) financial.Repository {
	return &FinancialRecordRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const recordColumns = `
	id, protocol, value, category_code, payment_method, description,
	requester_id, requester_name, requester_email,
	responsible_id, responsible_name, responsible_email,
	requesting_department, client_supplier_code,
	status, responsible_status, audit_status, payment_status,
	audit_notes, audited_by, audit_response_date,
	integration_code, omie_launch_code, responsible_request_integration_code,
	service_date, due_date, created_at, updated_at
`

// Create stores a new financial record. Protocols are unique; a collision is
// surfaced as ErrDuplicateProtocol so the creator can retry with a fresh one.
func (r *FinancialRecordRepository) Create(ctx context.Context, record *financial.Record) error {
	query := `
		INSERT INTO financial_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	var responsibleID *uuid.UUID
	var responsibleName, responsibleEmail *string
	if record.Responsible != nil {
		responsibleID = &record.Responsible.ID
		responsibleName = &record.Responsible.Name
		responsibleEmail = &record.Responsible.Email
	}

	_, err := r.querier.Exec(ctx, query,
		record.ID,
		record.Protocol,
		record.Value.String(),
		record.CategoryCode,
		record.PaymentMethod,
		record.Description,
		record.Requester.ID,
		record.Requester.Name,
		record.Requester.Email,
		responsibleID,
		responsibleName,
		responsibleEmail,
		record.RequestingDepartment,
		record.ClientSupplierCode,
		record.Status,
		record.ResponsibleStatus,
		record.AuditStatus,
		record.PaymentStatus,
		record.AuditNotes,
		record.AuditedBy,
		record.AuditResponseDate,
		record.IntegrationCode,
		record.OmieLaunchCode,
		record.ResponsibleRequestIntegrationCode,
		record.ServiceDate,
		record.DueDate,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == "financial_records_protocol_key" {
			return financial.ErrDuplicateProtocol{Protocol: record.Protocol}
		}
		r.logger.Error("Failed to create financial record", "protocol", record.Protocol, "error", err)
		return fmt.Errorf("failed to create financial record: %w", err)
	}

	return nil
}

// GetByID retrieves a financial record by its ID, excluding soft-deleted rows.
func (r *FinancialRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*financial.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM financial_records
		WHERE id = $1 AND deleted = FALSE
	`

	record, err := r.scanRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, financial.ErrRecordNotFound{RecordID: id}
		}
		r.logger.Error("Failed to get financial record", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get financial record: %w", err)
	}

	return record, nil
}

// GetByIntegrationCode retrieves a record by the integration code returned by
// the accounting system. Returns nil, nil when no record matches so the
// webhook reconciler can fall back to the launch-code lookup.
func (r *FinancialRecordRepository) GetByIntegrationCode(ctx context.Context, code string) (*financial.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM financial_records
		WHERE integration_code = $1 AND deleted = FALSE
	`

	record, err := r.scanRecord(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get financial record by integration code", "integration_code", code, "error", err)
		return nil, fmt.Errorf("failed to get financial record by integration code: %w", err)
	}

	return record, nil
}

// GetByOmieLaunchCode retrieves a record by the accounting system's own launch
// code. Returns nil, nil when no record matches.
func (r *FinancialRecordRepository) GetByOmieLaunchCode(ctx context.Context, code string) (*financial.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM financial_records
		WHERE omie_launch_code = $1 AND deleted = FALSE
	`

	record, err := r.scanRecord(r.querier.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get financial record by omie launch code", "omie_launch_code", code, "error", err)
		return nil, fmt.Errorf("failed to get financial record by omie launch code: %w", err)
	}

	return record, nil
}

// Update persists the mutable state of an existing record. The integration
// codes are set-only-when-null at the row level too, so concurrent task
// redeliveries cannot overwrite the first writer's codes.
func (r *FinancialRecordRepository) Update(ctx context.Context, record *financial.Record) error {
	query := `
		UPDATE financial_records
		SET status = $1, responsible_status = $2, audit_status = $3, payment_status = $4,
		    audit_notes = $5, audited_by = $6, audit_response_date = $7,
		    integration_code = COALESCE(integration_code, $8),
		    omie_launch_code = COALESCE(omie_launch_code, $9),
		    responsible_request_integration_code = $10,
		    due_date = $11, updated_at = $12
		WHERE id = $13 AND deleted = FALSE
	`

	result, err := r.querier.Exec(ctx, query,
		record.Status,
		record.ResponsibleStatus,
		record.AuditStatus,
		record.PaymentStatus,
		record.AuditNotes,
		record.AuditedBy,
		record.AuditResponseDate,
		record.IntegrationCode,
		record.OmieLaunchCode,
		record.ResponsibleRequestIntegrationCode,
		record.DueDate,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update financial record", "id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to update financial record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return financial.ErrRecordNotFound{RecordID: record.ID}
	}

	return nil
}

// SoftDelete flags the record as deleted without removing the row, keeping
// the audit trail's foreign history intact.
func (r *FinancialRecordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE financial_records
		SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND deleted = FALSE
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to soft delete financial record", "id", id.String(), "error", err)
		return fmt.Errorf("failed to soft delete financial record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return financial.ErrRecordNotFound{RecordID: id}
	}

	return nil
}

// scanRecord materializes one row into a domain record. The numeric value
// column is read as text and parsed to keep scale-6 precision.
func (r *FinancialRecordRepository) scanRecord(row pgx.Row) (*financial.Record, error) {
	var record financial.Record
	var value string
	var responsibleID *uuid.UUID
	var responsibleName, responsibleEmail *string

	err := row.Scan(
		&record.ID,
		&record.Protocol,
		&value,
		&record.CategoryCode,
		&record.PaymentMethod,
		&record.Description,
		&record.Requester.ID,
		&record.Requester.Name,
		&record.Requester.Email,
		&responsibleID,
		&responsibleName,
		&responsibleEmail,
		&record.RequestingDepartment,
		&record.ClientSupplierCode,
		&record.Status,
		&record.ResponsibleStatus,
		&record.AuditStatus,
		&record.PaymentStatus,
		&record.AuditNotes,
		&record.AuditedBy,
		&record.AuditResponseDate,
		&record.IntegrationCode,
		&record.OmieLaunchCode,
		&record.ResponsibleRequestIntegrationCode,
		&record.ServiceDate,
		&record.DueDate,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Value, err = decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("parsing record value: %w", err)
	}

	if responsibleID != nil {
		record.Responsible = &financial.Party{ID: *responsibleID}
		if responsibleName != nil {
			record.Responsible.Name = *responsibleName
		}
		if responsibleEmail != nil {
			record.Responsible.Email = *responsibleEmail
		}
	}

	return &record, nil
}
