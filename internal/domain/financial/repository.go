package financial

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines financial record persistence operations.
// Records are soft-deleted; read operations exclude deleted rows.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByIntegrationCode(ctx context.Context, code string) (*Record, error)
	GetByOmieLaunchCode(ctx context.Context, code string) (*Record, error)
	Update(ctx context.Context, record *Record) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateProtocol indicates a protocol collision on insert. Protocols
// are derived from the wall clock with second precision, so the creator is
// expected to retry with a fresh instant.
type ErrDuplicateProtocol struct {
	Protocol string
}

func (e ErrDuplicateProtocol) Error() string {
	return "financial record protocol already exists: " + e.Protocol
}
