package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages audit entry persistence. The store is append-only:
// there is deliberately no update or delete operation.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (int64, error)
}
