// Package handlers implements the task executors behind the worker: each one
// owns a single task name and performs its outbound side effect. Handlers are
// idempotent because task delivery is at-least-once.
package handlers

import (
	"context"

	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/platform/notifier"
	"github.com/solaris-erp/backoffice/internal/platform/omie"
)

// OmieGateway is the slice of the accounting client the handlers consume.
type OmieGateway interface {
	CreatePayable(ctx context.Context, record *financial.Record) (omie.PayableReceipt, error)
	GetSupplier(ctx context.Context, supplierCode string) (*omie.Supplier, error)
}

// WebhookNotifier is the slice of the notifier the handlers consume.
type WebhookNotifier interface {
	Post(ctx context.Context, url string, payload any) (notifier.Receipt, error)
	CancelRun(ctx context.Context, url, runID string) error
}
