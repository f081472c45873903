package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/domain/task"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
	"github.com/solaris-erp/backoffice/internal/platform/notifier"
	"github.com/solaris-erp/backoffice/internal/platform/omie"
)

// Mock implementations of the dependencies

type MockFinancialRepository struct {
	mock.Mock
}

func (m *MockFinancialRepository) Create(ctx context.Context, record *financial.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFinancialRepository) GetByID(ctx context.Context, id uuid.UUID) (*financial.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financial.Record), args.Error(1)
}

func (m *MockFinancialRepository) GetByIntegrationCode(ctx context.Context, code string) (*financial.Record, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financial.Record), args.Error(1)
}

func (m *MockFinancialRepository) GetByOmieLaunchCode(ctx context.Context, code string) (*financial.Record, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financial.Record), args.Error(1)
}

func (m *MockFinancialRepository) Update(ctx context.Context, record *financial.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFinancialRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFinancialRepository) WithTx(tx pgx.Tx) financial.Repository {
	m.Called(tx)
	return m
}

type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, t *ticket.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*ticket.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, t *ticket.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) WithTx(tx pgx.Tx) ticket.Repository {
	m.Called(tx)
	return m
}

type MockOmieGateway struct {
	mock.Mock
}

func (m *MockOmieGateway) CreatePayable(ctx context.Context, record *financial.Record) (omie.PayableReceipt, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(omie.PayableReceipt), args.Error(1)
}

func (m *MockOmieGateway) GetSupplier(ctx context.Context, supplierCode string) (*omie.Supplier, error) {
	args := m.Called(ctx, supplierCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*omie.Supplier), args.Error(1)
}

type MockWebhookNotifier struct {
	mock.Mock
}

func (m *MockWebhookNotifier) Post(ctx context.Context, url string, payload any) (notifier.Receipt, error) {
	args := m.Called(ctx, url, payload)
	return args.Get(0).(notifier.Receipt), args.Error(1)
}

func (m *MockWebhookNotifier) CancelRun(ctx context.Context, url, runID string) error {
	args := m.Called(ctx, url, runID)
	return args.Error(0)
}

// Shared fixtures

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWebhooks() *config.WebhooksConfig {
	return &config.WebhooksConfig{
		TeamsTicketURL:    "https://flows.example/teams",
		ApprovalURL:       "https://flows.example/approval",
		CancelApprovalURL: "https://flows.example/cancel",
		AuditNotifyURL:    "https://flows.example/audit-mail",
		OutboundTimeout:   10 * time.Second,
	}
}

func recordTask(t *testing.T, name task.Name, recordID uuid.UUID) *task.Task {
	t.Helper()
	payload, err := json.Marshal(task.RecordTaskPayload{RecordID: recordID})
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	return &task.Task{TaskID: uuid.New(), Name: name, Payload: payload, EnqueuedAt: time.Now()}
}

func ticketTask(t *testing.T, ticketID uuid.UUID) *task.Task {
	t.Helper()
	payload, err := json.Marshal(task.TicketTaskPayload{TicketID: ticketID})
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	return &task.Task{TaskID: uuid.New(), Name: task.NameSendTicketToTeams, Payload: payload, EnqueuedAt: time.Now()}
}

// approvedRecord is eligible for the accounting system: approved by the
// responsible, never shipped, not yet paid.
func approvedRecord() *financial.Record {
	serviceDate := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	return &financial.Record{
		ID:                   uuid.New(),
		Protocol:             "20240603143000",
		Value:                decimal.RequireFromString("1500"),
		CategoryCode:         "2.01.03",
		PaymentMethod:        financial.MethodPix,
		Description:          "Manutenção preventiva de inversores",
		Requester:            financial.Party{ID: uuid.New(), Name: "Ana Lima", Email: "ana.lima@example.com"},
		Responsible:          &financial.Party{ID: uuid.New(), Name: "Carlos Souza", Email: "carlos.souza@example.com"},
		RequestingDepartment: "Operações",
		ClientSupplierCode:   "4422",
		Status:               financial.StatusApproved,
		ResponsibleStatus:    financial.ResponsibleApproved,
		AuditStatus:          financial.AuditPending,
		PaymentStatus:        financial.PaymentPending,
		ServiceDate:          serviceDate,
		DueDate:              serviceDate.AddDate(0, 0, 30),
		CreatedAt:            time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC),
	}
}
