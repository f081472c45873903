package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/solaris-erp/backoffice/internal/config"
	"github.com/solaris-erp/backoffice/internal/domain/audit"
	"github.com/solaris-erp/backoffice/internal/domain/financial"
	"github.com/solaris-erp/backoffice/internal/domain/outbox"
	"github.com/solaris-erp/backoffice/internal/domain/task"
)

// entity type labels for the audit trail
const (
	EntityFinancialRecord = "financial_record"
	EntityTicket          = "ticket"
	EntitySale            = "sale"
)

// protocolRetries bounds the retry loop on protocol collisions. Protocols
// have second precision, so a collision clears within one retry in practice.
const protocolRetries = 3

// FinancialServiceImpl implements the FinancialRecordService interface
type FinancialServiceImpl struct {
	logger     *slog.Logger
	db         TxRunner
	records    financial.Repository
	outboxRepo outbox.Repository
	auditTrail audit.Repository
	omieClient OmieGateway
	notifier   WebhookNotifier
	webhooks   *config.WebhooksConfig
	now        func() time.Time
}

// NewFinancialService creates a new financial record service
func NewFinancialService(
	logger *slog.Logger,
	db TxRunner,
	records financial.Repository,
	outboxRepo outbox.Repository,
	auditTrail audit.Repository,
	omieClient OmieGateway,
	webhookNotifier WebhookNotifier,
	webhooks *config.WebhooksConfig,
) FinancialRecordService {
	return &FinancialServiceImpl{
		logger:     logger,
		db:         db,
		records:    records,
		outboxRepo: outboxRepo,
		auditTrail: auditTrail,
		omieClient: omieClient,
		notifier:   webhookNotifier,
		webhooks:   webhooks,
		now:        time.Now,
	}
}

// Create opens a payment request. The record and, for auto-approved
// categories, its send-to-omie task commit in one transaction; the approval
// webhook for everything else fires after commit so a delivery failure never
// loses the record (it is recoverable through resend-approval).
func (s *FinancialServiceImpl) Create(ctx context.Context, in financial.NewRecordInput) (*financial.Record, error) {
	var record *financial.Record

	for attempt := 0; ; attempt++ {
		rec, err := financial.NewRecord(in, s.now())
		if err != nil {
			return nil, err
		}

		err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			if err := s.records.WithTx(tx).Create(ctx, rec); err != nil {
				return err
			}
			if rec.Status == financial.StatusApproved {
				return s.enqueueTx(ctx, tx, task.NameSendToOmie, task.RecordTaskPayload{RecordID: rec.ID}, "")
			}
			return nil
		})
		if err == nil {
			record = rec
			break
		}

		var dup financial.ErrDuplicateProtocol
		if errors.As(err, &dup) && attempt < protocolRetries {
			s.logger.Warn("Protocol collision, retrying with fresh instant", "protocol", dup.Protocol)
			// A fresh protocol needs the next wall-clock second, not a full
			// second of waiting.
			if wait := time.Until(s.now().Truncate(time.Second).Add(time.Second)); wait > 0 {
				time.Sleep(wait)
			}
			continue
		}
		return nil, err
	}

	s.appendAudit(ctx, EntityFinancialRecord, record.ID, audit.HistoryCreated, record.Requester.Name, record)

	if record.Status == financial.StatusSentForApproval {
		s.requestApproval(ctx, record)
	}

	return record, nil
}

// requestApproval posts the approval webhook and stores the workflow run
// token on the record. Failures are logged, not fatal: the record stays
// SENT_FOR_APPROVAL and the request can be re-sent.
func (s *FinancialServiceImpl) requestApproval(ctx context.Context, record *financial.Record) {
	if s.webhooks.ApprovalURL == "" {
		s.logger.Warn("Approval webhook URL not configured, skipping approval request", "record_id", record.ID.String())
		return
	}

	receipt, err := s.notifier.Post(ctx, s.webhooks.ApprovalURL, ApprovalRequestPayload(record))
	if err != nil {
		s.logger.Error("Failed to deliver approval request", "record_id", record.ID.String(), "error", err)
		return
	}

	if receipt.CorrelationToken != "" {
		record.RotateApprovalRun(receipt.CorrelationToken)
		if err := s.records.Update(ctx, record); err != nil {
			s.logger.Error("Failed to store approval run token", "record_id", record.ID.String(), "error", err)
		}
	}
}

// ApprovalRequestPayload builds the body posted to the approval workflow.
func ApprovalRequestPayload(record *financial.Record) map[string]any {
	payload := map[string]any{
		"record_id":   record.ID.String(),
		"protocol":    record.Protocol,
		"value":       record.Value.StringFixed(2),
		"description": fmt.Sprintf("Registro de Pagamento - nº %s\nCriado em %s\nValor: %s", record.Protocol, record.CreatedAt.Format("02/01/2006"), record.Value.StringFixed(2)),
		"requester":   record.Requester.Name,
		"due_date":    record.DueDate.Format("02/01/2006"),
	}
	if record.Responsible != nil {
		payload["responsible_email"] = record.Responsible.Email
		payload["responsible_name"] = record.Responsible.Name
	}
	return payload
}

// GetByID retrieves a record; returns financial.ErrRecordNotFound when missing.
func (s *FinancialServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*financial.Record, error) {
	return s.records.GetByID(ctx, id)
}

// History returns the record's audit trail page plus the total entry count.
func (s *FinancialServiceImpl) History(ctx context.Context, id uuid.UUID, page, perPage int) ([]*audit.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.auditTrail.GetByEntity(ctx, EntityFinancialRecord, id, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.auditTrail.CountByEntity(ctx, EntityFinancialRecord, id)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// AnswerManager applies the responsible approver's decision. The answer is
// persisted before the accounting call so a failed CreatePayable leaves an
// approved record that the admin send-to-omie action can still ship.
func (s *FinancialServiceImpl) AnswerManager(ctx context.Context, id uuid.UUID, answer financial.ResponsibleStatus) (*financial.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.ResponsibleStatus != financial.ResponsiblePending {
		return nil, financial.ErrNotPendingResponsible
	}

	if err := record.AnswerResponsible(answer, s.now()); err != nil {
		return nil, err
	}
	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}

	actor := ""
	if record.Responsible != nil {
		actor = record.Responsible.Name
	}
	s.appendAudit(ctx, EntityFinancialRecord, record.ID, audit.HistoryUpdated, actor, record)

	if answer != financial.ResponsibleApproved {
		return record, nil
	}

	// Every outbound path checks the integration code before calling out.
	if record.ShippedToOmie() {
		s.logger.Warn("Record already shipped to accounting, skipping duplicate call", "record_id", record.ID.String())
		return record, nil
	}

	receipt, err := s.omieClient.CreatePayable(ctx, record)
	if err != nil {
		s.logger.Error("Failed to ship approved record to accounting", "record_id", record.ID.String(), "error", err)
		return record, fmt.Errorf("shipping record %s to accounting: %w", record.Protocol, err)
	}

	if err := record.MarkIntegrated(receipt.IntegrationCode, receipt.OmieLaunchCode); err != nil {
		// A concurrent writer already shipped it; theirs wins.
		s.logger.Warn("Record already integrated", "record_id", record.ID.String())
		return record, nil
	}
	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, EntityFinancialRecord, record.ID, audit.HistoryUpdated, actor, record)
	return record, nil
}

// DecideAudit applies the auditor's decision. When the decision carries a
// reason for the requester, the notification task commits atomically with
// the state change.
func (s *FinancialServiceImpl) DecideAudit(ctx context.Context, id uuid.UUID, status financial.AuditStatus, notes, auditor string) (*financial.Record, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	notify, err := record.DecideAudit(status, notes, auditor, s.now())
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.records.WithTx(tx).Update(ctx, record); err != nil {
			return err
		}
		if notify {
			return s.enqueueTx(ctx, tx, task.NameNotifyAuditChange, task.RecordTaskPayload{RecordID: record.ID}, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, EntityFinancialRecord, record.ID, audit.HistoryUpdated, auditor, record)
	return record, nil
}

// ResendApproval enqueues a re-send of the approval request. Only records
// still awaiting the responsible's answer qualify.
func (s *FinancialServiceImpl) ResendApproval(ctx context.Context, id uuid.UUID) error {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if record.ResponsibleStatus != financial.ResponsiblePending {
		return financial.ErrNotPendingResponsible
	}

	return s.enqueue(ctx, task.NameResendApprovalRequest, task.RecordTaskPayload{RecordID: record.ID}, correlationOf(record))
}

// SendToOmie enqueues the admin send-to-omie task. Eligibility is enforced by
// the task handler so the check and the accounting call share one code path.
func (s *FinancialServiceImpl) SendToOmie(ctx context.Context, id uuid.UUID) error {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.enqueue(ctx, task.NameSendToOmie, task.RecordTaskPayload{RecordID: record.ID}, correlationOf(record))
}

// ReconcilePaid matches payment confirmations against records: integration
// code first, then the accounting system's launch code. Marking is
// idempotent; misses are logged and do not fail the batch.
func (s *FinancialServiceImpl) ReconcilePaid(ctx context.Context, events []PaidEvent) (int, error) {
	matched := 0
	for _, event := range events {
		record, err := s.lookupPaid(ctx, event)
		if err != nil {
			return matched, err
		}
		if record == nil {
			s.logger.Warn("Payment confirmation matched no record",
				"integration_code", event.IntegrationCode,
				"omie_code", event.OmieCode,
			)
			continue
		}

		if !record.MarkPaid(s.now()) {
			matched++
			continue
		}
		if err := s.records.Update(ctx, record); err != nil {
			return matched, err
		}
		s.appendAudit(ctx, EntityFinancialRecord, record.ID, audit.HistoryUpdated, "omie-webhook", record)
		matched++
	}
	return matched, nil
}

func (s *FinancialServiceImpl) lookupPaid(ctx context.Context, event PaidEvent) (*financial.Record, error) {
	if event.IntegrationCode != "" {
		record, err := s.records.GetByIntegrationCode(ctx, event.IntegrationCode)
		if err != nil || record != nil {
			return record, err
		}
	}
	if event.OmieCode != "" {
		return s.records.GetByOmieLaunchCode(ctx, event.OmieCode)
	}
	return nil, nil
}

// Delete soft-deletes a record, keeping its audit trail readable.
func (s *FinancialServiceImpl) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.records.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.appendAudit(ctx, EntityFinancialRecord, id, audit.HistoryDeleted, actor, nil)
	return nil
}

// enqueueTx inserts a task row inside the caller's transaction.
func (s *FinancialServiceImpl) enqueueTx(ctx context.Context, tx pgx.Tx, name task.Name, payload any, correlationID string) error {
	message, err := outbox.NewMessage(name, payload, correlationID, s.now())
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}

// enqueue inserts a stand-alone task row.
func (s *FinancialServiceImpl) enqueue(ctx context.Context, name task.Name, payload any, correlationID string) error {
	message, err := outbox.NewMessage(name, payload, correlationID, s.now())
	if err != nil {
		return err
	}
	return s.outboxRepo.Create(ctx, message)
}

// appendAudit writes an audit entry. A failed write is logged, never fatal:
// the domain mutation has already committed.
func (s *FinancialServiceImpl) appendAudit(ctx context.Context, entityType string, entityID uuid.UUID, historyType audit.HistoryType, actor string, snapshot any) {
	entry, err := audit.NewEntry(entityType, entityID, historyType, actor, snapshot, s.now())
	if err != nil {
		s.logger.Error("Failed to build audit entry", "entity_id", entityID.String(), "error", err)
		return
	}
	if err := s.auditTrail.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append audit entry", "entity_id", entityID.String(), "error", err)
	}
}

func correlationOf(record *financial.Record) string {
	if record.ResponsibleRequestIntegrationCode != nil {
		return *record.ResponsibleRequestIntegrationCode
	}
	return ""
}
