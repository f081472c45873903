package financial

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParty(name string) Party {
	return Party{ID: uuid.New(), Name: name, Email: name + "@solaris.example"}
}

func TestNewProtocol(t *testing.T) {
	now := time.Date(2024, 6, 3, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "15040520240603", NewProtocol(now))
}

func TestComputeDueDate(t *testing.T) {
	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		amount   string
		expected time.Time
	}{
		{"UpTo3000", "500.00", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{"Exactly3000", "3000.00", time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)},
		{"UpTo6000", "4500.00", time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC)},
		{"UpTo10000", "9999.99", time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)},
		{"UpTo20000", "12000.00", time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)},
		{"Above20000", "50000.00", time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tc.amount)
			assert.Equal(t, tc.expected, ComputeDueDate(monday, amount))
		})
	}
}

func TestComputeDueDate_WeekendRollsForward(t *testing.T) {
	thursday := time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC)
	// +2 days lands on Saturday, expect the following Monday
	due := ComputeDueDate(thursday, decimal.NewFromInt(100))
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), due)
}

func TestNewRecord_AutoApprovedCategory(t *testing.T) {
	now := time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC)

	for _, category := range []string{"2.02.94", "2.02.92"} {
		t.Run(category, func(t *testing.T) {
			record, err := NewRecord(NewRecordInput{
				Value:              decimal.RequireFromString("500.00"),
				CategoryCode:       category,
				PaymentMethod:      MethodPix,
				Requester:          testParty("requester"),
				ClientSupplierCode: "00000000000191",
				ServiceDate:        now,
			}, now)
			require.NoError(t, err)

			assert.Equal(t, StatusApproved, record.Status)
			assert.Equal(t, ResponsibleApproved, record.ResponsibleStatus)
			assert.Equal(t, PaymentPending, record.PaymentStatus)
			assert.Equal(t, time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), record.DueDate)
			assert.Nil(t, record.IntegrationCode)
			assert.True(t, record.EligibleForOmie())
		})
	}
}

func TestNewRecord_ManualCategoryRequiresResponsible(t *testing.T) {
	now := time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC)
	in := NewRecordInput{
		Value:         decimal.RequireFromString("12000.00"),
		CategoryCode:  "3.01.01",
		PaymentMethod: MethodTed,
		Requester:     testParty("requester"),
		ServiceDate:   now,
	}

	_, err := NewRecord(in, now)
	assert.ErrorIs(t, err, ErrMissingResponsible)

	responsible := testParty("manager")
	in.Responsible = &responsible
	record, err := NewRecord(in, now)
	require.NoError(t, err)
	assert.Equal(t, StatusSentForApproval, record.Status)
	assert.Equal(t, time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC), record.DueDate)
}

func TestNewRecord_NegativeValue(t *testing.T) {
	now := time.Now()
	_, err := NewRecord(NewRecordInput{
		Value:        decimal.RequireFromString("-1"),
		CategoryCode: "2.02.94",
		Requester:    testParty("requester"),
		ServiceDate:  now,
	}, now)
	assert.ErrorIs(t, err, ErrNegativeValue)
}

func TestRecord_MarkIntegrated_FirstWriterWins(t *testing.T) {
	record := &Record{PaymentStatus: PaymentPending}

	require.NoError(t, record.MarkIntegrated("X1", "900001"))
	require.NotNil(t, record.IntegrationCode)
	assert.Equal(t, "X1", *record.IntegrationCode)
	require.NotNil(t, record.OmieLaunchCode)
	assert.Equal(t, "900001", *record.OmieLaunchCode)
	assert.Equal(t, PaymentSent, record.PaymentStatus)

	err := record.MarkIntegrated("X2", "900002")
	assert.ErrorIs(t, err, ErrAlreadyIntegrated)
	assert.Equal(t, "X1", *record.IntegrationCode, "integration code is monotonic")
}

func TestRecord_AnswerResponsible(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name           string
		answer         ResponsibleStatus
		expectedStatus Status
		expectedErr    error
	}{
		{"Approved", ResponsibleApproved, StatusInProgress, nil},
		{"Rejected", ResponsibleRejected, StatusCancelled, nil},
		{"Invalid", ResponsiblePending, "", ErrInvalidManagerAnswer},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := &Record{Status: StatusSentForApproval, ResponsibleStatus: ResponsiblePending}
			err := record.AnswerResponsible(tc.answer, now)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Equal(t, ResponsiblePending, record.ResponsibleStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.answer, record.ResponsibleStatus)
			assert.Equal(t, tc.expectedStatus, record.Status)
		})
	}
}

func TestRecord_DecideAudit(t *testing.T) {
	now := time.Now()

	t.Run("RejectionWithoutNotes", func(t *testing.T) {
		record := &Record{AuditStatus: AuditPending}
		_, err := record.DecideAudit(AuditRejected, "", "auditor", now)
		assert.ErrorIs(t, err, ErrMissingAuditNotes)
		assert.Equal(t, AuditPending, record.AuditStatus, "no mutation on validation failure")
	})

	t.Run("RejectionWithNotes", func(t *testing.T) {
		record := &Record{AuditStatus: AuditPending}
		notify, err := record.DecideAudit(AuditRejected, "missing invoice", "auditor", now)
		require.NoError(t, err)
		assert.True(t, notify)
		assert.Equal(t, AuditRejected, record.AuditStatus)
		assert.Equal(t, "missing invoice", record.AuditNotes)
		require.NotNil(t, record.AuditResponseDate)
	})

	t.Run("ApprovalNeedsNoNotes", func(t *testing.T) {
		record := &Record{AuditStatus: AuditPending}
		notify, err := record.DecideAudit(AuditApproved, "", "auditor", now)
		require.NoError(t, err)
		assert.False(t, notify)
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		record := &Record{AuditStatus: AuditPending}
		_, err := record.DecideAudit(AuditStatus("MAYBE"), "notes", "auditor", now)
		assert.ErrorIs(t, err, ErrInvalidAuditStatus)
	})
}

func TestRecord_EligibleForOmie(t *testing.T) {
	code := "X1"

	testCases := []struct {
		name     string
		record   Record
		expected bool
	}{
		{"Eligible", Record{ResponsibleStatus: ResponsibleApproved, PaymentStatus: PaymentPending}, true},
		{"AlreadyShipped", Record{IntegrationCode: &code, ResponsibleStatus: ResponsibleApproved, PaymentStatus: PaymentPending}, false},
		{"NotApproved", Record{ResponsibleStatus: ResponsiblePending, PaymentStatus: PaymentPending}, false},
		{"AlreadySent", Record{ResponsibleStatus: ResponsibleApproved, PaymentStatus: PaymentSent}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.record.EligibleForOmie())
		})
	}
}

func TestRecord_MarkPaid_Idempotent(t *testing.T) {
	now := time.Now()
	record := &Record{Status: StatusInProgress, PaymentStatus: PaymentSent}

	assert.True(t, record.MarkPaid(now))
	assert.Equal(t, PaymentPaid, record.PaymentStatus)
	assert.Equal(t, StatusDone, record.Status)

	assert.False(t, record.MarkPaid(now.Add(time.Hour)), "second delivery is a no-op")
}

func TestRecord_RotateApprovalRun(t *testing.T) {
	record := &Record{}
	record.RotateApprovalRun("run-1")
	require.NotNil(t, record.ResponsibleRequestIntegrationCode)
	assert.Equal(t, "run-1", *record.ResponsibleRequestIntegrationCode)

	record.RotateApprovalRun("run-2")
	assert.Equal(t, "run-2", *record.ResponsibleRequestIntegrationCode, "approval run token rotates on resend")
}
