package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/solaris-erp/backoffice/internal/domain/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTicket() *ticket.Ticket {
	now := time.Now()
	deadline := 48 * time.Hour
	concluded := now.Add(2 * time.Hour)
	return &ticket.Ticket{
		ID:       uuid.New(),
		Protocol: "20240603150000",
		Subject:  "Inversor sem comunicação",
		TicketType: ticket.Type{
			ID:       uuid.New(),
			Name:     "Suporte Técnico",
			Deadline: &deadline,
		},
		Priority: ticket.PriorityHigh,
		Requester: ticket.Person{
			ID:         uuid.New(),
			Name:       "Bruno Costa",
			Email:      "bruno.costa@example.com",
			Department: "Operações",
		},
		Status:         ticket.StatusResolved,
		Deadline:       deadline,
		ConclusionDate: &concluded,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestTicketRepository_Update(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()

	repo := &TicketRepository{querier: mockPool, logger: logger}
	tk := testTicket()

	t.Run("success", func(t *testing.T) {
		mockPool.ExpectExec(`UPDATE tickets`).
			WithArgs(
				tk.Status, tk.AnsweredAt, tk.AnsweredBy,
				tk.ResolvedAt, tk.ResolvedBy, tk.ClosedAt, tk.ClosedBy,
				tk.ConclusionDate, tk.UpdatedAt, tk.ID,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Update(ctx, tk)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("conclusion date is write-once at the row", func(t *testing.T) {
		mockPool.ExpectExec(`conclusion_date = COALESCE\(conclusion_date, \$8\)`).
			WithArgs(anyArgs(10)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Update(ctx, tk)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mockPool.ExpectExec(`UPDATE tickets`).
			WithArgs(anyArgs(10)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, tk)
		var notFound ticket.ErrTicketNotFound
		assert.ErrorAs(t, err, &notFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
