package financial

import (
	"time"

	"github.com/shopspring/decimal"
)

// NewProtocol derives the human-visible protocol from the creation instant,
// formatted HHMMSSYYYYMMDD. The value is advisory: uniqueness is enforced by
// a database constraint and the creator retries on collision.
func NewProtocol(now time.Time) string {
	return now.Format("150405") + now.Format("20060102")
}

// dueDateOffsets maps a value ceiling to the payment-term offset in days.
// Evaluated in order; the last row catches everything above 20 000.
var dueDateOffsets = []struct {
	ceiling decimal.Decimal
	days    int
}{
	{decimal.NewFromInt(3000), 2},
	{decimal.NewFromInt(6000), 3},
	{decimal.NewFromInt(10000), 4},
	{decimal.NewFromInt(20000), 10},
}

const dueDateMaxOffsetDays = 15

// ComputeDueDate derives the due date from the service date and the amount.
// The offset grows stepwise with the amount; a result landing on a weekend
// rolls forward to the next business day.
func ComputeDueDate(serviceDate time.Time, amount decimal.Decimal) time.Time {
	days := dueDateMaxOffsetDays
	for _, row := range dueDateOffsets {
		if amount.LessThanOrEqual(row.ceiling) {
			days = row.days
			break
		}
	}
	return nextBusinessDay(serviceDate.AddDate(0, 0, days))
}

// nextBusinessDay rolls a weekend date forward to Monday.
func nextBusinessDay(d time.Time) time.Time {
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
