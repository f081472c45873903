// Package payment models sale payments and their installment plans.
package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type enumerates payment instruments.
type Type string

const (
	TypeCredit              Type = "CREDIT"
	TypeDebit               Type = "DEBIT"
	TypeBoleto              Type = "BOLETO"
	TypeFinancing           Type = "FINANCING"
	TypeInternalInstallment Type = "INTERNAL_INSTALLMENT"
)

var (
	// ErrFinancierRequired enforces that financed payments name a financier.
	ErrFinancierRequired = errors.New("financier is required for financing payments")

	// ErrInstallmentsExceedValue enforces Σ(installment values) ≤ payment value.
	ErrInstallmentsExceedValue = errors.New("installments exceed the payment value")

	// ErrInvalidInstallmentCount rejects non-positive installment counts.
	ErrInvalidInstallmentCount = errors.New("installment count must be positive")
)

// Financier identifies the financing institution.
type Financier struct {
	ID   uuid.UUID
	Name string
}

// Installment is one slice of a payment.
type Installment struct {
	ID                uuid.UUID
	PaymentID         uuid.UUID
	InstallmentNumber int
	Value             decimal.Decimal
	DueDate           time.Time
	Paid              bool
	PaidAt            *time.Time
}

// Payment belongs to a sale and may be split into installments.
type Payment struct {
	ID           uuid.UUID
	SaleID       uuid.UUID
	Value        decimal.Decimal
	Type         Type
	Financier    *Financier
	DueDate      time.Time
	Installments []Installment
	CreatedAt    time.Time
}

// Validate checks the payment invariants.
func (p *Payment) Validate() error {
	if p.Type == TypeFinancing && p.Financier == nil {
		return ErrFinancierRequired
	}
	total := decimal.Zero
	for _, inst := range p.Installments {
		total = total.Add(inst.Value)
	}
	if total.GreaterThan(p.Value) {
		return fmt.Errorf("%w: %s > %s", ErrInstallmentsExceedValue, total, p.Value)
	}
	return nil
}

// IsPaid reports whether every installment has been settled. A payment with
// no installments is not considered paid.
func (p *Payment) IsPaid() bool {
	if len(p.Installments) == 0 {
		return false
	}
	for _, inst := range p.Installments {
		if !inst.Paid {
			return false
		}
	}
	return true
}

// PercentualPaid returns the settled fraction of the payment value, rounded
// to four decimal places. A zero-value payment reports zero.
func (p *Payment) PercentualPaid() decimal.Decimal {
	if p.Value.IsZero() {
		return decimal.Zero
	}
	paid := decimal.Zero
	for _, inst := range p.Installments {
		if inst.Paid {
			paid = paid.Add(inst.Value)
		}
	}
	return paid.Div(p.Value).Round(4)
}

// GenerateInstallments splits the payment value into n equal slices due 30
// days apart, starting at the payment due date. Existing installments are
// replaced.
func (p *Payment) GenerateInstallments(n int) error {
	if n <= 0 {
		return ErrInvalidInstallmentCount
	}
	// Truncating keeps n*each under the payment value, so the plan can
	// never violate the installment-sum invariant.
	each := p.Value.Div(decimal.NewFromInt(int64(n))).RoundDown(6)

	installments := make([]Installment, 0, n)
	for i := 0; i < n; i++ {
		installments = append(installments, Installment{
			ID:                uuid.New(),
			PaymentID:         p.ID,
			InstallmentNumber: i + 1,
			Value:             each,
			DueDate:           p.DueDate.AddDate(0, 0, 30*i),
		})
	}
	p.Installments = installments
	return p.Validate()
}
