// Package franchise computes the payout owed to a franchise operator from a
// sale's financial composition and redistributes it across installments.
package franchise

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrMissingTransferPercentage is returned when neither the sale nor its
// branch defines a transfer percentage. Nothing is mutated in that case.
var ErrMissingTransferPercentage = errors.New("neither sale nor branch defines a transfer percentage")

// InstallmentStatus enumerates payout states.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

// Installment is one payout slice owed to the franchise.
type Installment struct {
	ID               uuid.UUID
	SaleID           uuid.UUID
	Status           InstallmentStatus
	InstallmentValue decimal.Decimal // scale 6
	PaidAt           *time.Time
}

// Product is the slim sale-product projection consumed by the calculator.
// ReferenceValue falls back to Value when absent.
type Product struct {
	Value          decimal.Decimal
	ReferenceValue *decimal.Decimal
}

// Sale carries the inputs of the payout formula. TransferPercentage falls
// back to the branch's percentage when the sale does not set one.
type Sale struct {
	ID                       uuid.UUID
	TotalValue               decimal.Decimal
	TransferPercentage       *decimal.Decimal
	BranchTransferPercentage *decimal.Decimal
	Products                 []Product
}

var margin7Rate = decimal.RequireFromString("0.07")

// ReferenceValue sums the products' reference values, falling back to the
// sale value of products without one.
func (s *Sale) ReferenceValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Products {
		if p.ReferenceValue != nil {
			total = total.Add(*p.ReferenceValue)
		} else {
			total = total.Add(p.Value)
		}
	}
	return total
}

// transferPercentage resolves the effective percentage, sale first.
func (s *Sale) transferPercentage() (decimal.Decimal, error) {
	if s.TransferPercentage != nil {
		return *s.TransferPercentage, nil
	}
	if s.BranchTransferPercentage != nil {
		return *s.BranchTransferPercentage, nil
	}
	return decimal.Zero, ErrMissingTransferPercentage
}

// FranchiseTotal computes the full payout owed to the franchise:
//
//	reference×(pct/100) − max(difference×0.07, 0) + difference
//
// rounded to three decimal places, where difference = total − reference.
func (s *Sale) FranchiseTotal() (decimal.Decimal, error) {
	pct, err := s.transferPercentage()
	if err != nil {
		return decimal.Zero, err
	}

	reference := s.ReferenceValue()
	difference := s.TotalValue.Sub(reference)

	margin7 := decimal.Zero
	if difference.IsPositive() {
		margin7 = difference.Mul(margin7Rate)
	}

	total := reference.Mul(pct.Div(decimal.NewFromInt(100))).Sub(margin7).Add(difference)
	return total.RoundBank(3), nil
}

// PerInstallment divides the franchise total across n installments, rounded
// half-even at scale 6.
func (s *Sale) PerInstallment(n int) (decimal.Decimal, error) {
	total, err := s.FranchiseTotal()
	if err != nil {
		return decimal.Zero, err
	}
	return total.Div(decimal.NewFromInt(int64(n))).RoundBank(6), nil
}

// Recalculate redistributes the payout over the existing installments of the
// sale. The number of installments is preserved; every installment receives
// the same recomputed value. With no installments it is a no-op.
func Recalculate(sale *Sale, installments []*Installment) error {
	if len(installments) == 0 {
		return nil
	}
	per, err := sale.PerInstallment(len(installments))
	if err != nil {
		return err
	}
	for _, inst := range installments {
		inst.InstallmentValue = per
	}
	return nil
}
