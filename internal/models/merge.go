package models

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "treasurytracker/internal/errors"
)

// InvestmentUpdate lists the investment fields that may change after creation.
// Everything that drives the payment schedule is deliberately absent.
type InvestmentUpdate struct {
	Description *string
	Status      *InvestmentStatus
}

// Apply validates u and merges it into inv. It returns the changed columns,
// keyed by column name, for a partial UPDATE.
func (u InvestmentUpdate) Apply(inv *Investment) (map[string]interface{}, error) {
	if u.Description != nil && utf8.RuneCountInString(*u.Description) > MaxDescriptionLength {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "description must be at most 500 characters")
	}
	if u.Status != nil && !u.Status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unknown investment status")
	}

	changes := make(map[string]interface{})
	if u.Description != nil {
		inv.Description = *u.Description
		changes["description"] = inv.Description
	}
	if u.Status != nil {
		inv.Status = *u.Status
		changes["status"] = inv.Status
	}

	return changes, nil
}

// PaymentUpdate lists the payment event fields that may change after the
// schedule is generated.
type PaymentUpdate struct {
	Status              *PaymentStatus
	ActualPaymentDate   *time.Time
	ActualPaymentAmount *decimal.Decimal
}

// Apply validates u and merges it into p, returning the changed columns.
func (u PaymentUpdate) Apply(p *PaymentEvent) (map[string]interface{}, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "unknown payment status")
	}
	if u.ActualPaymentDate != nil && u.ActualPaymentDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "actual payment date is invalid")
	}
	if u.ActualPaymentAmount != nil && !u.ActualPaymentAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "actual payment amount must be positive")
	}
	if u.ActualPaymentAmount != nil && !ValidMoney(u.ActualPaymentAmount.RoundBank(MoneyPlaces)) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "actual payment amount must be below 10000000000000")
	}

	changes := make(map[string]interface{})
	if u.Status != nil {
		p.PaymentStatus = *u.Status
		changes["payment_status"] = p.PaymentStatus
	}
	if u.ActualPaymentDate != nil {
		d := *u.ActualPaymentDate
		p.ActualPaymentDate = &d
		changes["actual_payment_date"] = d
	}
	if u.ActualPaymentAmount != nil {
		p.ActualPaymentAmount = decimal.NewNullDecimal(u.ActualPaymentAmount.RoundBank(2))
		changes["actual_payment_amount"] = p.ActualPaymentAmount
	}

	return changes, nil
}
