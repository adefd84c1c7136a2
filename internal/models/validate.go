package models

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"

	apperrors "treasurytracker/internal/errors"
)

// MaxDescriptionLength bounds Investment.Description, in characters.
const MaxDescriptionLength = 500

const (
	// MoneyPlaces and RatePlaces match the decimal(15,2) and decimal(5,4)
	// columns. Values with more places are rejected.
	MoneyPlaces = 2
	RatePlaces  = 4
)

// MaxMoney is the first amount a decimal(15,2) column cannot hold.
var MaxMoney = decimal.New(1, 13)

// fitsScale reports whether d has at most places fractional digits.
func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// ValidMoney reports whether d can be stored in a money column unchanged.
func ValidMoney(d decimal.Decimal) bool {
	return fitsScale(d, MoneyPlaces) && d.Abs().LessThan(MaxMoney)
}

// Validate checks the investment's invariants. It reports the first
// violation found as a validation error.
func (i *Investment) Validate() error {
	fail := func(msg string) error {
		return apperrors.WithMessage(apperrors.ErrValidation, msg)
	}

	if !i.Type.Valid() {
		return fail("investment_type must be treasury_note or treasury_bill")
	}
	if i.Status != "" && !i.Status.Valid() {
		return fail("unknown investment status")
	}
	if utf8.RuneCountInString(i.Description) > MaxDescriptionLength {
		return fail("description must be at most 500 characters")
	}
	if !i.FaceValue.IsPositive() {
		return fail("face_value must be positive")
	}
	if !i.PurchasePrice.IsPositive() {
		return fail("purchase_price must be positive")
	}
	if i.AnnualCouponRate.IsNegative() || i.AnnualCouponRate.GreaterThan(decimal.NewFromInt(1)) {
		return fail("annual_coupon_rate must be between 0 and 1")
	}
	if !ValidMoney(i.FaceValue) {
		return fail("face_value must have at most 2 decimal places and be below 10000000000000")
	}
	if !ValidMoney(i.PurchasePrice) {
		return fail("purchase_price must have at most 2 decimal places and be below 10000000000000")
	}
	if !fitsScale(i.AnnualCouponRate, RatePlaces) {
		return fail("annual_coupon_rate must have at most 4 decimal places")
	}
	if i.PurchaseDate.IsZero() || i.MaturityDate.IsZero() {
		return fail("purchase_date and maturity_date are required")
	}
	if !i.MaturityDate.After(i.PurchaseDate) {
		return fail("maturity_date must be after purchase_date")
	}
	if i.IssueDate != nil && i.IssueDate.After(i.PurchaseDate) {
		return fail("issue_date must be on or before purchase_date")
	}

	switch i.Type {
	case InvestmentTypeTreasuryNote:
		if !i.AnnualCouponRate.IsPositive() {
			return fail("treasury notes must have a positive annual_coupon_rate")
		}
	case InvestmentTypeTreasuryBill:
		if !i.AnnualCouponRate.IsZero() {
			return fail("treasury bills must have an annual_coupon_rate of 0")
		}
	}
	return nil
}
