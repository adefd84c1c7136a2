// Package schedule projects the cash flows of a treasury instrument.
//
// Notes pay a semi-annual coupon of face × rate / 2, starting six calendar
// months after the cadence anchor (issue date, else purchase date) and
// stepping six months at a time while the date is on or before maturity. A
// step that lands exactly on maturity becomes a single final payment of
// coupon plus face value. A step sequence that skips over maturity simply
// stops: no separate principal event is added.
//
// Bills pay their face value once, at maturity.
//
// Amounts are rounded once each, half-to-even, to two decimal places.
package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"treasurytracker/internal/clock"
	apperrors "treasurytracker/internal/errors"
	"treasurytracker/internal/models"
)

const (
	// CouponIntervalMonths is the spacing of note coupons.
	CouponIntervalMonths = 6

	// CouponsPerYear divides the annual rate into one coupon's rate.
	CouponsPerYear = 12 / CouponIntervalMonths

	currencyPlaces = 2
)

var couponsPerYear = decimal.NewFromInt(CouponsPerYear)

// Generate returns the ordered payment events for inv. The events carry the
// investment's ID, pending status, and no persistence IDs.
//
// Generate does not re-check cross-field invariants (those are validated
// before it is called) but fails with ErrComputation when a value it depends
// on is missing, so a caller never writes a guessed schedule.
func Generate(inv *models.Investment) ([]models.PaymentEvent, error) {
	if inv == nil {
		return nil, apperrors.WithMessage(apperrors.ErrComputation, "investment is missing")
	}
	if !inv.FaceValue.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrComputation, "face value is missing")
	}
	if inv.PurchaseDate.IsZero() || inv.MaturityDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrComputation, "purchase and maturity dates are required")
	}

	switch inv.Type {
	case models.InvestmentTypeTreasuryNote:
		if !inv.AnnualCouponRate.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrComputation, "coupon rate is missing")
		}
		return noteSchedule(inv), nil
	case models.InvestmentTypeTreasuryBill:
		return billSchedule(inv), nil
	default:
		return nil, apperrors.WithMessage(apperrors.ErrComputation, fmt.Sprintf("unknown investment type %q", inv.Type))
	}
}

// CouponAmount is the amount of one semi-annual coupon.
func CouponAmount(faceValue, annualRate decimal.Decimal) decimal.Decimal {
	return faceValue.Mul(annualRate).Div(couponsPerYear).RoundBank(currencyPlaces)
}

// CouponDates lists the coupon dates from anchor through maturity. Each date
// is the previous one plus six months, so a month-end anchor that gets
// clamped (Aug 31 -> Feb 28) continues from the clamped day.
func CouponDates(anchor, maturity time.Time) []time.Time {
	maturity = clock.DateOf(maturity)

	var dates []time.Time
	for d := clock.AddMonths(anchor, CouponIntervalMonths); !d.After(maturity); d = clock.AddMonths(d, CouponIntervalMonths) {
		dates = append(dates, d)
	}
	return dates
}

func noteSchedule(inv *models.Investment) []models.PaymentEvent {
	coupon := CouponAmount(inv.FaceValue, inv.AnnualCouponRate)
	maturity := clock.DateOf(inv.MaturityDate)

	dates := CouponDates(inv.CadenceAnchor(), maturity)
	events := make([]models.PaymentEvent, 0, len(dates))
	for i, d := range dates {
		if d.Equal(maturity) {
			events = append(events, newEvent(inv.ID, d,
				coupon.Add(inv.FaceValue).RoundBank(currencyPlaces),
				models.PaymentTypeFinal,
				"Final coupon payment + Principal repayment"))
			continue
		}
		events = append(events, newEvent(inv.ID, d, coupon,
			models.PaymentTypeCoupon,
			fmt.Sprintf("Semi-annual coupon payment #%d", i+1)))
	}
	return events
}

func billSchedule(inv *models.Investment) []models.PaymentEvent {
	return []models.PaymentEvent{
		newEvent(inv.ID, clock.DateOf(inv.MaturityDate),
			inv.FaceValue.RoundBank(currencyPlaces),
			models.PaymentTypePrincipal,
			"Treasury bill maturity payment"),
	}
}

func newEvent(investmentID string, date time.Time, amount decimal.Decimal, kind models.PaymentType, description string) models.PaymentEvent {
	return models.PaymentEvent{
		InvestmentID:  investmentID,
		PaymentDate:   date,
		PaymentAmount: amount,
		PaymentType:   kind,
		PaymentStatus: models.PaymentStatusPending,
		Description:   description,
	}
}
