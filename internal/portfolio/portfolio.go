// Package portfolio folds investments and their payment events into summary
// figures and an upcoming-payments view. It only reads what it is given.
package portfolio

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"treasurytracker/internal/clock"
	"treasurytracker/internal/models"
)

// Window bounds accepted at the transport boundary.
const (
	DefaultDaysAhead = 90
	MaxDaysAhead     = 365
	DefaultLimit     = 50
	MaxLimit         = 100
)

// YieldPlaces is the precision of PortfolioYield, in percent.
const YieldPlaces = 2

var hundred = decimal.NewFromInt(100)

// Summary holds the aggregate figures of a user's active investments.
type Summary struct {
	// TotalInvestments counts active investments only and therefore always
	// equals ActiveInvestments.
	TotalInvestments   int             `json:"total_investments"`
	ActiveInvestments  int             `json:"active_investments"`
	TotalFaceValue     decimal.Decimal `json:"total_face_value"`
	TotalPurchasePrice decimal.Decimal `json:"total_purchase_price"`
	ExpectedReturns    decimal.Decimal `json:"expected_returns"`
	ExpectedProfit     decimal.Decimal `json:"expected_profit"`
	PortfolioYield     decimal.Decimal `json:"portfolio_yield"`
}

// UpcomingPayment is a pending or due event enriched with its parent
// investment's description and type.
type UpcomingPayment struct {
	ID                    string                `json:"id"`
	InvestmentID          string                `json:"investment_id"`
	InvestmentDescription string                `json:"investment_description"`
	InvestmentType        models.InvestmentType `json:"investment_type"`
	PaymentDate           time.Time             `json:"payment_date"`
	PaymentAmount         decimal.Decimal       `json:"payment_amount"`
	PaymentType           models.PaymentType    `json:"payment_type"`
	PaymentStatus         models.PaymentStatus  `json:"payment_status"`
	Description           string                `json:"description"`
	FormattedAmount       string                `json:"formatted_amount,omitempty"`
}

// Summarize aggregates the active investments among investments. Each
// investment's Payments must be loaded; only pending and due payments count
// toward expected returns.
func Summarize(investments []models.Investment) Summary {
	s := Summary{
		TotalFaceValue:     decimal.Zero,
		TotalPurchasePrice: decimal.Zero,
		ExpectedReturns:    decimal.Zero,
	}

	for i := range investments {
		inv := &investments[i]
		if inv.Status != models.InvestmentStatusActive {
			continue
		}
		s.ActiveInvestments++
		s.TotalFaceValue = s.TotalFaceValue.Add(inv.FaceValue)
		s.TotalPurchasePrice = s.TotalPurchasePrice.Add(inv.PurchasePrice)

		for j := range inv.Payments {
			if inv.Payments[j].PaymentStatus.Outstanding() {
				s.ExpectedReturns = s.ExpectedReturns.Add(inv.Payments[j].PaymentAmount)
			}
		}
	}

	s.TotalInvestments = s.ActiveInvestments
	s.ExpectedProfit = s.ExpectedReturns.Sub(s.TotalPurchasePrice)
	s.PortfolioYield = Yield(s.ExpectedProfit, s.TotalPurchasePrice)
	return s
}

// Yield is profit as a percentage of cost, or zero when cost is not positive.
func Yield(profit, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(cost).Mul(hundred).RoundBank(YieldPlaces)
}

// Upcoming selects the pending and due payments of investments, of any
// investment status, whose date lies in [today, today+daysAhead]. Results are
// ordered by date and cut to limit. A negative window or a non-positive limit
// selects nothing.
func Upcoming(investments []models.Investment, today time.Time, daysAhead, limit int) []UpcomingPayment {
	result := []UpcomingPayment{}
	if daysAhead < 0 || limit <= 0 {
		return result
	}

	from := clock.DateOf(today)
	to := clock.AddDays(from, daysAhead)

	for i := range investments {
		inv := &investments[i]
		for j := range inv.Payments {
			p := &inv.Payments[j]
			if !p.PaymentStatus.Outstanding() {
				continue
			}
			d := clock.DateOf(p.PaymentDate)
			if d.Before(from) || d.After(to) {
				continue
			}
			result = append(result, UpcomingPayment{
				ID:                    p.ID,
				InvestmentID:          inv.ID,
				InvestmentDescription: inv.Description,
				InvestmentType:        inv.Type,
				PaymentDate:           d,
				PaymentAmount:         p.PaymentAmount,
				PaymentType:           p.PaymentType,
				PaymentStatus:         p.PaymentStatus,
				Description:           p.Description,
			})
		}
	}

	sort.SliceStable(result, func(a, b int) bool {
		if !result[a].PaymentDate.Equal(result[b].PaymentDate) {
			return result[a].PaymentDate.Before(result[b].PaymentDate)
		}
		if result[a].InvestmentID != result[b].InvestmentID {
			return result[a].InvestmentID < result[b].InvestmentID
		}
		return result[a].ID < result[b].ID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
