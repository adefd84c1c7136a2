// Package currency formats decimal amounts for display.
package currency

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Known reports whether code is an ISO 4217 currency known to go-money.
func Known(code string) bool {
	return money.GetCurrency(code) != nil
}

// Format renders amount in the conventions of the given currency, e.g.
// "$105,000.00" for USD. Unknown codes fall back to "<amount> <code>".
func Format(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixedBank(2) + " " + code
	}
	minor := amount.RoundBank(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
