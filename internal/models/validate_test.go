package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	apperrors "treasurytracker/internal/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validNote() *Investment {
	issue := day(2024, time.January, 15)
	return &Investment{
		Type:             InvestmentTypeTreasuryNote,
		FaceValue:        decimal.NewFromInt(100000),
		PurchasePrice:    decimal.NewFromInt(98500),
		AnnualCouponRate: decimal.RequireFromString("0.10"),
		IssueDate:        &issue,
		PurchaseDate:     issue,
		MaturityDate:     day(2026, time.January, 15),
		Status:           InvestmentStatusActive,
	}
}

func TestInvestment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Investment)
		wantErr bool
	}{
		{"valid note", func(*Investment) {}, false},
		{"valid bill", func(i *Investment) {
			i.Type = InvestmentTypeTreasuryBill
			i.AnnualCouponRate = decimal.Zero
			i.IssueDate = nil
		}, false},
		{"status defaults later", func(i *Investment) { i.Status = "" }, false},
		{"unknown type", func(i *Investment) { i.Type = "corporate_bond" }, true},
		{"unknown status", func(i *Investment) { i.Status = "frozen" }, true},
		{"zero face value", func(i *Investment) { i.FaceValue = decimal.Zero }, true},
		{"negative purchase price", func(i *Investment) { i.PurchasePrice = decimal.NewFromInt(-1) }, true},
		{"rate above one", func(i *Investment) { i.AnnualCouponRate = decimal.RequireFromString("1.01") }, true},
		{"negative rate", func(i *Investment) { i.AnnualCouponRate = decimal.RequireFromString("-0.01") }, true},
		{"maturity equals purchase", func(i *Investment) { i.MaturityDate = i.PurchaseDate }, true},
		{"maturity before purchase", func(i *Investment) { i.MaturityDate = day(2023, time.January, 1) }, true},
		{"issue after purchase", func(i *Investment) {
			late := day(2024, time.February, 1)
			i.IssueDate = &late
		}, true},
		{"missing purchase date", func(i *Investment) { i.PurchaseDate = time.Time{} }, true},
		{"note with zero rate", func(i *Investment) { i.AnnualCouponRate = decimal.Zero }, true},
		{"bill with coupon", func(i *Investment) { i.Type = InvestmentTypeTreasuryBill }, true},
		{"description too long", func(i *Investment) { i.Description = strings.Repeat("x", 501) }, true},
		{"multi-byte description at limit", func(i *Investment) { i.Description = strings.Repeat("é", 300) }, false},
		{"ampersands at limit", func(i *Investment) { i.Description = strings.Repeat("&", 500) }, false},
		{"multi-byte description too long", func(i *Investment) { i.Description = strings.Repeat("é", 501) }, true},
		{"face value with trailing zeros", func(i *Investment) { i.FaceValue = decimal.RequireFromString("100000.000") }, false},
		{"face value in sub-cents", func(i *Investment) { i.FaceValue = decimal.RequireFromString("100000.005") }, true},
		{"purchase price in sub-cents", func(i *Investment) { i.PurchasePrice = decimal.RequireFromString("98500.125") }, true},
		{"face value at column limit", func(i *Investment) { i.FaceValue = decimal.RequireFromString("9999999999999.99") }, false},
		{"face value beyond column limit", func(i *Investment) { i.FaceValue = decimal.New(1, 13) }, true},
		{"purchase price beyond column limit", func(i *Investment) { i.PurchasePrice = decimal.RequireFromString("12345678901234") }, true},
		{"rate with five places", func(i *Investment) { i.AnnualCouponRate = decimal.RequireFromString("0.04255") }, true},
		{"rate with four places", func(i *Investment) { i.AnnualCouponRate = decimal.RequireFromString("0.0425") }, false},
		{"bill in sub-cents", func(i *Investment) {
			i.Type = InvestmentTypeTreasuryBill
			i.AnnualCouponRate = decimal.Zero
			i.FaceValue = decimal.RequireFromString("10000.005")
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validNote()
			tt.mutate(inv)
			err := inv.Validate()

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, apperrors.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
