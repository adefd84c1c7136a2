package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentType is the instrument shape. It is fixed at creation.
type InvestmentType string

const (
	InvestmentTypeTreasuryNote InvestmentType = "treasury_note"
	InvestmentTypeTreasuryBill InvestmentType = "treasury_bill"
)

// Valid reports whether t is a known instrument type.
func (t InvestmentType) Valid() bool {
	return t == InvestmentTypeTreasuryNote || t == InvestmentTypeTreasuryBill
}

// InvestmentStatus is the externally driven lifecycle state of an investment.
type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "active"
	InvestmentStatusMatured   InvestmentStatus = "matured"
	InvestmentStatusSold      InvestmentStatus = "sold"
	InvestmentStatusCancelled InvestmentStatus = "cancelled"
)

// Valid reports whether s is a known lifecycle status.
func (s InvestmentStatus) Valid() bool {
	switch s {
	case InvestmentStatusActive, InvestmentStatusMatured, InvestmentStatusSold, InvestmentStatusCancelled:
		return true
	}
	return false
}

// Investment is one purchased treasury instrument. It belongs to exactly one
// user and owns its payment events; UserID is a lookup key only.
type Investment struct {
	Base
	UserID           string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Type             InvestmentType   `gorm:"column:investment_type;type:varchar(20);not null" json:"investment_type"`
	Description      string           `gorm:"size:500" json:"description"`
	FaceValue        decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"face_value"`
	PurchasePrice    decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"purchase_price"`
	AnnualCouponRate decimal.Decimal  `gorm:"type:decimal(5,4);not null" json:"annual_coupon_rate"`
	IssueDate        *time.Time       `gorm:"type:date" json:"issue_date,omitempty"`
	PurchaseDate     time.Time        `gorm:"type:date;not null" json:"purchase_date"`
	MaturityDate     time.Time        `gorm:"type:date;not null;index" json:"maturity_date"`
	Status           InvestmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// Payments is populated only when explicitly preloaded.
	Payments []PaymentEvent `gorm:"foreignKey:InvestmentID;constraint:OnDelete:CASCADE" json:"payment_schedules,omitempty"`
}

// CadenceAnchor is the date coupon cadence is counted from: the issue date
// when known, otherwise the purchase date.
func (i *Investment) CadenceAnchor() time.Time {
	if i.IssueDate != nil && !i.IssueDate.IsZero() {
		return *i.IssueDate
	}
	return i.PurchaseDate
}
