package models

import (
	"time"

	"treasurytracker/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentType is the kind of cash flow an event represents.
type PaymentType string

const (
	PaymentTypeCoupon    PaymentType = "coupon"
	PaymentTypePrincipal PaymentType = "principal"
	// PaymentTypeFinal is coupon plus principal, only ever a note's last event.
	PaymentTypeFinal PaymentType = "final_payment"
)

// PaymentStatus tracks realization of a scheduled cash flow.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusDue     PaymentStatus = "due"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusDue, PaymentStatusPaid, PaymentStatusOverdue:
		return true
	}
	return false
}

// Outstanding reports whether the payment still counts toward expected returns.
func (s PaymentStatus) Outstanding() bool {
	return s == PaymentStatusPending || s == PaymentStatusDue
}

// OutstandingPaymentStatuses are the statuses counted as not yet realized.
var OutstandingPaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusDue}

// PaymentEvent is one scheduled or realized cash flow of an investment.
// Events are replaced wholesale when a schedule is regenerated, so they are
// hard-deleted and carry no soft-delete column.
type PaymentEvent struct {
	ID                  string              `gorm:"type:uuid;primaryKey" json:"id"`
	InvestmentID        string              `gorm:"type:uuid;not null;uniqueIndex:uq_payment_events_investment_date,priority:1" json:"investment_id"`
	PaymentDate         time.Time           `gorm:"type:date;not null;index;uniqueIndex:uq_payment_events_investment_date,priority:2" json:"payment_date"`
	PaymentAmount       decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"payment_amount"`
	PaymentType         PaymentType         `gorm:"type:varchar(20);not null" json:"payment_type"`
	PaymentStatus       PaymentStatus       `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	Description         string              `gorm:"size:255" json:"description"`
	ActualPaymentDate   *time.Time          `gorm:"type:date" json:"actual_payment_date,omitempty"`
	ActualPaymentAmount decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"actual_payment_amount"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
