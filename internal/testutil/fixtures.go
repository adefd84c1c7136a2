package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"treasurytracker/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date is a calendar date at midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", nextID()))
}

// CreateTestUserWithEmail creates a user with the given email and the
// password "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		FullName: "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// NewTestNote returns an unsaved active two-year 10% note on 100000 issued
// 2024-01-15.
func NewTestNote(userID string) *models.Investment {
	issue := Date(2024, time.January, 15)
	return &models.Investment{
		UserID:           userID,
		Type:             models.InvestmentTypeTreasuryNote,
		Description:      fmt.Sprintf("Test Note %d", nextID()),
		FaceValue:        decimal.RequireFromString("100000.00"),
		PurchasePrice:    decimal.RequireFromString("98500.00"),
		AnnualCouponRate: decimal.RequireFromString("0.1000"),
		IssueDate:        &issue,
		PurchaseDate:     issue,
		MaturityDate:     Date(2026, time.January, 15),
		Status:           models.InvestmentStatusActive,
	}
}

// NewTestBill returns an unsaved active bill maturing on maturity.
func NewTestBill(userID string, maturity time.Time) *models.Investment {
	return &models.Investment{
		UserID:           userID,
		Type:             models.InvestmentTypeTreasuryBill,
		Description:      fmt.Sprintf("Test Bill %d", nextID()),
		FaceValue:        decimal.RequireFromString("10000.00"),
		PurchasePrice:    decimal.RequireFromString("9750.00"),
		AnnualCouponRate: decimal.Zero,
		PurchaseDate:     maturity.AddDate(0, -6, 0),
		MaturityDate:     maturity,
		Status:           models.InvestmentStatusActive,
	}
}

// CreateTestInvestment persists inv without generating a schedule.
func CreateTestInvestment(t *testing.T, db *gorm.DB, inv *models.Investment) *models.Investment {
	t.Helper()
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return inv
}

// CreateTestPayment persists one payment event for an investment.
func CreateTestPayment(t *testing.T, db *gorm.DB, investmentID string, date time.Time, amount string, status models.PaymentStatus) *models.PaymentEvent {
	t.Helper()

	p := &models.PaymentEvent{
		InvestmentID:  investmentID,
		PaymentDate:   date,
		PaymentAmount: decimal.RequireFromString(amount),
		PaymentType:   models.PaymentTypeCoupon,
		PaymentStatus: status,
		Description:   fmt.Sprintf("Test payment %d", nextID()),
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test payment: %v", err)
	}
	return p
}
