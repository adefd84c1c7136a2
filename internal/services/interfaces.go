package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"treasurytracker/internal/models"
	"treasurytracker/internal/pagination"
	"treasurytracker/internal/portfolio"
	"treasurytracker/internal/repository"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, fullName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// CreateInvestmentInput carries the attributes of a new investment.
// An empty Status means active.
type CreateInvestmentInput struct {
	Type             models.InvestmentType
	Description      string
	FaceValue        decimal.Decimal
	PurchasePrice    decimal.Decimal
	AnnualCouponRate decimal.Decimal
	IssueDate        *time.Time
	PurchaseDate     time.Time
	MaturityDate     time.Time
	Status           models.InvestmentStatus
}

// StatusRefreshResult reports how many payment events changed status.
type StatusRefreshResult struct {
	AsOf      time.Time `json:"as_of"`
	BecameDue int64     `json:"became_due"`
	Overdue   int64     `json:"became_overdue"`
}

// InvestmentServicer defines the contract for investment and payment
// schedule business logic.
type InvestmentServicer interface {
	CreateInvestment(ctx context.Context, userID string, in CreateInvestmentInput) (*models.Investment, error)
	ListInvestments(ctx context.Context, userID string, filter repository.InvestmentFilter) (*pagination.ListResponse[models.Investment], error)
	GetInvestment(ctx context.Context, userID, investmentID string) (*models.Investment, error)
	UpdateInvestment(ctx context.Context, userID, investmentID string, update models.InvestmentUpdate) (*models.Investment, map[string]interface{}, error)
	DeleteInvestment(ctx context.Context, userID, investmentID string) error
	RegenerateSchedule(ctx context.Context, userID, investmentID string) ([]models.PaymentEvent, error)
	ListPayments(ctx context.Context, userID, investmentID string, status *models.PaymentStatus) ([]models.PaymentEvent, error)
	UpdatePayment(ctx context.Context, userID, investmentID, paymentID string, update models.PaymentUpdate) (*models.PaymentEvent, map[string]interface{}, error)
	RefreshPaymentStatuses(ctx context.Context, graceDays int) (*StatusRefreshResult, error)
}

// FullPortfolio bundles the summary, the first page of investments, and the
// default upcoming payments window.
type FullPortfolio struct {
	Summary          portfolio.Summary           `json:"summary"`
	Investments      []models.Investment         `json:"investments"`
	UpcomingPayments []portfolio.UpcomingPayment `json:"upcoming_payments"`
}

// SummaryInvalidator drops cached portfolio summaries after writes.
type SummaryInvalidator interface {
	Invalidate(userID string)
	InvalidateAll()
}

// PortfolioServicer defines the contract for portfolio reporting.
type PortfolioServicer interface {
	SummaryInvalidator
	GetSummary(ctx context.Context, userID string) (*portfolio.Summary, error)
	GetUpcomingPayments(ctx context.Context, userID string, daysAhead, limit int) ([]portfolio.UpcomingPayment, error)
	GetFullPortfolio(ctx context.Context, userID string) (*FullPortfolio, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
