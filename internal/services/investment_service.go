package services

import (
	"context"

	"treasurytracker/internal/clock"
	"treasurytracker/internal/logger"
	"treasurytracker/internal/models"
	"treasurytracker/internal/pagination"
	"treasurytracker/internal/repository"
	"treasurytracker/internal/schedule"
	"treasurytracker/internal/validator"
)

// investmentService handles investment and payment schedule business logic.
type investmentService struct {
	repo      repository.InvestmentRepository
	clock     clock.Clock
	summaries SummaryInvalidator
}

// NewInvestmentService creates a new InvestmentServicer. Cached summaries
// are dropped through summaries whenever a write changes them.
func NewInvestmentService(repo repository.InvestmentRepository, clk clock.Clock, summaries SummaryInvalidator) InvestmentServicer {
	return &investmentService{repo: repo, clock: clk, summaries: summaries}
}

// CreateInvestment validates the investment, generates its payment schedule,
// and persists both in one transaction. Nothing is written if validation or
// generation fails.
func (s *investmentService) CreateInvestment(ctx context.Context, userID string, in CreateInvestmentInput) (*models.Investment, error) {
	inv := &models.Investment{
		UserID:           userID,
		Type:             in.Type,
		Description:      validator.SanitizeText(in.Description),
		FaceValue:        in.FaceValue,
		PurchasePrice:    in.PurchasePrice,
		AnnualCouponRate: in.AnnualCouponRate,
		PurchaseDate:     clock.DateOf(in.PurchaseDate),
		MaturityDate:     clock.DateOf(in.MaturityDate),
		Status:           in.Status,
	}
	if in.IssueDate != nil {
		issue := clock.DateOf(*in.IssueDate)
		inv.IssueDate = &issue
	}
	if inv.Status == "" {
		inv.Status = models.InvestmentStatusActive
	}

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	events, err := schedule.Generate(inv)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveInvestment(ctx, inv, events); err != nil {
		return nil, err
	}
	inv.Payments = events

	logger.Get().Debugw("payment schedule generated",
		"investment_id", inv.ID,
		"investment_type", inv.Type,
		"events", len(events),
	)
	s.summaries.Invalidate(userID)
	return inv, nil
}

// ListInvestments returns one window of the user's investments.
func (s *investmentService) ListInvestments(ctx context.Context, userID string, filter repository.InvestmentFilter) (*pagination.ListResponse[models.Investment], error) {
	filter.Window.Defaults()

	investments, total, err := s.repo.ListInvestments(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	result := pagination.NewListResponse(investments, filter.Window, total)
	return &result, nil
}

// GetInvestment returns the investment with its payment events in date order.
func (s *investmentService) GetInvestment(ctx context.Context, userID, investmentID string) (*models.Investment, error) {
	return s.repo.GetInvestment(ctx, userID, investmentID, true)
}

// UpdateInvestment merges the mutable fields of update into the investment.
// It returns the investment and the columns that changed.
func (s *investmentService) UpdateInvestment(ctx context.Context, userID, investmentID string, update models.InvestmentUpdate) (*models.Investment, map[string]interface{}, error) {
	inv, err := s.repo.GetInvestment(ctx, userID, investmentID, false)
	if err != nil {
		return nil, nil, err
	}

	if update.Description != nil {
		clean := validator.SanitizeText(*update.Description)
		update.Description = &clean
	}

	changes, err := update.Apply(inv)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.UpdateInvestment(ctx, inv, changes); err != nil {
		return nil, nil, err
	}

	if _, ok := changes["status"]; ok {
		s.summaries.Invalidate(userID)
	}
	return inv, changes, nil
}

// DeleteInvestment removes the investment and its whole schedule.
func (s *investmentService) DeleteInvestment(ctx context.Context, userID, investmentID string) error {
	inv, err := s.repo.GetInvestment(ctx, userID, investmentID, false)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteInvestment(ctx, inv); err != nil {
		return err
	}
	s.summaries.Invalidate(userID)
	return nil
}

// RegenerateSchedule discards the investment's payment events and replaces
// them with a freshly generated schedule. Running it twice leaves exactly the
// second schedule.
func (s *investmentService) RegenerateSchedule(ctx context.Context, userID, investmentID string) ([]models.PaymentEvent, error) {
	inv, err := s.repo.GetInvestment(ctx, userID, investmentID, false)
	if err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	events, err := schedule.Generate(inv)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplacePaymentSchedule(ctx, inv.ID, events); err != nil {
		return nil, err
	}

	logger.Get().Debugw("payment schedule regenerated", "investment_id", inv.ID, "events", len(events))
	s.summaries.Invalidate(userID)
	return events, nil
}

// ListPayments returns the investment's payment events in date order,
// optionally narrowed to one status.
func (s *investmentService) ListPayments(ctx context.Context, userID, investmentID string, status *models.PaymentStatus) ([]models.PaymentEvent, error) {
	if _, err := s.repo.GetInvestment(ctx, userID, investmentID, false); err != nil {
		return nil, err
	}

	var filter repository.PaymentFilter
	if status != nil {
		filter.Statuses = []models.PaymentStatus{*status}
	}
	return s.repo.ListPaymentEvents(ctx, []string{investmentID}, filter)
}

// UpdatePayment records status or realized payment details on one event.
func (s *investmentService) UpdatePayment(ctx context.Context, userID, investmentID, paymentID string, update models.PaymentUpdate) (*models.PaymentEvent, map[string]interface{}, error) {
	if _, err := s.repo.GetInvestment(ctx, userID, investmentID, false); err != nil {
		return nil, nil, err
	}

	p, err := s.repo.GetPaymentEvent(ctx, investmentID, paymentID)
	if err != nil {
		return nil, nil, err
	}

	changes, err := update.Apply(p)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.UpdatePaymentEvent(ctx, p, changes); err != nil {
		return nil, nil, err
	}

	s.summaries.Invalidate(userID)
	return p, changes, nil
}

// RefreshPaymentStatuses advances payment statuses for every user as of
// today: pending events dated today or earlier become due, and due events
// more than graceDays old become overdue.
func (s *investmentService) RefreshPaymentStatuses(ctx context.Context, graceDays int) (*StatusRefreshResult, error) {
	today := s.clock.Today()

	becameDue, err := s.repo.TransitionPaymentStatuses(ctx, models.PaymentStatusPending, models.PaymentStatusDue, today)
	if err != nil {
		return nil, err
	}

	overdueCutoff := clock.AddDays(today, -graceDays-1)
	overdue, err := s.repo.TransitionPaymentStatuses(ctx, models.PaymentStatusDue, models.PaymentStatusOverdue, overdueCutoff)
	if err != nil {
		return nil, err
	}

	if becameDue > 0 || overdue > 0 {
		s.summaries.InvalidateAll()
	}
	logger.Get().Infow("payment statuses refreshed",
		"as_of", today.Format("2006-01-02"),
		"became_due", becameDue,
		"became_overdue", overdue,
	)
	return &StatusRefreshResult{AsOf: today, BecameDue: becameDue, Overdue: overdue}, nil
}
