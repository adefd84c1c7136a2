package services

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"treasurytracker/internal/clock"
	"treasurytracker/internal/currency"
	"treasurytracker/internal/models"
	"treasurytracker/internal/pagination"
	"treasurytracker/internal/portfolio"
	"treasurytracker/internal/repository"
)

// portfolioService handles portfolio reporting. Summaries are cached per
// user until a write invalidates them or the TTL passes.
//
// Every invalidation bumps a generation (per user, or the epoch for all
// users). GetSummary only caches a result when no invalidation happened while
// it was reading, so a write that lands mid-read is never hidden.
type portfolioService struct {
	repo         repository.InvestmentRepository
	clock        clock.Clock
	currencyCode string
	summaries    *cache.Cache

	mu          sync.Mutex
	generations map[string]uint64
	epoch       uint64
}

// NewPortfolioService creates a new PortfolioServicer. A non-positive
// cacheTTL disables summary caching.
func NewPortfolioService(repo repository.InvestmentRepository, clk clock.Clock, currencyCode string, cacheTTL time.Duration) PortfolioServicer {
	s := &portfolioService{
		repo:         repo,
		clock:        clk,
		currencyCode: currencyCode,
		generations:  make(map[string]uint64),
	}
	if cacheTTL > 0 {
		s.summaries = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

func summaryKey(userID string) string {
	return "summary:" + userID
}

// Invalidate drops the user's cached summary.
func (s *portfolioService) Invalidate(userID string) {
	if s.summaries == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	s.summaries.Delete(summaryKey(userID))
}

// InvalidateAll drops every cached summary.
func (s *portfolioService) InvalidateAll() {
	if s.summaries == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.summaries.Flush()
}

// generation returns the user's cache generation and the global epoch.
func (s *portfolioService) generation(userID string) (uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID], s.epoch
}

// storeSummary caches summary unless the user was invalidated after gen and
// epoch were taken.
func (s *portfolioService) storeSummary(userID string, gen, epoch uint64, summary portfolio.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen || s.epoch != epoch {
		return
	}
	s.summaries.SetDefault(summaryKey(userID), summary)
}

// GetSummary aggregates the user's active investments.
func (s *portfolioService) GetSummary(ctx context.Context, userID string) (*portfolio.Summary, error) {
	var gen, epoch uint64
	if s.summaries != nil {
		if v, ok := s.summaries.Get(summaryKey(userID)); ok {
			summary := v.(portfolio.Summary)
			return &summary, nil
		}
		gen, epoch = s.generation(userID)
	}

	active := models.InvestmentStatusActive
	investments, _, err := s.repo.ListInvestments(ctx, userID, repository.InvestmentFilter{
		Status:       &active,
		WithPayments: true,
	})
	if err != nil {
		return nil, err
	}

	summary := portfolio.Summarize(investments)
	if s.summaries != nil {
		s.storeSummary(userID, gen, epoch, summary)
	}
	return &summary, nil
}

// GetUpcomingPayments returns outstanding payments across all of the user's
// investments due within daysAhead days of today, soonest first.
func (s *portfolioService) GetUpcomingPayments(ctx context.Context, userID string, daysAhead, limit int) ([]portfolio.UpcomingPayment, error) {
	if daysAhead < 0 || limit <= 0 {
		return []portfolio.UpcomingPayment{}, nil
	}

	investments, _, err := s.repo.ListInvestments(ctx, userID, repository.InvestmentFilter{})
	if err != nil {
		return nil, err
	}
	if len(investments) == 0 {
		return []portfolio.UpcomingPayment{}, nil
	}

	ids := make([]string, len(investments))
	for i := range investments {
		ids[i] = investments[i].ID
	}

	today := s.clock.Today()
	until := clock.AddDays(today, daysAhead)
	events, err := s.repo.ListPaymentEvents(ctx, ids, repository.PaymentFilter{
		Statuses: models.OutstandingPaymentStatuses,
		From:     &today,
		To:       &until,
	})
	if err != nil {
		return nil, err
	}

	byInvestment := make(map[string][]models.PaymentEvent, len(investments))
	for _, e := range events {
		byInvestment[e.InvestmentID] = append(byInvestment[e.InvestmentID], e)
	}
	for i := range investments {
		investments[i].Payments = byInvestment[investments[i].ID]
	}

	upcoming := portfolio.Upcoming(investments, today, daysAhead, limit)
	for i := range upcoming {
		upcoming[i].FormattedAmount = currency.Format(upcoming[i].PaymentAmount, s.currencyCode)
	}
	return upcoming, nil
}

// GetFullPortfolio returns the summary, the first window of investments,
// and upcoming payments over the default window.
func (s *portfolioService) GetFullPortfolio(ctx context.Context, userID string) (*FullPortfolio, error) {
	summary, err := s.GetSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	window := pagination.Window{}
	window.Defaults()
	investments, _, err := s.repo.ListInvestments(ctx, userID, repository.InvestmentFilter{Window: window})
	if err != nil {
		return nil, err
	}
	if investments == nil {
		investments = []models.Investment{}
	}

	upcoming, err := s.GetUpcomingPayments(ctx, userID, portfolio.DefaultDaysAhead, portfolio.DefaultLimit)
	if err != nil {
		return nil, err
	}

	return &FullPortfolio{
		Summary:          *summary,
		Investments:      investments,
		UpcomingPayments: upcoming,
	}, nil
}
