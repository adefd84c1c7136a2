package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "treasurytracker/internal/errors"
	"treasurytracker/internal/portfolio"
	"treasurytracker/internal/services"
)

type mockPortfolioService struct {
	getSummaryFn          func(ctx context.Context, userID string) (*portfolio.Summary, error)
	getUpcomingPaymentsFn func(ctx context.Context, userID string, daysAhead, limit int) ([]portfolio.UpcomingPayment, error)
	getFullPortfolioFn    func(ctx context.Context, userID string) (*services.FullPortfolio, error)
}

var _ services.PortfolioServicer = (*mockPortfolioService)(nil)

func (m *mockPortfolioService) Invalidate(string) {}

func (m *mockPortfolioService) InvalidateAll() {}

func (m *mockPortfolioService) GetSummary(ctx context.Context, userID string) (*portfolio.Summary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(ctx, userID)
	}
	return &portfolio.Summary{}, nil
}

func (m *mockPortfolioService) GetUpcomingPayments(ctx context.Context, userID string, daysAhead, limit int) ([]portfolio.UpcomingPayment, error) {
	if m.getUpcomingPaymentsFn != nil {
		return m.getUpcomingPaymentsFn(ctx, userID, daysAhead, limit)
	}
	return []portfolio.UpcomingPayment{}, nil
}

func (m *mockPortfolioService) GetFullPortfolio(ctx context.Context, userID string) (*services.FullPortfolio, error) {
	if m.getFullPortfolioFn != nil {
		return m.getFullPortfolioFn(ctx, userID)
	}
	return &services.FullPortfolio{}, nil
}

func setupPortfolioRouter(handler *PortfolioHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/portfolio", injectUserID(testUserID))
	g.GET("/summary", handler.GetSummary)
	g.GET("/upcoming-payments", handler.GetUpcomingPayments)
	g.GET("/full", handler.GetFullPortfolio)
	return r
}

func TestPortfolioHandler_GetSummary(t *testing.T) {
	t.Run("returns the summary", func(t *testing.T) {
		svc := &mockPortfolioService{
			getSummaryFn: func(_ context.Context, userID string) (*portfolio.Summary, error) {
				if userID != testUserID {
					t.Errorf("unexpected user %s", userID)
				}
				return &portfolio.Summary{
					TotalInvestments:  2,
					ActiveInvestments: 2,
					TotalFaceValue:    decimal.RequireFromString("110000"),
					PortfolioYield:    decimal.RequireFromString("6.25"),
				}, nil
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc))

		rec := doRequest(r, "GET", "/portfolio/summary", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["total_investments"] != result["active_investments"] {
			t.Errorf("expected total to equal active, got %v and %v", result["total_investments"], result["active_investments"])
		}
		if result["portfolio_yield"] != "6.25" {
			t.Errorf("expected yield 6.25, got %v", result["portfolio_yield"])
		}
	})

	t.Run("maps service errors", func(t *testing.T) {
		svc := &mockPortfolioService{
			getSummaryFn: func(context.Context, string) (*portfolio.Summary, error) {
				return nil, apperrors.ErrInternalServer
			},
		}
		r := setupPortfolioRouter(NewPortfolioHandler(svc))

		rec := doRequest(r, "GET", "/portfolio/summary", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestPortfolioHandler_GetUpcomingPayments(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantDays  int
		wantLimit int
	}{
		{"defaults", "", http.StatusOK, portfolio.DefaultDaysAhead, portfolio.DefaultLimit},
		{"explicit bounds", "?days_ahead=30&limit=5", http.StatusOK, 30, 5},
		{"maximum bounds", "?days_ahead=365&limit=100", http.StatusOK, 365, 100},
		{"days ahead too large", "?days_ahead=366", http.StatusBadRequest, 0, 0},
		{"days ahead zero", "?days_ahead=0", http.StatusBadRequest, 0, 0},
		{"limit too large", "?limit=101", http.StatusBadRequest, 0, 0},
		{"limit not a number", "?limit=ten", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotDays, gotLimit int
			svc := &mockPortfolioService{
				getUpcomingPaymentsFn: func(_ context.Context, _ string, daysAhead, limit int) ([]portfolio.UpcomingPayment, error) {
					gotDays, gotLimit = daysAhead, limit
					return []portfolio.UpcomingPayment{}, nil
				},
			}
			r := setupPortfolioRouter(NewPortfolioHandler(svc))

			rec := doRequest(r, "GET", "/portfolio/upcoming-payments"+tt.query, "")

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
				return
			}
			if gotDays != tt.wantDays || gotLimit != tt.wantLimit {
				t.Errorf("expected (%d, %d), got (%d, %d)", tt.wantDays, tt.wantLimit, gotDays, gotLimit)
			}
		})
	}
}

func TestPortfolioHandler_GetFullPortfolio(t *testing.T) {
	svc := &mockPortfolioService{
		getFullPortfolioFn: func(context.Context, string) (*services.FullPortfolio, error) {
			return &services.FullPortfolio{
				Summary: portfolio.Summary{TotalInvestments: 1, ActiveInvestments: 1},
			}, nil
		},
	}
	r := setupPortfolioRouter(NewPortfolioHandler(svc))

	rec := doRequest(r, "GET", "/portfolio/full", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	for _, key := range []string{"summary", "investments", "upcoming_payments"} {
		if _, ok := result[key]; !ok {
			t.Errorf("expected key %q in response", key)
		}
	}
}
