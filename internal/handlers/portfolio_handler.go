package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "treasurytracker/internal/errors"
	"treasurytracker/internal/portfolio"
	"treasurytracker/internal/services"
)

// PortfolioHandler handles portfolio reporting requests.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// UpcomingPaymentsQuery represents the query parameters for upcoming payments.
type UpcomingPaymentsQuery struct {
	DaysAhead *int `form:"days_ahead" binding:"omitempty,min=1,max=365"`
	Limit     *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// UpcomingPaymentsResponse wraps the upcoming payments list.
type UpcomingPaymentsResponse struct {
	Data      []portfolio.UpcomingPayment `json:"data"`
	DaysAhead int                         `json:"days_ahead"`
	Limit     int                         `json:"limit"`
}

// GetSummary handles the portfolio summary.
// @Summary     Portfolio summary
// @Description Aggregate totals, expected returns, and yield over active investments
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} portfolio.Summary "Portfolio summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio/summary [get]
func (h *PortfolioHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.portfolioService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetUpcomingPayments handles listing outstanding payments in a forward window.
// @Summary     Upcoming payments
// @Description Outstanding payments of investments of any status due within the window, soonest first
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       days_ahead query int false "Window length in days (default 90, max 365)"
// @Param       limit      query int false "Maximum entries (default 50, max 100)"
// @Success     200 {object} UpcomingPaymentsResponse "Upcoming payments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio/upcoming-payments [get]
func (h *PortfolioHandler) GetUpcomingPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q UpcomingPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	daysAhead, limit := portfolio.DefaultDaysAhead, portfolio.DefaultLimit
	if q.DaysAhead != nil {
		daysAhead = *q.DaysAhead
	}
	if q.Limit != nil {
		limit = *q.Limit
	}

	payments, err := h.portfolioService.GetUpcomingPayments(c.Request.Context(), userID, daysAhead, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, UpcomingPaymentsResponse{Data: payments, DaysAhead: daysAhead, Limit: limit})
}

// GetFullPortfolio handles the combined portfolio view.
// @Summary     Full portfolio
// @Description Summary, the first page of investments, and the default upcoming payments window
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.FullPortfolio "Full portfolio"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /portfolio/full [get]
func (h *PortfolioHandler) GetFullPortfolio(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	full, err := h.portfolioService.GetFullPortfolio(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, full)
}
