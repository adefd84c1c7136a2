package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"treasurytracker/internal/services"
)

// PipelineHandler serves endpoints called by scheduled jobs rather than users.
type PipelineHandler struct {
	investmentService services.InvestmentServicer
	graceDays         int
}

// NewPipelineHandler creates a new PipelineHandler. graceDays is how long a
// due payment may stay unrecorded before it is marked overdue.
func NewPipelineHandler(investmentService services.InvestmentServicer, graceDays int) *PipelineHandler {
	return &PipelineHandler{investmentService: investmentService, graceDays: graceDays}
}

// RefreshStatuses advances payment statuses by date.
// @Summary     Refresh payment statuses
// @Description Move pending payments to due on their date, and due payments to overdue after the grace period
// @Tags        pipeline
// @Produce     json
// @Security    PipelineAPIKey
// @Success     200 {object} services.StatusRefreshResult "Transition counts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /pipeline/payments/refresh-statuses [post]
func (h *PipelineHandler) RefreshStatuses(c *gin.Context) {
	result, err := h.investmentService.RefreshPaymentStatuses(c.Request.Context(), h.graceDays)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
