package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "treasurytracker/internal/errors"
	"treasurytracker/internal/export"
	"treasurytracker/internal/logger"
	"treasurytracker/internal/models"
	"treasurytracker/internal/pagination"
	"treasurytracker/internal/repository"
	"treasurytracker/internal/services"
)

// InvestmentHandler handles investment and payment schedule requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService, auditService: auditService}
}

// CreateInvestmentRequest represents the request payload for recording a purchase.
type CreateInvestmentRequest struct {
	Type             models.InvestmentType   `json:"investment_type" binding:"required,investment_type"`
	Description      string                  `json:"description" binding:"max=500"`
	FaceValue        *decimal.Decimal        `json:"face_value" binding:"required" swaggertype:"string" example:"100000.00"`
	PurchasePrice    *decimal.Decimal        `json:"purchase_price" binding:"required" swaggertype:"string" example:"98500.00"`
	AnnualCouponRate *decimal.Decimal        `json:"annual_coupon_rate" binding:"required" swaggertype:"string" example:"0.0625"`
	IssueDate        *string                 `json:"issue_date" binding:"omitempty,datetime=2006-01-02" example:"2024-01-15"`
	PurchaseDate     string                  `json:"purchase_date" binding:"required,datetime=2006-01-02" example:"2024-01-15"`
	MaturityDate     string                  `json:"maturity_date" binding:"required,datetime=2006-01-02" example:"2026-01-15"`
	Status           models.InvestmentStatus `json:"status" binding:"omitempty,investment_status"`
}

// toInput converts the request into service input.
func (r CreateInvestmentRequest) toInput() (services.CreateInvestmentInput, error) {
	in := services.CreateInvestmentInput{
		Type:             r.Type,
		Description:      r.Description,
		FaceValue:        *r.FaceValue,
		PurchasePrice:    *r.PurchasePrice,
		AnnualCouponRate: *r.AnnualCouponRate,
		Status:           r.Status,
	}

	var err error
	if in.PurchaseDate, err = parseDate("purchase_date", r.PurchaseDate); err != nil {
		return in, err
	}
	if in.MaturityDate, err = parseDate("maturity_date", r.MaturityDate); err != nil {
		return in, err
	}
	if r.IssueDate != nil {
		issue, err := parseDate("issue_date", *r.IssueDate)
		if err != nil {
			return in, err
		}
		in.IssueDate = &issue
	}
	return in, nil
}

// ListInvestmentsQuery represents the query parameters for listing investments.
type ListInvestmentsQuery struct {
	pagination.Window
	Status       *models.InvestmentStatus `form:"status" binding:"omitempty,investment_status"`
	Type         *models.InvestmentType   `form:"investment_type" binding:"omitempty,investment_type"`
	WithPayments bool                     `form:"with_payments"`
}

// UpdateInvestmentRequest represents the request payload for updating an
// investment. Only descriptive and lifecycle fields may change.
type UpdateInvestmentRequest struct {
	Description *string                  `json:"description" binding:"omitempty,max=500"`
	Status      *models.InvestmentStatus `json:"status" binding:"omitempty,investment_status"`
}

// ListPaymentsQuery represents the query parameters for listing payment events.
type ListPaymentsQuery struct {
	Status *models.PaymentStatus `form:"status" binding:"omitempty,payment_status"`
}

// UpdatePaymentRequest represents the request payload for recording the
// realization of a payment event.
type UpdatePaymentRequest struct {
	PaymentStatus       *models.PaymentStatus `json:"payment_status" binding:"omitempty,payment_status"`
	ActualPaymentDate   *string               `json:"actual_payment_date" binding:"omitempty,datetime=2006-01-02" example:"2024-07-15"`
	ActualPaymentAmount *decimal.Decimal      `json:"actual_payment_amount" swaggertype:"string" example:"5000.00"`
}

func (r UpdatePaymentRequest) toUpdate() (models.PaymentUpdate, error) {
	update := models.PaymentUpdate{
		Status:              r.PaymentStatus,
		ActualPaymentAmount: r.ActualPaymentAmount,
	}
	if r.ActualPaymentDate != nil {
		d, err := parseDate("actual_payment_date", *r.ActualPaymentDate)
		if err != nil {
			return update, err
		}
		update.ActualPaymentDate = &d
	}
	return update, nil
}

// PaymentListResponse wraps an investment's payment events.
type PaymentListResponse struct {
	Data  []models.PaymentEvent `json:"data"`
	Total int                   `json:"total"`
}

// CreateInvestment handles recording a purchased note or bill and generating
// its payment schedule.
// @Summary     Create investment
// @Description Record a treasury note or bill and generate its payment schedule
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInvestmentRequest true "Investment details"
// @Success     201 {object} models.Investment "Investment created with schedule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Investment failed validation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments [post]
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.CreateInvestment(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, services.AuditResourceInvestment, investment.ID, c.ClientIP(),
		map[string]interface{}{
			"investment_type": string(investment.Type),
			"face_value":      investment.FaceValue.String(),
			"maturity_date":   investment.MaturityDate.Format(dateLayout),
			"payments":        len(investment.Payments),
		})

	c.JSON(http.StatusCreated, gin.H{"investment": investment})
}

// ListInvestments handles listing the user's investments.
// @Summary     List investments
// @Description Get the user's investments, newest first
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       skip            query int    false "Records to skip"
// @Param       limit           query int    false "Records to return (default 100, max 1000)"
// @Param       status          query string false "Filter by status"
// @Param       investment_type query string false "Filter by investment type"
// @Param       with_payments   query bool   false "Include payment schedules"
// @Success     200 {object} pagination.ListResponse[models.Investment] "Investments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments [get]
func (h *InvestmentHandler) ListInvestments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListInvestmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.investmentService.ListInvestments(c.Request.Context(), userID, repository.InvestmentFilter{
		Status:       q.Status,
		Type:         q.Type,
		Window:       q.Window,
		WithPayments: q.WithPayments,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInvestment handles fetching one investment with its schedule.
// @Summary     Get investment
// @Description Get an investment with its payment schedule in date order
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} models.Investment "Investment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id} [get]
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.GetInvestment(c.Request.Context(), userID, investmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"investment": investment})
}

// UpdateInvestment handles partial updates to an investment.
// @Summary     Update investment
// @Description Update an investment's description or status. The schedule is not regenerated.
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Investment ID"
// @Param       request body UpdateInvestmentRequest true "Fields to update"
// @Success     200 {object} models.Investment "Investment updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id} [put]
func (h *InvestmentHandler) UpdateInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	investment, changes, err := h.investmentService.UpdateInvestment(c.Request.Context(), userID, investmentID,
		models.InvestmentUpdate{Description: req.Description, Status: req.Status})
	if err != nil {
		respondWithError(c, err)
		return
	}

	if len(changes) > 0 {
		h.auditService.Log(userID, services.AuditActionUpdate, services.AuditResourceInvestment, investmentID, c.ClientIP(), changes)
	}

	c.JSON(http.StatusOK, gin.H{"investment": investment})
}

// DeleteInvestment handles deleting an investment and its schedule.
// @Summary     Delete investment
// @Description Delete an investment together with its payment events
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} MessageResponse "Investment deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id} [delete]
func (h *InvestmentHandler) DeleteInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.investmentService.DeleteInvestment(c.Request.Context(), userID, investmentID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, services.AuditResourceInvestment, investmentID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Investment deleted successfully"})
}

// RegenerateSchedule handles rebuilding an investment's payment schedule.
// @Summary     Regenerate payment schedule
// @Description Discard and regenerate the payment schedule. Recorded payment statuses are reset.
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} PaymentListResponse "Regenerated schedule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     422 {object} ErrorResponse "Investment failed validation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id}/regenerate-schedule [post]
func (h *InvestmentHandler) RegenerateSchedule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	events, err := h.investmentService.RegenerateSchedule(c.Request.Context(), userID, investmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionRegenerate, services.AuditResourceInvestment, investmentID, c.ClientIP(),
		map[string]interface{}{"payments": len(events)})

	c.JSON(http.StatusOK, PaymentListResponse{Data: events, Total: len(events)})
}

// ListPayments handles listing an investment's payment events.
// @Summary     List payments
// @Description Get an investment's payment events in date order
// @Tags        payments
// @Produce     json
// @Security    BearerAuth
// @Param       id     path  string true  "Investment ID"
// @Param       status query string false "Filter by payment status"
// @Success     200 {object} PaymentListResponse "Payment events"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id}/payments [get]
func (h *InvestmentHandler) ListPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	events, err := h.investmentService.ListPayments(c.Request.Context(), userID, investmentID, q.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaymentListResponse{Data: events, Total: len(events)})
}

// UpdatePayment handles recording the realization of a payment event.
// @Summary     Update payment
// @Description Record a payment's status, actual date, or actual amount
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id         path string               true "Investment ID"
// @Param       payment_id path string               true "Payment ID"
// @Param       request    body UpdatePaymentRequest true "Fields to update"
// @Success     200 {object} models.PaymentEvent "Payment updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     422 {object} ErrorResponse "Payment failed validation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id}/payments/{payment_id} [put]
func (h *InvestmentHandler) UpdatePayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	paymentID, err := parsePathID(c, "payment_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, changes, err := h.investmentService.UpdatePayment(c.Request.Context(), userID, investmentID, paymentID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if len(changes) > 0 {
		h.auditService.Log(userID, services.AuditActionUpdate, services.AuditResourcePayment, paymentID, c.ClientIP(), changes)
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// ExportPayments handles downloading an investment's schedule as a spreadsheet.
// @Summary     Export payment schedule
// @Description Download an investment's payment schedule as an XLSX workbook
// @Tags        payments
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {file} file "Schedule workbook"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/{id}/payments/export [get]
func (h *InvestmentHandler) ExportPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	investmentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.GetInvestment(c.Request.Context(), userID, investmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(investment)))
	c.Status(http.StatusOK)
	if err := export.WriteSchedule(c.Writer, investment, investment.Payments); err != nil {
		// Headers are already on the wire; log and abandon the body.
		logger.Get().Errorw("failed to write schedule export",
			"investment_id", investmentID,
			"error", err,
		)
	}
}
