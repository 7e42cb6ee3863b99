package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/services"
)

// InvestmentHandler handles investment-related requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService, auditService: auditService}
}

// CreateInvestmentRequest represents the request payload for buying into a property.
type CreateInvestmentRequest struct {
	PropertyID       string  `json:"property_id" binding:"required,uuid"`
	InvestmentAmount int64   `json:"investment_amount" binding:"required,gt=0"`
	PaymentMethodID  *string `json:"payment_method_id" binding:"omitempty,uuid"`
}

// InvestmentQuery holds the list filters accepted on the query string.
type InvestmentQuery struct {
	Status     models.InvestmentStatus `form:"status" binding:"omitempty,investment_status"`
	PropertyID string                  `form:"property_id" binding:"omitempty,uuid"`
}

// CreateInvestment handles placing a pending investment.
// @Summary     Create investment
// @Description Reserve shares in an open property; the investment stays pending until settlement confirms it
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateInvestmentRequest true "Investment details"
// @Success     201 {object} models.Investment "Investment created"
// @Failure     400 {object} ErrorResponse "Invalid input or property rules violated"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Property or payment method not found"
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
		respondWithError(c, bindError(err))
		return
	}

	investment, err := h.investmentService.CreateInvestment(c.Request.Context(), userID, services.CreateInvestmentInput{
		PropertyID:       req.PropertyID,
		InvestmentAmount: req.InvestmentAmount,
		PaymentMethodID:  req.PaymentMethodID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditCreateInvestment, "investment", investment.ID, c.ClientIP(),
		map[string]interface{}{
			"property_id":       investment.PropertyID,
			"investment_amount": investment.InvestmentAmount,
			"shares_purchased":  investment.SharesPurchased,
		})

	respondOK(c, http.StatusCreated, investment, "Investment created")
}

// GetInvestments handles listing the caller's investments.
// @Summary     List investments
// @Description Get a paginated list of the caller's investments, newest first
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       status      query string false "Status filter"
// @Param       property_id query string false "Property filter"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Investment] "Paginated investments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /investments [get]
func (h *InvestmentHandler) GetInvestments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q InvestmentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := services.InvestmentFilter{PropertyID: q.PropertyID}
	if q.Status != "" {
		status := q.Status
		filter.Status = &status
	}

	result, err := h.investmentService.GetUserInvestments(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result, "")
}

// GetInvestment handles retrieving a specific investment.
// @Summary     Get investment by ID
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} models.Investment "Investment details"
// @Failure     400 {object} ErrorResponse "Invalid investment ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id} [get]
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.GetInvestmentByID(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, investment, "")
}

// CancelInvestment handles cancelling a pending investment.
// @Summary     Cancel investment
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} models.Investment "Investment cancelled"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     409 {object} ErrorResponse "Investment is not pending"
// @Router      /investments/{id}/cancel [post]
func (h *InvestmentHandler) CancelInvestment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.CancelInvestment(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditCancelInvestment, "investment", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, investment, "Investment cancelled")
}

// ConfirmInvestment settles a pending investment and updates the property
// aggregates.
// @Summary     Confirm investment
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Param       id        path   string true "Investment ID"
// @Success     200 {object} models.Investment "Investment confirmed"
// @Failure     400 {object} ErrorResponse "Property rules violated"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     409 {object} ErrorResponse "Investment is not pending"
// @Router      /pipeline/investments/{id}/confirm [post]
func (h *InvestmentHandler) ConfirmInvestment(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.ConfirmInvestment(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), investment.UserID, services.AuditConfirmInvestment, "investment", id, c.ClientIP(),
		map[string]interface{}{"property_id": investment.PropertyID, "investment_amount": investment.InvestmentAmount})

	respondOK(c, http.StatusOK, investment, "Investment confirmed")
}

// RefundInvestment reverses a confirmed investment.
// @Summary     Refund investment
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header string true "Pipeline API key"
// @Param       id        path   string true "Investment ID"
// @Success     200 {object} models.Investment "Investment refunded"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     409 {object} ErrorResponse "Investment is not confirmed"
// @Router      /pipeline/investments/{id}/refund [post]
func (h *InvestmentHandler) RefundInvestment(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.RefundInvestment(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), investment.UserID, services.AuditRefundInvestment, "investment", id, c.ClientIP(),
		map[string]interface{}{"property_id": investment.PropertyID, "investment_amount": investment.InvestmentAmount})

	respondOK(c, http.StatusOK, investment, "Investment refunded")
}
