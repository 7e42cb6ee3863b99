package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"igudar/internal/models"
	"igudar/internal/services"
)

// BillingHandler handles saved payment methods and the billing address.
type BillingHandler struct {
	billingService services.BillingServicer
	auditService   services.AuditServicer
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingService services.BillingServicer, auditService services.AuditServicer) *BillingHandler {
	return &BillingHandler{billingService: billingService, auditService: auditService}
}

// AddPaymentMethodRequest carries display metadata only. Full card numbers
// are never accepted.
type AddPaymentMethodRequest struct {
	Type       models.PaymentMethodType `json:"type" binding:"required,payment_method_type"`
	Brand      string                   `json:"brand" binding:"max=32"`
	Last4      string                   `json:"last4" binding:"required,card_last4"`
	ExpMonth   int                      `json:"exp_month" binding:"omitempty,min=1,max=12"`
	ExpYear    int                      `json:"exp_year" binding:"omitempty,min=2000,max=2100"`
	HolderName string                   `json:"holder_name" binding:"required,max=100"`
}

// BillingAddressRequest is the full postal address.
type BillingAddressRequest struct {
	Line1      string `json:"line1" binding:"required,max=255"`
	Line2      string `json:"line2" binding:"max=255"`
	City       string `json:"city" binding:"required,max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Region     string `json:"region" binding:"max=100"`
	Country    string `json:"country" binding:"required,max=100"`
}

// GetPaymentMethods handles listing saved methods.
// @Summary     List payment methods
// @Tags        billing
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.PaymentMethod "Payment methods, default first"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /billing/payment-methods [get]
func (h *BillingHandler) GetPaymentMethods(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	methods, err := h.billingService.GetPaymentMethods(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, methods, "")
}

// AddPaymentMethod handles saving a method.
// @Summary     Add payment method
// @Tags        billing
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddPaymentMethodRequest true "Payment method"
// @Success     201 {object} models.PaymentMethod "Payment method saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /billing/payment-methods [post]
func (h *BillingHandler) AddPaymentMethod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	method, err := h.billingService.AddPaymentMethod(c.Request.Context(), userID, services.PaymentMethodInput{
		Type:       req.Type,
		Brand:      req.Brand,
		Last4:      req.Last4,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		HolderName: req.HolderName,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditAddPayment, "payment_method", method.ID, c.ClientIP(),
		map[string]interface{}{"type": string(method.Type), "last4": method.Last4})

	respondOK(c, http.StatusCreated, method, "Payment method added")
}

// SetDefaultPaymentMethod handles switching the default method.
// @Summary     Set default payment method
// @Tags        billing
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payment method ID"
// @Success     200 {object} models.PaymentMethod "New default"
// @Failure     404 {object} ErrorResponse "Payment method not found"
// @Router      /billing/payment-methods/{id}/default [put]
func (h *BillingHandler) SetDefaultPaymentMethod(c *gin.Context) {
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

	method, err := h.billingService.SetDefaultPaymentMethod(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditDefaultPayment, "payment_method", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, method, "Default payment method updated")
}

// RemovePaymentMethod handles deleting a method.
// @Summary     Remove payment method
// @Tags        billing
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payment method ID"
// @Success     200 {object} middleware.Envelope "Payment method removed"
// @Failure     404 {object} ErrorResponse "Payment method not found"
// @Router      /billing/payment-methods/{id} [delete]
func (h *BillingHandler) RemovePaymentMethod(c *gin.Context) {
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

	if err := h.billingService.RemovePaymentMethod(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditRemovePayment, "payment_method", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, nil, "Payment method removed")
}

// GetBillingAddress handles retrieving the billing address.
// @Summary     Get billing address
// @Tags        billing
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.BillingAddress "Billing address"
// @Failure     404 {object} ErrorResponse "No billing address on file"
// @Router      /billing/address [get]
func (h *BillingHandler) GetBillingAddress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	address, err := h.billingService.GetBillingAddress(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, address, "")
}

// UpdateBillingAddress handles creating or replacing the billing address.
// @Summary     Update billing address
// @Tags        billing
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BillingAddressRequest true "Billing address"
// @Success     200 {object} models.BillingAddress "Billing address saved"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /billing/address [put]
func (h *BillingHandler) UpdateBillingAddress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BillingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	address, err := h.billingService.UpdateBillingAddress(c.Request.Context(), userID, services.BillingAddressInput{
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		PostalCode: req.PostalCode,
		Region:     req.Region,
		Country:    req.Country,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, address, "Billing address saved")
}
