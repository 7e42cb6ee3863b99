package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/services"
)

// PropertyHandler handles property listing requests.
type PropertyHandler struct {
	propertyService   services.PropertyServicer
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(propertyService services.PropertyServicer, investmentService services.InvestmentServicer, auditService services.AuditServicer) *PropertyHandler {
	return &PropertyHandler{
		propertyService:   propertyService,
		investmentService: investmentService,
		auditService:      auditService,
	}
}

// PropertyQuery holds the list filters accepted on the query string.
type PropertyQuery struct {
	Status       models.PropertyStatus `form:"status" binding:"omitempty,property_status"`
	PropertyType models.PropertyType   `form:"property_type" binding:"omitempty,property_type"`
	City         string                `form:"city" binding:"max=100"`
	MinPrice     *int64                `form:"min_price" binding:"omitempty,gte=0"`
	MaxPrice     *int64                `form:"max_price" binding:"omitempty,gte=0"`
	MinROI       *float64              `form:"min_roi"`
	Search       string                `form:"search" binding:"max=200"`
}

func (q PropertyQuery) filter() services.PropertyFilter {
	f := services.PropertyFilter{
		City:     q.City,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		MinROI:   q.MinROI,
		Search:   q.Search,
	}
	if q.Status != "" {
		status := q.Status
		f.Status = &status
	}
	if q.PropertyType != "" {
		pt := q.PropertyType
		f.PropertyType = &pt
	}
	return f
}

// CreatePropertyRequest represents the request payload for a new listing.
type CreatePropertyRequest struct {
	Title            string                `json:"title" binding:"required,max=200"`
	Description      string                `json:"description"`
	Location         string                `json:"location" binding:"max=255"`
	City             string                `json:"city" binding:"required,max=100"`
	PropertyType     models.PropertyType   `json:"property_type" binding:"required,property_type"`
	Status           models.PropertyStatus `json:"status" binding:"omitempty,property_status"`
	Price            int64                 `json:"price" binding:"required"`
	TargetAmount     int64                 `json:"target_amount" binding:"required"`
	MinInvestment    int64                 `json:"min_investment"`
	ExpectedROI      float64               `json:"expected_roi"`
	RentalYield      float64               `json:"rental_yield"`
	InvestmentPeriod int                   `json:"investment_period"`
	SharesTotal      int64                 `json:"shares_total" binding:"required"`
	FundingDeadline  *time.Time            `json:"funding_deadline"`
	Images           []string              `json:"images"`
	Amenities        []string              `json:"amenities"`
}

// UpdatePropertyRequest represents a partial update. Omitted fields are kept.
type UpdatePropertyRequest struct {
	Title            *string                `json:"title" binding:"omitempty,max=200"`
	Description      *string                `json:"description"`
	Location         *string                `json:"location" binding:"omitempty,max=255"`
	City             *string                `json:"city" binding:"omitempty,max=100"`
	PropertyType     *models.PropertyType   `json:"property_type" binding:"omitempty,property_type"`
	Status           *models.PropertyStatus `json:"status" binding:"omitempty,property_status"`
	TargetAmount     *int64                 `json:"target_amount"`
	MinInvestment    *int64                 `json:"min_investment"`
	ExpectedROI      *float64               `json:"expected_roi"`
	RentalYield      *float64               `json:"rental_yield"`
	InvestmentPeriod *int                   `json:"investment_period"`
	FundingDeadline  *time.Time             `json:"funding_deadline"`
	Images           []string               `json:"images"`
	Amenities        []string               `json:"amenities"`
}

// OwnershipResponse is the caller's share of one property.
type OwnershipResponse struct {
	PropertyID          string  `json:"property_id"`
	OwnershipPercentage float64 `json:"ownership_percentage"`
}

// GetProperties handles listing properties.
// @Summary     List properties
// @Description Get a filtered, sorted and paginated list of properties
// @Tags        properties
// @Produce     json
// @Param       status        query string false "Status filter"
// @Param       property_type query string false "Property type filter"
// @Param       city          query string false "City filter (case-insensitive)"
// @Param       min_price     query int    false "Minimum price (minor units)"
// @Param       max_price     query int    false "Maximum price (minor units)"
// @Param       min_roi       query number false "Minimum expected ROI"
// @Param       search        query string false "Title, description or location search"
// @Param       sort_by       query string false "created_at, price, expected_roi, total_raised or funding_deadline"
// @Param       sort_order    query string false "asc or desc (default desc)"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Property] "Paginated properties"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     503 {object} ErrorResponse "Backend unavailable"
// @Router      /properties [get]
func (h *PropertyHandler) GetProperties(c *gin.Context) {
	var q PropertyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	var sort pagination.SortRequest
	if err := c.ShouldBindQuery(&sort); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.propertyService.GetProperties(c.Request.Context(), q.filter(), page, sort)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result, "")
}

// GetProperty handles retrieving a single property.
// @Summary     Get property by ID
// @Tags        properties
// @Produce     json
// @Param       id path string true "Property ID"
// @Success     200 {object} models.Property "Property details"
// @Failure     400 {object} ErrorResponse "Invalid property ID"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Router      /properties/{id} [get]
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	property, err := h.propertyService.GetPropertyByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, property, "")
}

// CreateProperty handles creating a listing.
// @Summary     Create property
// @Description Create a listing owned by the calling issuer
// @Tags        properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePropertyRequest true "Property details"
// @Success     201 {object} models.Property "Property created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /properties [post]
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), actor, services.PropertyInput{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		City:             req.City,
		PropertyType:     req.PropertyType,
		Status:           req.Status,
		Price:            req.Price,
		TargetAmount:     req.TargetAmount,
		MinInvestment:    req.MinInvestment,
		ExpectedROI:      req.ExpectedROI,
		RentalYield:      req.RentalYield,
		InvestmentPeriod: req.InvestmentPeriod,
		SharesTotal:      req.SharesTotal,
		FundingDeadline:  req.FundingDeadline,
		Images:           req.Images,
		Amenities:        req.Amenities,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), actor.UserID, services.AuditCreateProperty, "property", property.ID, c.ClientIP(),
		map[string]interface{}{"title": property.Title, "target_amount": property.TargetAmount})

	respondOK(c, http.StatusCreated, property, "Property created")
}

// UpdateProperty handles a partial update of a listing.
// @Summary     Update property
// @Tags        properties
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Property ID"
// @Param       request body UpdatePropertyRequest true "Fields to change"
// @Success     200 {object} models.Property "Property updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Failure     409 {object} ErrorResponse "Status change not allowed"
// @Failure     422 {object} ErrorResponse "Validation failed"
// @Router      /properties/{id} [put]
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), actor, id, services.PropertyPatch{
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		City:             req.City,
		PropertyType:     req.PropertyType,
		Status:           req.Status,
		TargetAmount:     req.TargetAmount,
		MinInvestment:    req.MinInvestment,
		ExpectedROI:      req.ExpectedROI,
		RentalYield:      req.RentalYield,
		InvestmentPeriod: req.InvestmentPeriod,
		FundingDeadline:  req.FundingDeadline,
		Images:           req.Images,
		Amenities:        req.Amenities,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), actor.UserID, services.AuditUpdateProperty, "property", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, property, "Property updated")
}

// DeleteProperty handles soft-deleting a listing.
// @Summary     Delete property
// @Tags        properties
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Property ID"
// @Success     200 {object} middleware.Envelope "Property deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Failure     409 {object} ErrorResponse "Property has investments"
// @Router      /properties/{id} [delete]
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.propertyService.DeleteProperty(c.Request.Context(), actor, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), actor.UserID, services.AuditDeleteProperty, "property", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, nil, "Property deleted")
}

// GetOwnership reports the caller's share of a property.
// @Summary     Get ownership percentage
// @Tags        properties
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Property ID"
// @Success     200 {object} OwnershipResponse "Ownership"
// @Failure     404 {object} ErrorResponse "Property not found"
// @Router      /properties/{id}/ownership [get]
func (h *PropertyHandler) GetOwnership(c *gin.Context) {
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

	pct, err := h.investmentService.GetOwnershipPercentage(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, OwnershipResponse{PropertyID: id, OwnershipPercentage: pct}, "")
}
