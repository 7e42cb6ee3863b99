package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "igudar/internal/errors"
	"igudar/internal/models"
	"igudar/internal/pagination"
)

const (
	minTitleLength = 5
	maxTitleLength = 200
)

// propertySortColumns are the columns a listing may be ordered by.
var propertySortColumns = []string{"created_at", "price", "expected_roi", "total_raised", "funding_deadline"}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// propertyService handles property listings.
type propertyService struct {
	db *gorm.DB
}

// NewPropertyService creates a new PropertyServicer.
func NewPropertyService(db *gorm.DB) PropertyServicer {
	return &propertyService{db: db}
}

// GetProperties returns a filtered, sorted page of properties.
func (s *propertyService) GetProperties(ctx context.Context, filter PropertyFilter, page pagination.PageRequest, sort pagination.SortRequest) (*pagination.PageResponse[models.Property], error) {
	page.Defaults()

	db := s.db.WithContext(ctx)

	var totalItems int64
	if err := s.applyFilter(db.Model(&models.Property{}), filter).Count(&totalItems).Error; err != nil {
		return nil, dbError(err, nil)
	}

	var properties []models.Property
	if err := s.applyFilter(db, filter).
		Scopes(pagination.Order(sort, propertySortColumns, "created_at"), pagination.Paginate(page)).
		Find(&properties).Error; err != nil {
		return nil, dbError(err, nil)
	}

	result := pagination.NewPageResponse(properties, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func (s *propertyService) applyFilter(query *gorm.DB, filter PropertyFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PropertyType != nil {
		query = query.Where("property_type = ?", *filter.PropertyType)
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(filter.City))
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinROI != nil {
		query = query.Where("expected_roi >= ?", *filter.MinROI)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(location) LIKE ? ESCAPE '\'`, like, like)
	}
	return query
}

// GetPropertyByID retrieves a single property.
func (s *propertyService) GetPropertyByID(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, dbError(err, apperrors.ErrPropertyNotFound)
	}
	return &property, nil
}

// CreateProperty lists a new property owned by the acting issuer.
func (s *propertyService) CreateProperty(ctx context.Context, actor Actor, input PropertyInput) (*models.Property, error) {
	if !actor.Role.CanManageProperties() {
		return nil, apperrors.ErrForbidden
	}

	status := input.Status
	if status == "" {
		status = models.PropertyStatusDraft
	}

	property := &models.Property{
		IssuerID:         actor.UserID,
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		Location:         input.Location,
		City:             input.City,
		PropertyType:     input.PropertyType,
		Status:           status,
		Price:            input.Price,
		TargetAmount:     input.TargetAmount,
		MinInvestment:    input.MinInvestment,
		ExpectedROI:      input.ExpectedROI,
		RentalYield:      input.RentalYield,
		InvestmentPeriod: input.InvestmentPeriod,
		SharesTotal:      input.SharesTotal,
		SharesAvailable:  input.SharesTotal,
		FundingDeadline:  input.FundingDeadline,
		Images:           nonNil(input.Images),
		Amenities:        nonNil(input.Amenities),
	}

	details := validateProperty(property)
	if property.Price > 0 && property.SharesTotal > 0 && property.Price < property.SharesTotal {
		details = append(details, apperrors.FieldError{Field: "shares_total", Message: "Each share must be worth at least one minor unit", Code: "too_many_shares"})
	}
	if err := apperrors.Validation(details); err != nil {
		return nil, err
	}
	property.PricePerShare = property.Price / property.SharesTotal

	if err := s.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return property, nil
}

// UpdateProperty applies a patch. Price and share count are fixed at creation.
// The row is locked and only patched columns are written, so funding
// aggregates moved by settlement in the meantime are never overwritten.
func (s *propertyService) UpdateProperty(ctx context.Context, actor Actor, id string, patch PropertyPatch) (*models.Property, error) {
	var property models.Property

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&property).Error; err != nil {
			return dbError(err, apperrors.ErrPropertyNotFound)
		}
		if err := authorizePropertyWrite(actor, &property); err != nil {
			return err
		}
		if patch.Status != nil && validPropertyStatus(*patch.Status) && !property.Status.CanTransition(*patch.Status) {
			return apperrors.ErrPropertyStatusChange
		}
		if patch.Status != nil && *patch.Status == models.PropertyStatusDraft && property.TotalRaised > 0 {
			return apperrors.WithMessage(apperrors.ErrPropertyStatusChange, "A property that has raised funds cannot return to draft")
		}

		columns := applyPropertyPatch(&property, patch)

		details := validateProperty(&property)
		if property.TargetAmount < property.TotalRaised {
			details = append(details, apperrors.FieldError{Field: "target_amount", Message: "Target cannot be below the amount already raised", Code: "below_raised"})
		}
		if err := apperrors.Validation(details); err != nil {
			return err
		}
		if len(columns) == 0 {
			return nil
		}

		if err := tx.Model(&property).Select(columns).Updates(&property).Error; err != nil {
			return dbError(err, nil)
		}
		return nil
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &property, nil
}

// DeleteProperty soft-deletes a property that has no live investments.
func (s *propertyService) DeleteProperty(ctx context.Context, actor Actor, id string) error {
	property, err := s.GetPropertyByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizePropertyWrite(actor, property); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)

	var live int64
	if err := db.Model(&models.Investment{}).
		Where("property_id = ? AND status IN ?", id, []models.InvestmentStatus{models.InvestmentStatusPending, models.InvestmentStatusConfirmed}).
		Count(&live).Error; err != nil {
		return dbError(err, nil)
	}
	if live > 0 {
		return apperrors.ErrPropertyHasInvestments
	}

	if err := db.Delete(property).Error; err != nil {
		return dbError(err, nil)
	}
	return nil
}

// CountOpenProperties returns how many properties accept investments.
func (s *propertyService) CountOpenProperties(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Property{}).
		Where("status IN ?", []models.PropertyStatus{models.PropertyStatusActive, models.PropertyStatusFunding}).
		Count(&count).Error; err != nil {
		return 0, dbError(err, nil)
	}
	return count, nil
}

func authorizePropertyWrite(actor Actor, property *models.Property) error {
	switch {
	case actor.Role == models.RoleAdmin:
		return nil
	case actor.Role == models.RoleIssuer && property.IssuerID == actor.UserID:
		return nil
	default:
		return apperrors.ErrForbidden
	}
}

// applyPropertyPatch copies the set fields of patch onto p and returns the
// columns it touched.
func applyPropertyPatch(p *models.Property, patch PropertyPatch) []string {
	var columns []string
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
		columns = append(columns, "title")
	}
	if patch.Description != nil {
		p.Description = *patch.Description
		columns = append(columns, "description")
	}
	if patch.Location != nil {
		p.Location = *patch.Location
		columns = append(columns, "location")
	}
	if patch.City != nil {
		p.City = *patch.City
		columns = append(columns, "city")
	}
	if patch.PropertyType != nil {
		p.PropertyType = *patch.PropertyType
		columns = append(columns, "property_type")
	}
	if patch.Status != nil {
		p.Status = *patch.Status
		columns = append(columns, "status")
	}
	if patch.TargetAmount != nil {
		p.TargetAmount = *patch.TargetAmount
		columns = append(columns, "target_amount")
	}
	if patch.MinInvestment != nil {
		p.MinInvestment = *patch.MinInvestment
		columns = append(columns, "min_investment")
	}
	if patch.ExpectedROI != nil {
		p.ExpectedROI = *patch.ExpectedROI
		columns = append(columns, "expected_roi")
	}
	if patch.RentalYield != nil {
		p.RentalYield = *patch.RentalYield
		columns = append(columns, "rental_yield")
	}
	if patch.InvestmentPeriod != nil {
		p.InvestmentPeriod = *patch.InvestmentPeriod
		columns = append(columns, "investment_period")
	}
	if patch.FundingDeadline != nil {
		p.FundingDeadline = patch.FundingDeadline
		columns = append(columns, "funding_deadline")
	}
	if patch.Images != nil {
		p.Images = patch.Images
		columns = append(columns, "images")
	}
	if patch.Amenities != nil {
		p.Amenities = patch.Amenities
		columns = append(columns, "amenities")
	}
	return columns
}

// validateProperty returns one FieldError per broken rule.
func validateProperty(p *models.Property) []apperrors.FieldError {
	var details []apperrors.FieldError
	add := func(field, message, code string) {
		details = append(details, apperrors.FieldError{Field: field, Message: message, Code: code})
	}

	switch n := utf8.RuneCountInString(p.Title); {
	case n < minTitleLength:
		add("title", "Title must be at least 5 characters", "too_short")
	case n > maxTitleLength:
		add("title", "Title must be at most 200 characters", "too_long")
	}
	if !validPropertyType(p.PropertyType) {
		add("property_type", "Unknown property type", "invalid")
	}
	if !validPropertyStatus(p.Status) {
		add("status", "Unknown property status", "invalid")
	}
	if p.Price <= 0 {
		add("price", "Price must be greater than zero", "must_be_positive")
	}
	if p.TargetAmount <= 0 {
		add("target_amount", "Target amount must be greater than zero", "must_be_positive")
	}
	if p.SharesTotal <= 0 {
		add("shares_total", "Share count must be greater than zero", "must_be_positive")
	}
	if p.ExpectedROI < 0 || p.ExpectedROI > 100 {
		add("expected_roi", "Expected ROI must be between 0 and 100", "out_of_range")
	}
	if p.RentalYield < 0 || p.RentalYield > 100 {
		add("rental_yield", "Rental yield must be between 0 and 100", "out_of_range")
	}
	if p.InvestmentPeriod < 1 {
		add("investment_period", "Investment period must be at least one month", "out_of_range")
	}
	if p.MinInvestment < 0 || (p.TargetAmount > 0 && p.MinInvestment > p.TargetAmount) {
		add("min_investment", "Minimum investment must be between 0 and the target amount", "out_of_range")
	}
	return details
}

func validPropertyType(t models.PropertyType) bool {
	switch t {
	case models.PropertyTypeResidential, models.PropertyTypeCommercial, models.PropertyTypeIndustrial,
		models.PropertyTypeLand, models.PropertyTypeMixedUse:
		return true
	}
	return false
}

func validPropertyStatus(s models.PropertyStatus) bool {
	switch s {
	case models.PropertyStatusDraft, models.PropertyStatusActive, models.PropertyStatusFunding,
		models.PropertyStatusFunded, models.PropertyStatusCompleted, models.PropertyStatusCancelled:
		return true
	}
	return false
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
