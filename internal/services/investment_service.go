package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "igudar/internal/errors"
	"igudar/internal/logger"
	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/valuation"
)

// investmentService handles investments and portfolio valuation.
type investmentService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB) InvestmentServicer {
	return &investmentService{db: db, now: time.Now}
}

// GetUserInvestments returns a page of the user's investments, newest first,
// with their properties preloaded.
func (s *investmentService) GetUserInvestments(ctx context.Context, userID string, filter InvestmentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	page.Defaults()
	db := s.db.WithContext(ctx)

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("user_id = ?", userID)
		if filter.Status != nil {
			q = q.Where("status = ?", *filter.Status)
		}
		if filter.PropertyID != "" {
			q = q.Where("property_id = ?", filter.PropertyID)
		}
		return q
	}

	var totalItems int64
	if err := db.Model(&models.Investment{}).Scopes(scope).Count(&totalItems).Error; err != nil {
		return nil, dbError(err, nil)
	}

	var investments []models.Investment
	if err := db.Preload("Property").Scopes(scope, pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&investments).Error; err != nil {
		return nil, dbError(err, nil)
	}

	result := pagination.NewPageResponse(investments, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetInvestmentByID retrieves one of the user's investments.
func (s *investmentService) GetInvestmentByID(ctx context.Context, userID, id string) (*models.Investment, error) {
	var investment models.Investment
	if err := s.db.WithContext(ctx).Preload("Property").
		Where("id = ? AND user_id = ?", id, userID).
		First(&investment).Error; err != nil {
		return nil, dbError(err, apperrors.ErrInvestmentNotFound)
	}
	return &investment, nil
}

// CreateInvestment records a pending stake after checking the property can
// take it. Settlement happens later through ConfirmInvestment.
func (s *investmentService) CreateInvestment(ctx context.Context, userID string, input CreateInvestmentInput) (*models.Investment, error) {
	var details []apperrors.FieldError
	if input.PropertyID == "" {
		details = append(details, apperrors.FieldError{Field: "property_id", Message: "Property is required", Code: "required"})
	}
	if input.InvestmentAmount <= 0 {
		details = append(details, apperrors.FieldError{Field: "investment_amount", Message: "Investment amount must be greater than zero", Code: "must_be_positive"})
	}
	if err := apperrors.Validation(details); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	var property models.Property
	if err := db.Where("id = ?", input.PropertyID).First(&property).Error; err != nil {
		return nil, dbError(err, apperrors.ErrPropertyNotFound)
	}

	shares, err := sharesFor(&property, input.InvestmentAmount)
	if err != nil {
		return nil, err
	}

	if input.PaymentMethodID != nil {
		var count int64
		if err := db.Model(&models.PaymentMethod{}).
			Where("id = ? AND user_id = ?", *input.PaymentMethodID, userID).
			Count(&count).Error; err != nil {
			return nil, dbError(err, nil)
		}
		if count == 0 {
			return nil, apperrors.ErrPaymentMethodNotFound
		}
	}

	investment := &models.Investment{
		UserID:                userID,
		PropertyID:            property.ID,
		PaymentMethodID:       input.PaymentMethodID,
		InvestmentAmount:      input.InvestmentAmount,
		SharesPurchased:       shares,
		PurchasePricePerShare: property.PricePerShare,
		Status:                models.InvestmentStatusPending,
	}
	if err := db.Create(investment).Error; err != nil {
		return nil, dbError(err, nil)
	}

	investment.Property = &property
	return investment, nil
}

// sharesFor checks an amount against the property's funding rules and
// returns how many whole shares it buys.
func sharesFor(property *models.Property, amount int64) (int64, error) {
	if !property.Status.IsOpen() {
		return 0, apperrors.ErrPropertyNotOpen
	}
	if amount < property.MinInvestment {
		return 0, apperrors.ErrBelowMinimumInvestment
	}
	if amount > valuation.RemainingFunding(property.TotalRaised, property.TargetAmount) {
		return 0, apperrors.ErrFundingTargetExceeded
	}
	if property.PricePerShare <= 0 {
		return 0, apperrors.ErrInvestmentTooSmallShare
	}

	shares := amount / property.PricePerShare
	if shares < 1 {
		return 0, apperrors.ErrInvestmentTooSmallShare
	}
	if shares > property.SharesAvailable {
		return 0, apperrors.ErrInsufficientShares
	}
	return shares, nil
}

// CancelInvestment withdraws a pending investment owned by the user.
func (s *investmentService) CancelInvestment(ctx context.Context, userID, id string) (*models.Investment, error) {
	investment, err := s.GetInvestmentByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := transition(s.db.WithContext(ctx), investment, models.InvestmentStatusCancelled, nil); err != nil {
		return nil, err
	}
	return investment, nil
}

// ConfirmInvestment settles a pending investment and folds it into the
// property's funding aggregates in one transaction. The funding rules checked
// at creation are checked again against the locked property.
func (s *investmentService) ConfirmInvestment(ctx context.Context, id string) (*models.Investment, error) {
	var investment models.Investment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := lockInvestmentAndProperty(tx, id, &investment)
		if err != nil {
			return err
		}
		if !investment.Status.CanTransition(models.InvestmentStatusConfirmed) {
			return apperrors.ErrInvalidStatusTransition
		}
		// The property may have closed or filled up since the stake was placed.
		if !property.Status.IsOpen() {
			return apperrors.ErrPropertyNotOpen
		}
		if investment.InvestmentAmount > valuation.RemainingFunding(property.TotalRaised, property.TargetAmount) {
			return apperrors.ErrFundingTargetExceeded
		}
		if investment.SharesPurchased > property.SharesAvailable {
			return apperrors.ErrInsufficientShares
		}

		firstStake, err := otherConfirmedStakes(tx, &investment)
		if err != nil {
			return err
		}

		raised := property.TotalRaised + investment.InvestmentAmount
		updates := map[string]interface{}{
			"total_raised":     gorm.Expr("total_raised + ?", investment.InvestmentAmount),
			"shares_available": gorm.Expr("shares_available - ?", investment.SharesPurchased),
		}
		if firstStake == 0 {
			updates["total_investors"] = gorm.Expr("total_investors + 1")
		}
		switch {
		case raised >= property.TargetAmount:
			updates["status"] = models.PropertyStatusFunded
		case property.Status == models.PropertyStatusActive:
			updates["status"] = models.PropertyStatusFunding
		}
		if err := tx.Model(&models.Property{}).Where("id = ?", property.ID).Updates(updates).Error; err != nil {
			return dbError(err, nil)
		}

		now := s.now()
		if err := transition(tx, &investment, models.InvestmentStatusConfirmed, map[string]interface{}{"confirmed_at": now}); err != nil {
			return err
		}
		investment.ConfirmedAt = &now
		return nil
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &investment, nil
}

// RefundInvestment reverses a confirmed investment and its aggregates.
func (s *investmentService) RefundInvestment(ctx context.Context, id string) (*models.Investment, error) {
	var investment models.Investment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := lockInvestmentAndProperty(tx, id, &investment)
		if err != nil {
			return err
		}
		if !investment.Status.CanTransition(models.InvestmentStatusRefunded) {
			return apperrors.ErrInvalidStatusTransition
		}

		otherStakes, err := otherConfirmedStakes(tx, &investment)
		if err != nil {
			return err
		}

		raised := property.TotalRaised - investment.InvestmentAmount
		updates := map[string]interface{}{
			"total_raised":     gorm.Expr("total_raised - ?", investment.InvestmentAmount),
			"shares_available": gorm.Expr("shares_available + ?", investment.SharesPurchased),
		}
		if otherStakes == 0 {
			updates["total_investors"] = gorm.Expr("CASE WHEN total_investors > 0 THEN total_investors - 1 ELSE 0 END")
		}
		if property.Status == models.PropertyStatusFunded && raised < property.TargetAmount {
			updates["status"] = models.PropertyStatusFunding
		}
		if err := tx.Model(&models.Property{}).Where("id = ?", property.ID).Updates(updates).Error; err != nil {
			return dbError(err, nil)
		}

		return transition(tx, &investment, models.InvestmentStatusRefunded, nil)
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &investment, nil
}

// lockInvestmentAndProperty loads the investment and its property for update.
func lockInvestmentAndProperty(tx *gorm.DB, id string, investment *models.Investment) (*models.Property, error) {
	forUpdate := clause.Locking{Strength: "UPDATE"}
	if err := tx.Clauses(forUpdate).Where("id = ?", id).First(investment).Error; err != nil {
		return nil, dbError(err, apperrors.ErrInvestmentNotFound)
	}
	var property models.Property
	if err := tx.Clauses(forUpdate).Where("id = ?", investment.PropertyID).First(&property).Error; err != nil {
		return nil, dbError(err, apperrors.ErrPropertyNotFound)
	}
	return &property, nil
}

// otherConfirmedStakes counts the user's other confirmed investments in the
// same property.
func otherConfirmedStakes(tx *gorm.DB, investment *models.Investment) (int64, error) {
	var count int64
	if err := tx.Model(&models.Investment{}).
		Where("user_id = ? AND property_id = ? AND status = ? AND id <> ?",
			investment.UserID, investment.PropertyID, models.InvestmentStatusConfirmed, investment.ID).
		Count(&count).Error; err != nil {
		return 0, dbError(err, nil)
	}
	return count, nil
}

// transition moves investment to next if allowed. The update is conditional on
// the current status so a concurrent change is reported as a conflict.
func transition(db *gorm.DB, investment *models.Investment, next models.InvestmentStatus, extra map[string]interface{}) error {
	if !investment.Status.CanTransition(next) {
		return apperrors.ErrInvalidStatusTransition
	}

	updates := map[string]interface{}{"status": next}
	for k, v := range extra {
		updates[k] = v
	}

	result := db.Model(&models.Investment{}).
		Where("id = ? AND status = ?", investment.ID, investment.Status).
		Updates(updates)
	if result.Error != nil {
		return dbError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInvalidStatusTransition
	}

	investment.Status = next
	return nil
}

// holdings loads the user's confirmed investments as valuation inputs.
// Investments whose property is gone are kept with HasProperty false.
func (s *investmentService) holdings(ctx context.Context, userID string) ([]valuation.Holding, error) {
	var investments []models.Investment
	if err := s.db.WithContext(ctx).Preload("Property").
		Where("user_id = ? AND status = ?", userID, models.InvestmentStatusConfirmed).
		Order("created_at ASC").
		Find(&investments).Error; err != nil {
		return nil, dbError(err, nil)
	}

	holdings := make([]valuation.Holding, 0, len(investments))
	missing := 0
	for i := range investments {
		h := toHolding(&investments[i])
		if !h.HasProperty {
			missing++
		}
		holdings = append(holdings, h)
	}
	if missing > 0 {
		logger.Get().Warnw("valuing investments without their property at face amount",
			"user_id", userID, "missing", missing)
	}
	return holdings, nil
}

func toHolding(inv *models.Investment) valuation.Holding {
	since := inv.CreatedAt
	if inv.ConfirmedAt != nil {
		since = *inv.ConfirmedAt
	}
	h := valuation.Holding{
		InvestmentID: inv.ID,
		PropertyID:   inv.PropertyID,
		Amount:       inv.InvestmentAmount,
		HeldSince:    since,
	}
	if inv.Property != nil {
		h.HasProperty = true
		h.PropertyTitle = inv.Property.Title
		h.PropertyType = string(inv.Property.PropertyType)
		h.ExpectedROI = inv.Property.ExpectedROI
	}
	return h
}

// GetPortfolioSummary rolls up the user's confirmed investments.
func (s *investmentService) GetPortfolioSummary(ctx context.Context, userID string) (*valuation.Summary, error) {
	holdings, err := s.holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := valuation.Summarize(holdings, s.now())
	return &summary, nil
}

// GetInvestmentPerformance projects each confirmed investment.
func (s *investmentService) GetInvestmentPerformance(ctx context.Context, userID string) ([]valuation.Performance, error) {
	holdings, err := s.holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return valuation.ProjectAll(holdings, s.now()), nil
}

// GetPortfolioBreakdown groups confirmed investments by property type.
func (s *investmentService) GetPortfolioBreakdown(ctx context.Context, userID string) ([]valuation.Breakdown, error) {
	holdings, err := s.holdings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return valuation.BreakdownByType(holdings, s.now()), nil
}

// GetOwnershipPercentage returns the share of a property the user holds
// through confirmed investments.
func (s *investmentService) GetOwnershipPercentage(ctx context.Context, userID, propertyID string) (float64, error) {
	db := s.db.WithContext(ctx)

	var property models.Property
	if err := db.Where("id = ?", propertyID).First(&property).Error; err != nil {
		return 0, dbError(err, apperrors.ErrPropertyNotFound)
	}

	var shares int64
	if err := db.Model(&models.Investment{}).
		Where("user_id = ? AND property_id = ? AND status = ?", userID, propertyID, models.InvestmentStatusConfirmed).
		Select("COALESCE(SUM(shares_purchased), 0)").
		Scan(&shares).Error; err != nil {
		return 0, dbError(err, nil)
	}
	return valuation.Ownership(shares, property.SharesTotal), nil
}
