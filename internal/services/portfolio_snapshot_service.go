package services

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"igudar/internal/logger"
	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/valuation"
)

// portfolioSnapshotService records and serves portfolio valuation history.
type portfolioSnapshotService struct {
	db          *gorm.DB
	investments *investmentService
}

// NewPortfolioSnapshotService creates a new PortfolioSnapshotServicer.
func NewPortfolioSnapshotService(db *gorm.DB) PortfolioSnapshotServicer {
	return &portfolioSnapshotService{
		db:          db,
		investments: &investmentService{db: db, now: time.Now},
	}
}

// RecordSnapshots values every user holding confirmed investments at
// recordedAt and upserts one row per user. It returns the number of rows written.
func (s *portfolioSnapshotService) RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error) {
	var userIDs []string
	if err := s.db.WithContext(ctx).Model(&models.Investment{}).
		Where("status = ?", models.InvestmentStatusConfirmed).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, dbError(err, nil)
	}

	count := 0
	for _, userID := range userIDs {
		holdings, err := s.investments.holdings(ctx, userID)
		if err != nil {
			return count, err
		}
		summary := valuation.Summarize(holdings, recordedAt)

		snapshot := &models.PortfolioSnapshot{
			UserID:            userID,
			RecordedAt:        recordedAt,
			TotalInvested:     summary.TotalInvested,
			CurrentValue:      summary.CurrentValue,
			TotalReturn:       summary.TotalReturn,
			ActiveInvestments: summary.ActiveInvestments,
		}
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recorded_at"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_invested", "current_value", "total_return", "active_investments"}),
		}).Create(snapshot).Error; err != nil {
			return count, dbError(err, nil)
		}
		count++
	}

	logger.Get().Infow("portfolio snapshots recorded", "count", count, "recorded_at", recordedAt)
	return count, nil
}

// GetSnapshots returns the user's snapshots between from and to, oldest first.
// A zero from or to leaves that side open.
func (s *portfolioSnapshotService) GetSnapshots(ctx context.Context, userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	page.Defaults()
	db := s.db.WithContext(ctx)

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("user_id = ?", userID)
		if !from.IsZero() {
			q = q.Where("recorded_at >= ?", from)
		}
		if !to.IsZero() {
			q = q.Where("recorded_at <= ?", to)
		}
		return q
	}

	var totalItems int64
	if err := db.Model(&models.PortfolioSnapshot{}).Scopes(scope).Count(&totalItems).Error; err != nil {
		return nil, dbError(err, nil)
	}

	var snapshots []models.PortfolioSnapshot
	if err := db.Scopes(scope, pagination.Paginate(page)).
		Order("recorded_at ASC").
		Find(&snapshots).Error; err != nil {
		return nil, dbError(err, nil)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
