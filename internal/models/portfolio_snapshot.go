package models

import (
	"time"

	"igudar/internal/uuid"

	"gorm.io/gorm"
)

// PortfolioSnapshot is a point-in-time valuation of a user's confirmed
// investments. Rows are immutable time-series data with no soft delete.
type PortfolioSnapshot struct {
	ID                string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string    `gorm:"type:uuid;not null;uniqueIndex:idx_snapshot_user_time" json:"user_id"`
	RecordedAt        time.Time `gorm:"not null;uniqueIndex:idx_snapshot_user_time" json:"recorded_at"`
	TotalInvested     int64     `gorm:"type:bigint;not null" json:"total_invested"`
	CurrentValue      int64     `gorm:"type:bigint;not null" json:"current_value"`
	TotalReturn       int64     `gorm:"type:bigint;not null" json:"total_return"`
	ActiveInvestments int       `gorm:"not null" json:"active_investments"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PortfolioSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
