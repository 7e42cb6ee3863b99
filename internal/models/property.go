package models

import (
	"time"

	"igudar/internal/valuation"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PropertyStatus is the lifecycle state of a listing.
type PropertyStatus string

const (
	PropertyStatusDraft     PropertyStatus = "draft"
	PropertyStatusActive    PropertyStatus = "active"
	PropertyStatusFunding   PropertyStatus = "funding"
	PropertyStatusFunded    PropertyStatus = "funded"
	PropertyStatusCompleted PropertyStatus = "completed"
	PropertyStatusCancelled PropertyStatus = "cancelled"
)

// IsOpen reports whether the property accepts new investments.
func (s PropertyStatus) IsOpen() bool {
	return s == PropertyStatusActive || s == PropertyStatusFunding
}

// Listing moves an issuer or admin may make. Funding and funded are also
// set by settlement; completed and cancelled are terminal.
var propertyTransitions = map[PropertyStatus][]PropertyStatus{
	PropertyStatusDraft:   {PropertyStatusActive, PropertyStatusFunding, PropertyStatusCancelled},
	PropertyStatusActive:  {PropertyStatusDraft, PropertyStatusFunding, PropertyStatusCancelled},
	PropertyStatusFunding: {PropertyStatusDraft, PropertyStatusActive, PropertyStatusFunded, PropertyStatusCancelled},
	PropertyStatusFunded:  {PropertyStatusCompleted, PropertyStatusCancelled},
}

// CanTransition reports whether a listing may move from s to next. Staying
// in the same status is always allowed.
func (s PropertyStatus) CanTransition(next PropertyStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range propertyTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PropertyType classifies the asset.
type PropertyType string

const (
	PropertyTypeResidential PropertyType = "residential"
	PropertyTypeCommercial  PropertyType = "commercial"
	PropertyTypeIndustrial  PropertyType = "industrial"
	PropertyTypeLand        PropertyType = "land"
	PropertyTypeMixedUse    PropertyType = "mixed_use"
)

// Property is a fundable real-estate asset. Monetary columns are minor units.
type Property struct {
	Base
	IssuerID         string         `gorm:"type:uuid;index" json:"issuer_id"`
	Title            string         `gorm:"not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Location         string         `json:"location"`
	City             string         `gorm:"index" json:"city"`
	PropertyType     PropertyType   `gorm:"type:varchar(32);not null;index" json:"property_type"`
	Status           PropertyStatus `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	Price            int64          `gorm:"type:bigint;not null" json:"price"`
	TargetAmount     int64          `gorm:"type:bigint;not null" json:"target_amount"`
	TotalRaised      int64          `gorm:"type:bigint;not null;default:0" json:"total_raised"`
	MinInvestment    int64          `gorm:"type:bigint;not null;default:0" json:"min_investment"`
	ExpectedROI      float64        `gorm:"not null;default:0" json:"expected_roi"`
	RentalYield      float64        `gorm:"not null;default:0" json:"rental_yield"`
	InvestmentPeriod int            `gorm:"not null;default:12" json:"investment_period"`
	SharesTotal      int64          `gorm:"not null" json:"shares_total"`
	SharesAvailable  int64          `gorm:"not null" json:"shares_available"`
	PricePerShare    int64          `gorm:"type:bigint;not null" json:"price_per_share"`
	TotalInvestors   int            `gorm:"not null;default:0" json:"total_investors"`
	FundingDeadline  *time.Time     `json:"funding_deadline,omitempty"`

	Images    datatypes.JSONSlice[string] `json:"images"`
	Amenities datatypes.JSONSlice[string] `json:"amenities"`

	// Derived on every load and save, never stored.
	FundingProgress  int                 `gorm:"-" json:"funding_progress"`
	RemainingFunding int64               `gorm:"-" json:"remaining_funding"`
	RiskAssessment   valuation.RiskLevel `gorm:"-" json:"risk_assessment"`
}

// Derive recomputes the read-only display fields from the stored columns.
func (p *Property) Derive() {
	p.FundingProgress = valuation.FundingProgress(p.TotalRaised, p.TargetAmount)
	p.RemainingFunding = valuation.RemainingFunding(p.TotalRaised, p.TargetAmount)
	p.RiskAssessment = valuation.AssessRisk(p.ExpectedROI, p.FundingProgress)
}

// AfterFind derives display fields for every property read from the database.
func (p *Property) AfterFind(tx *gorm.DB) error {
	p.Derive()
	return nil
}

// AfterSave keeps display fields current after create and update.
func (p *Property) AfterSave(tx *gorm.DB) error {
	p.Derive()
	return nil
}
