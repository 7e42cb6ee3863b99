package models

import "time"

// InvestmentStatus is the settlement state of an investment.
type InvestmentStatus string

const (
	InvestmentStatusPending   InvestmentStatus = "pending"
	InvestmentStatusConfirmed InvestmentStatus = "confirmed"
	InvestmentStatusCancelled InvestmentStatus = "cancelled"
	InvestmentStatusRefunded  InvestmentStatus = "refunded"
)

var investmentTransitions = map[InvestmentStatus][]InvestmentStatus{
	InvestmentStatusPending:   {InvestmentStatusConfirmed, InvestmentStatusCancelled},
	InvestmentStatusConfirmed: {InvestmentStatusRefunded},
}

// CanTransition reports whether an investment may move from s to next.
func (s InvestmentStatus) CanTransition(next InvestmentStatus) bool {
	for _, allowed := range investmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Investment is a user's stake in one property.
type Investment struct {
	Base
	UserID                string           `gorm:"type:uuid;not null;index" json:"user_id"`
	PropertyID            string           `gorm:"type:uuid;not null;index" json:"property_id"`
	PaymentMethodID       *string          `gorm:"type:uuid" json:"payment_method_id,omitempty"`
	InvestmentAmount      int64            `gorm:"type:bigint;not null" json:"investment_amount"`
	SharesPurchased       int64            `gorm:"not null" json:"shares_purchased"`
	PurchasePricePerShare int64            `gorm:"type:bigint;not null" json:"purchase_price_per_share"`
	Status                InvestmentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ConfirmedAt           *time.Time       `json:"confirmed_at,omitempty"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}
