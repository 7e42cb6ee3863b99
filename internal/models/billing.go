package models

// PaymentMethodType is the instrument kind.
type PaymentMethodType string

const (
	PaymentMethodCard PaymentMethodType = "card"
	PaymentMethodBank PaymentMethodType = "bank_transfer"
)

// PaymentMethod holds display metadata for a saved instrument. Card numbers
// are never stored.
type PaymentMethod struct {
	Base
	UserID     string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Type       PaymentMethodType `gorm:"type:varchar(16);not null" json:"type"`
	Brand      string            `json:"brand,omitempty"`
	Last4      string            `gorm:"size:4" json:"last4"`
	ExpMonth   int               `json:"exp_month,omitempty"`
	ExpYear    int               `json:"exp_year,omitempty"`
	HolderName string            `json:"holder_name"`
	IsDefault  bool              `gorm:"not null;default:false" json:"is_default"`
}

// BillingAddress is the single postal address of a user.
type BillingAddress struct {
	Base
	UserID     string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Line1      string `gorm:"not null" json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `gorm:"not null" json:"city"`
	PostalCode string `json:"postal_code"`
	Region     string `json:"region,omitempty"`
	Country    string `gorm:"not null" json:"country"`
}
