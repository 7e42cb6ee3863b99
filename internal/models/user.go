package models

import "time"

// Role gates what a user may do beyond investing.
type Role string

const (
	RoleInvestor Role = "investor"
	RoleIssuer   Role = "issuer"
	RoleAdmin    Role = "admin"
)

// CanManageProperties reports whether the role may create or edit listings.
func (r Role) CanManageProperties() bool {
	return r == RoleIssuer || r == RoleAdmin
}

// User represents the user model in the database
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone,omitempty"`
	Address     string     `json:"address,omitempty"`
	City        string     `json:"city,omitempty"`
	Country     string     `json:"country,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Role        Role       `gorm:"type:varchar(16);not null;default:'investor'" json:"role"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`

	EmailNotifications bool `gorm:"default:true" json:"email_notifications"`
	SMSNotifications   bool `gorm:"default:false" json:"sms_notifications"`
	MarketingEmails    bool `gorm:"default:false" json:"marketing_emails"`

	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`

	Investments    []Investment    `gorm:"foreignKey:UserID" json:"-"`
	PaymentMethods []PaymentMethod `gorm:"foreignKey:UserID" json:"-"`
}
