package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"igudar/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an investor with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates an investor with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	return createUser(t, db, email, models.RoleInvestor)
}

// CreateTestIssuer creates a user allowed to list properties.
func CreateTestIssuer(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return createUser(t, db, fmt.Sprintf("issuer%d@test.com", nextID()), models.RoleIssuer)
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:              email,
		Password:           string(hash),
		FirstName:          "Test",
		LastName:           "User",
		Role:               role,
		IsActive:           true,
		EmailNotifications: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProperty creates an active residential property worth
// 1,000,000.00 MAD split into 1000 shares of 1,000.00 MAD. Options adjust the
// defaults before insert.
func CreateTestProperty(t *testing.T, db *gorm.DB, issuerID string, opts ...func(*models.Property)) *models.Property {
	t.Helper()

	property := &models.Property{
		IssuerID:         issuerID,
		Title:            fmt.Sprintf("Riad in the Medina #%d", nextID()),
		Location:         "Derb Sidi Bouloukat, Marrakech",
		City:             "Marrakech",
		PropertyType:     models.PropertyTypeResidential,
		Status:           models.PropertyStatusActive,
		Price:            100_000_000,
		TargetAmount:     100_000_000,
		MinInvestment:    100_000,
		ExpectedROI:      12,
		RentalYield:      6,
		InvestmentPeriod: 24,
		SharesTotal:      1000,
		SharesAvailable:  1000,
		PricePerShare:    100_000,
		Images:           []string{},
		Amenities:        []string{"pool"},
	}
	for _, opt := range opts {
		opt(property)
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("failed to create test property: %v", err)
	}
	return property
}

// CreateTestInvestment creates an investment in the given status. Confirmed
// investments get confirmedAt (or now) as their settlement time.
func CreateTestInvestment(t *testing.T, db *gorm.DB, userID string, property *models.Property, amount int64, status models.InvestmentStatus, confirmedAt *time.Time) *models.Investment {
	t.Helper()

	investment := &models.Investment{
		UserID:                userID,
		PropertyID:            property.ID,
		InvestmentAmount:      amount,
		SharesPurchased:       amount / property.PricePerShare,
		PurchasePricePerShare: property.PricePerShare,
		Status:                status,
	}
	if status == models.InvestmentStatusConfirmed {
		at := time.Now()
		if confirmedAt != nil {
			at = *confirmedAt
		}
		investment.ConfirmedAt = &at
	}
	if err := db.Create(investment).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return investment
}

// CreateTestPaymentMethod creates a card payment method.
func CreateTestPaymentMethod(t *testing.T, db *gorm.DB, userID string, isDefault bool) *models.PaymentMethod {
	t.Helper()

	method := &models.PaymentMethod{
		UserID:     userID,
		Type:       models.PaymentMethodCard,
		Brand:      "visa",
		Last4:      fmt.Sprintf("%04d", nextID()%10000),
		ExpMonth:   12,
		ExpYear:    time.Now().Year() + 2,
		HolderName: "Test User",
		IsDefault:  isDefault,
	}
	if err := db.Create(method).Error; err != nil {
		t.Fatalf("failed to create test payment method: %v", err)
	}
	return method
}
