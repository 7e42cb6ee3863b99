package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "igudar/internal/errors"
	"igudar/internal/models"
)

// billingService handles saved payment methods and the billing address.
type billingService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBillingService creates a new BillingServicer.
func NewBillingService(db *gorm.DB) BillingServicer {
	return &billingService{db: db, now: time.Now}
}

// GetPaymentMethods lists the user's methods, default first, then newest.
func (s *billingService) GetPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	methods := []models.PaymentMethod{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").Order("created_at DESC").
		Find(&methods).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return methods, nil
}

// AddPaymentMethod saves display metadata. The user's first method becomes
// the default.
func (s *billingService) AddPaymentMethod(ctx context.Context, userID string, input PaymentMethodInput) (*models.PaymentMethod, error) {
	if err := apperrors.Validation(s.validatePaymentMethod(input)); err != nil {
		return nil, err
	}

	method := &models.PaymentMethod{
		UserID:     userID,
		Type:       input.Type,
		Brand:      input.Brand,
		Last4:      input.Last4,
		ExpMonth:   input.ExpMonth,
		ExpYear:    input.ExpYear,
		HolderName: strings.TrimSpace(input.HolderName),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.PaymentMethod{}).Where("user_id = ?", userID).Count(&existing).Error; err != nil {
			return dbError(err, nil)
		}
		method.IsDefault = existing == 0
		return dbError(tx.Create(method).Error, nil)
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return method, nil
}

func (s *billingService) validatePaymentMethod(input PaymentMethodInput) []apperrors.FieldError {
	var details []apperrors.FieldError
	add := func(field, message, code string) {
		details = append(details, apperrors.FieldError{Field: field, Message: message, Code: code})
	}

	if input.Type != models.PaymentMethodCard && input.Type != models.PaymentMethodBank {
		add("type", "Unknown payment method type", "invalid")
	}
	if len(input.Last4) != 4 || strings.Trim(input.Last4, "0123456789") != "" {
		add("last4", "Last four digits are required", "invalid")
	}
	if strings.TrimSpace(input.HolderName) == "" {
		add("holder_name", "Holder name is required", "required")
	}
	if input.Type == models.PaymentMethodCard {
		now := s.now()
		switch {
		case input.ExpMonth < 1 || input.ExpMonth > 12:
			add("exp_month", "Expiry month must be between 1 and 12", "out_of_range")
		case input.ExpYear < now.Year() || (input.ExpYear == now.Year() && input.ExpMonth < int(now.Month())):
			add("exp_year", "Card has expired", "expired")
		}
	}
	return details
}

// SetDefaultPaymentMethod makes id the user's only default method.
func (s *billingService) SetDefaultPaymentMethod(ctx context.Context, userID, id string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&method).Error; err != nil {
			return dbError(err, apperrors.ErrPaymentMethodNotFound)
		}
		if err := tx.Model(&models.PaymentMethod{}).
			Where("user_id = ? AND id <> ?", userID, id).
			Update("is_default", false).Error; err != nil {
			return dbError(err, nil)
		}
		if err := tx.Model(&method).Update("is_default", true).Error; err != nil {
			return dbError(err, nil)
		}
		method.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &method, nil
}

// RemovePaymentMethod deletes a method. When it was the default, the most
// recently added remaining method takes over.
func (s *billingService) RemovePaymentMethod(ctx context.Context, userID, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var method models.PaymentMethod
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&method).Error; err != nil {
			return dbError(err, apperrors.ErrPaymentMethodNotFound)
		}
		if err := tx.Delete(&method).Error; err != nil {
			return dbError(err, nil)
		}
		if !method.IsDefault {
			return nil
		}

		var next []models.PaymentMethod
		if err := tx.Where("user_id = ?", userID).Order("created_at DESC").Limit(1).Find(&next).Error; err != nil {
			return dbError(err, nil)
		}
		if len(next) == 0 {
			return nil
		}
		return dbError(tx.Model(&next[0]).Update("is_default", true).Error, nil)
	})
	return dbError(err, nil)
}

// GetBillingAddress returns the user's billing address.
func (s *billingService) GetBillingAddress(ctx context.Context, userID string) (*models.BillingAddress, error) {
	var address models.BillingAddress
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&address).Error; err != nil {
		return nil, dbError(err, apperrors.ErrBillingAddressNotFound)
	}
	return &address, nil
}

// UpdateBillingAddress creates or replaces the user's single billing address.
func (s *billingService) UpdateBillingAddress(ctx context.Context, userID string, input BillingAddressInput) (*models.BillingAddress, error) {
	var details []apperrors.FieldError
	if strings.TrimSpace(input.Line1) == "" {
		details = append(details, apperrors.FieldError{Field: "line1", Message: "Address line is required", Code: "required"})
	}
	if strings.TrimSpace(input.City) == "" {
		details = append(details, apperrors.FieldError{Field: "city", Message: "City is required", Code: "required"})
	}
	if strings.TrimSpace(input.Country) == "" {
		details = append(details, apperrors.FieldError{Field: "country", Message: "Country is required", Code: "required"})
	}
	if err := apperrors.Validation(details); err != nil {
		return nil, err
	}

	var address models.BillingAddress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&address).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dbError(err, nil)
		}
		address.UserID = userID
		address.Line1 = strings.TrimSpace(input.Line1)
		address.Line2 = input.Line2
		address.City = strings.TrimSpace(input.City)
		address.PostalCode = input.PostalCode
		address.Region = input.Region
		address.Country = strings.TrimSpace(input.Country)
		return dbError(tx.Save(&address).Error, nil)
	})
	if err != nil {
		return nil, dbError(err, nil)
	}
	return &address, nil
}
