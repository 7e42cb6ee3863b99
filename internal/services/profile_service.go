package services

import (
	"context"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "igudar/internal/errors"
	"igudar/internal/models"
)

const minPasswordLength = 8

// profileService handles account settings.
type profileService struct {
	db    *gorm.DB
	users UserServicer
}

// NewProfileService creates a new ProfileServicer.
func NewProfileService(db *gorm.DB, users UserServicer) ProfileServicer {
	return &profileService{db: db, users: users}
}

// GetProfile returns the user's profile.
func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile changes the personal details that are set.
func (s *profileService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	setIf := func(column string, v *string) {
		if v != nil {
			updates[column] = *v
		}
	}
	setIf("first_name", update.FirstName)
	setIf("last_name", update.LastName)
	setIf("phone", update.Phone)
	setIf("address", update.Address)
	setIf("city", update.City)
	setIf("country", update.Country)
	if update.DateOfBirth != nil {
		updates["date_of_birth"] = *update.DateOfBirth
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, dbError(err, nil)
	}
	return s.users.GetUserByID(ctx, userID)
}

// ChangePassword replaces the password after verifying the current one. The
// stored refresh token is revoked so other sessions must log in again.
func (s *profileService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if utf8.RuneCountInString(next) < minPasswordLength {
		return apperrors.Validation([]apperrors.FieldError{{Field: "new_password", Message: "Password must be at least 8 characters", Code: "too_short"}})
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return apperrors.ErrIncorrectSecret
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"password":           string(hash),
		"refresh_token_hash": "",
	}).Error; err != nil {
		return dbError(err, nil)
	}
	return nil
}

// UpdateNotificationSettings stores the three notification flags.
func (s *profileService) UpdateNotificationSettings(ctx context.Context, userID string, settings NotificationSettings) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// A map keeps false values, which struct Updates would skip.
	if err := s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"email_notifications": settings.Email,
		"sms_notifications":   settings.SMS,
		"marketing_emails":    settings.Marketing,
	}).Error; err != nil {
		return nil, dbError(err, nil)
	}
	user.EmailNotifications = settings.Email
	user.SMSNotifications = settings.SMS
	user.MarketingEmails = settings.Marketing
	return user, nil
}
