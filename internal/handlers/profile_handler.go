package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "igudar/internal/errors"
	"igudar/internal/services"
)

// ProfileHandler handles account settings.
type ProfileHandler struct {
	profileService services.ProfileServicer
	auditService   services.AuditServicer
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService services.ProfileServicer, auditService services.AuditServicer) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, auditService: auditService}
}

// UpdateProfileRequest carries the editable profile fields. Omitted fields are kept.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,max=100"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
	Address     *string `json:"address" binding:"omitempty,max=255"`
	City        *string `json:"city" binding:"omitempty,max=100"`
	Country     *string `json:"country" binding:"omitempty,max=100"`
	DateOfBirth *string `json:"date_of_birth" example:"1990-04-21"`
}

// ChangePasswordRequest represents the password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

// NotificationSettingsRequest sets every notification flag at once.
type NotificationSettingsRequest struct {
	EmailNotifications *bool `json:"email_notifications" binding:"required"`
	SMSNotifications   *bool `json:"sms_notifications" binding:"required"`
	MarketingEmails    *bool `json:"marketing_emails" binding:"required"`
}

// GetProfile handles retrieving the caller's profile.
// @Summary     Get profile
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, user, "")
}

// UpdateProfile handles a partial profile update.
// @Summary     Update profile
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Fields to change"
// @Success     200 {object} models.User "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
	}
	if req.DateOfBirth != nil {
		dob, err := parseFlexibleTime(*req.DateOfBirth)
		if err != nil {
			respondWithError(c, apperrors.WithDetails(apperrors.WithMessage(apperrors.ErrInvalidInput, "Request validation failed"),
				apperrors.FieldError{Field: "date_of_birth", Message: err.Error(), Code: "date"}))
			return
		}
		if dob.After(time.Now()) {
			respondWithError(c, apperrors.WithDetails(apperrors.WithMessage(apperrors.ErrInvalidInput, "Request validation failed"),
				apperrors.FieldError{Field: "date_of_birth", Message: "date_of_birth must be in the past", Code: "date"}))
			return
		}
		update.DateOfBirth = &dob
	}

	user, err := h.profileService.UpdateProfile(c.Request.Context(), userID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, user, "Profile updated")
}

// ChangePassword handles a password change. The stored refresh token is
// revoked, so other sessions must log in again.
// @Summary     Change password
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChangePasswordRequest true "Current and new password"
// @Success     200 {object} middleware.Envelope "Password changed"
// @Failure     400 {object} ErrorResponse "Invalid input or incorrect current password"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile/password [put]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	if err := h.profileService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditChangePassword, "user", userID, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, nil, "Password changed")
}

// UpdateNotificationSettings handles the notification toggles.
// @Summary     Update notification settings
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body NotificationSettingsRequest true "Notification flags"
// @Success     200 {object} models.User "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /profile/notifications [put]
func (h *ProfileHandler) UpdateNotificationSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req NotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.profileService.UpdateNotificationSettings(c.Request.Context(), userID, services.NotificationSettings{
		Email:     *req.EmailNotifications,
		SMS:       *req.SMSNotifications,
		Marketing: *req.MarketingEmails,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, user, "Notification settings updated")
}
