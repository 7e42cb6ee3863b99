package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "igudar/internal/errors"
	"igudar/internal/middleware"
	"igudar/internal/models"
	"igudar/internal/services"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// getActor returns the authenticated user together with their role.
func getActor(c *gin.Context) (services.Actor, error) {
	userID, err := getUserID(c)
	if err != nil {
		return services.Actor{}, err
	}
	role, _ := c.Get(middleware.ContextRole)
	r, _ := role.(models.Role)
	return services.Actor{UserID: userID, Role: r}, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if err := uuid.Validate(id); err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseFlexibleTime accepts RFC3339 timestamps or plain YYYY-MM-DD dates.
func parseFlexibleTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use RFC3339 or YYYY-MM-DD", value)
}

// respondOK writes the success envelope.
func respondOK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, middleware.Envelope{Success: true, Data: data, Message: message})
}

// respondWithError writes the failure envelope. AppErrors keep their status,
// code and message; anything else is logged and reported as an internal error.
func respondWithError(c *gin.Context, err error) {
	status, body := middleware.ErrorEnvelope(c, err)
	c.JSON(status, body)
}

// bindError turns a gin binding failure into INVALID_INPUT with one detail
// per failed field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]apperrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, apperrors.FieldError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Code:    fe.Tag(),
			})
		}
		return apperrors.WithDetails(apperrors.WithMessage(apperrors.ErrInvalidInput, "Request validation failed"), details...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Malformed JSON body")
	case errors.As(err, &typeErr):
		return apperrors.WithDetails(apperrors.WithMessage(apperrors.ErrInvalidInput, "Request validation failed"),
			apperrors.FieldError{Field: typeErr.Field, Message: "Expected " + typeErr.Type.String(), Code: "type"})
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min", "gte", "gt":
		return fe.Field() + " must be at least " + fe.Param()
	case "max", "lte", "lt":
		return fe.Field() + " must be at most " + fe.Param()
	case "email":
		return fe.Field() + " must be a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}

// ErrorResponse documents the failure envelope for swagger.
type ErrorResponse struct {
	Success bool                   `json:"success" example:"false"`
	Error   string                 `json:"error" example:"Property not found"`
	Code    string                 `json:"code" example:"PROPERTY_NOT_FOUND"`
	Message string                 `json:"message" example:"Property not found"`
	Details []apperrors.FieldError `json:"details,omitempty"`
}
