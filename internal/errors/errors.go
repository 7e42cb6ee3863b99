// Package errors provides custom error types for the Igudar API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"net/http"

	"gorm.io/gorm"
)

// Kind is the closed set of failure categories every AppError belongs to.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindUnknown    Kind = "unknown"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	StatusCode int          `json:"-"`
	Kind       Kind         `json:"kind"`
	Details    []FieldError `json:"details,omitempty"`
	Internal   error        `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so wrapped copies compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if stderrors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Kind:       sentinel.Kind,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Kind:       sentinel.Kind,
		Details:    sentinel.Details,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying per-field validation details.
func WithDetails(sentinel *AppError, details ...FieldError) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Kind:       sentinel.Kind,
		Details:    details,
		Internal:   sentinel.Internal,
	}
}

// Validation returns ErrValidation carrying the given field errors, or nil
// when the list is empty.
func Validation(details []FieldError) error {
	if len(details) == 0 {
		return nil
	}
	return WithDetails(ErrValidation, details...)
}

// Normalize converts any error raised by the database or storage layer into
// an *AppError. It is the single place where provider errors are classified.
func Normalize(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(ErrNotFound, err)
	case stderrors.Is(err, context.Canceled),
		stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, driver.ErrBadConn),
		stderrors.Is(err, sql.ErrConnDone):
		return Wrap(ErrBackendUnavailable, err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return Wrap(ErrBackendUnavailable, err)
	}

	return Wrap(ErrInternalServer, err)
}

// KindOf reports the Kind of err after normalization.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return Normalize(err).Kind
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized, Kind: KindAuth}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized, Kind: KindAuth}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized, Kind: KindAuth}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden, Kind: KindAuth}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked, Kind: KindAuth}
)

// General errors.
var (
	ErrInvalidInput       = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest, Kind: KindValidation}
	ErrValidation         = &AppError{Code: "VALIDATION_FAILED", Message: "One or more fields are invalid", StatusCode: http.StatusUnprocessableEntity, Kind: KindValidation}
	ErrNotFound           = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound, Kind: KindNotFound}
	ErrBackendUnavailable = &AppError{Code: "BACKEND_UNAVAILABLE", Message: "The service is temporarily unavailable, please retry", StatusCode: http.StatusServiceUnavailable, Kind: KindNetwork}
	ErrInternalServer     = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError, Kind: KindUnknown}
)

// User errors.
var (
	ErrUserNotFound    = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound, Kind: KindNotFound}
	ErrDuplicateEmail  = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict, Kind: KindValidation}
	ErrIncorrectSecret = &AppError{Code: "INCORRECT_PASSWORD", Message: "Current password is incorrect", StatusCode: http.StatusBadRequest, Kind: KindValidation}
)

// Property errors.
var (
	ErrPropertyNotFound        = &AppError{Code: "PROPERTY_NOT_FOUND", Message: "Property not found", StatusCode: http.StatusNotFound, Kind: KindNotFound}
	ErrPropertyHasInvestments  = &AppError{Code: "PROPERTY_HAS_INVESTMENTS", Message: "Property has active investments and cannot be deleted", StatusCode: http.StatusConflict, Kind: KindValidation}
	ErrPropertyNotOpen         = &AppError{Code: "PROPERTY_NOT_OPEN", Message: "Property is not open for investment", StatusCode: http.StatusBadRequest, Kind: KindValidation}
	ErrFundingTargetExceeded   = &AppError{Code: "FUNDING_TARGET_EXCEEDED", Message: "Investment exceeds the remaining funding amount", StatusCode: http.StatusBadRequest, Kind: KindValidation}
	ErrInsufficientShares      = &AppError{Code: "INSUFFICIENT_SHARES", Message: "Not enough shares available for this investment", StatusCode: http.StatusBadRequest, Kind: KindValidation}
	ErrBelowMinimumInvestment  = &AppError{Code: "BELOW_MINIMUM_INVESTMENT", Message: "Investment is below the property minimum", StatusCode: http.StatusBadRequest, Kind: KindValidation}
	ErrInvestmentTooSmallShare = &AppError{Code: "INVESTMENT_TOO_SMALL", Message: "Investment amount does not cover a single share", StatusCode: http.StatusBadRequest, Kind: KindValidation}
	ErrPropertyStatusChange    = &AppError{Code: "INVALID_PROPERTY_STATUS", Message: "Property cannot move to the requested status", StatusCode: http.StatusConflict, Kind: KindValidation}
)

// Investment errors.
var (
	ErrInvestmentNotFound      = &AppError{Code: "INVESTMENT_NOT_FOUND", Message: "Investment not found", StatusCode: http.StatusNotFound, Kind: KindNotFound}
	ErrInvalidStatusTransition = &AppError{Code: "INVALID_STATUS_TRANSITION", Message: "Investment cannot move to the requested status", StatusCode: http.StatusConflict, Kind: KindValidation}
)

// Document errors.
var (
	ErrDocumentNotFound    = &AppError{Code: "DOCUMENT_NOT_FOUND", Message: "Document not found", StatusCode: http.StatusNotFound, Kind: KindNotFound}
	ErrUnsupportedFileType = &AppError{Code: "UNSUPPORTED_FILE_TYPE", Message: "File type is not allowed", StatusCode: http.StatusUnsupportedMediaType, Kind: KindValidation}
	ErrFileTooLarge        = &AppError{Code: "FILE_TOO_LARGE", Message: "File exceeds the maximum upload size", StatusCode: http.StatusRequestEntityTooLarge, Kind: KindValidation}
)

// Billing errors.
var (
	ErrPaymentMethodNotFound  = &AppError{Code: "PAYMENT_METHOD_NOT_FOUND", Message: "Payment method not found", StatusCode: http.StatusNotFound, Kind: KindNotFound}
	ErrBillingAddressNotFound = &AppError{Code: "BILLING_ADDRESS_NOT_FOUND", Message: "Billing address not found", StatusCode: http.StatusNotFound, Kind: KindNotFound}
)
