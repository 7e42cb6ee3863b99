package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "igudar/internal/errors"
	"igudar/internal/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message,omitempty"`
	Details []apperrors.FieldError `json:"details,omitempty"`
}

// ErrorEnvelope builds the failure envelope for err and returns its HTTP
// status. Errors that are not AppErrors, and AppErrors wrapping an internal
// cause, are logged; the client only sees the AppError message.
func ErrorEnvelope(c *gin.Context, err error) (int, Envelope) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"kind", appErr.Kind,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	return appErr.StatusCode, Envelope{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
}

// AbortWithError writes the failure envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	status, body := ErrorEnvelope(c, err)
	c.AbortWithStatusJSON(status, body)
}

// ErrorHandler converts errors attached with c.Error into the failure
// envelope when no response has been written yet.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// The last error is the most relevant in a middleware chain.
		status, body := ErrorEnvelope(c, c.Errors.Last().Err)
		c.JSON(status, body)
	}
}
