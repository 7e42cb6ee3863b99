package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"igudar/internal/logger"
	"igudar/internal/models"
)

// Audit actions.
const (
	AuditCreateInvestment  = "investment.create"
	AuditCancelInvestment  = "investment.cancel"
	AuditConfirmInvestment = "investment.confirm"
	AuditRefundInvestment  = "investment.refund"
	AuditCreateProperty    = "property.create"
	AuditUpdateProperty    = "property.update"
	AuditDeleteProperty    = "property.delete"
	AuditAddPayment        = "payment_method.add"
	AuditDefaultPayment    = "payment_method.set_default"
	AuditRemovePayment     = "payment_method.remove"
	AuditChangePassword    = "user.change_password"
	AuditUploadDocument    = "document.upload"
	AuditDeleteDocument    = "document.delete"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	// The write outlives a cancelled request.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
