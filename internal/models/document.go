package models

// DocumentType classifies an uploaded file.
type DocumentType string

const (
	DocumentTypeContract  DocumentType = "contract"
	DocumentTypeStatement DocumentType = "statement"
	DocumentTypeTax       DocumentType = "tax"
	DocumentTypeIdentity  DocumentType = "identity"
	DocumentTypeOther     DocumentType = "other"
)

// Document is a file owned by a user, optionally tied to a property or investment.
type Document struct {
	Base
	UserID       string       `gorm:"type:uuid;not null;index" json:"user_id"`
	PropertyID   *string      `gorm:"type:uuid" json:"property_id,omitempty"`
	InvestmentID *string      `gorm:"type:uuid" json:"investment_id,omitempty"`
	Name         string       `gorm:"not null" json:"name"`
	Type         DocumentType `gorm:"type:varchar(16);not null" json:"type"`
	MimeType     string       `gorm:"not null" json:"mime_type"`
	SizeBytes    int64        `gorm:"not null" json:"size_bytes"`
	ObjectKey    string       `gorm:"not null;uniqueIndex" json:"-"`
}
