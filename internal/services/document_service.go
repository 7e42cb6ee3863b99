package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"gorm.io/gorm"

	apperrors "igudar/internal/errors"
	"igudar/internal/logger"
	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/storage"
)

// documentService keeps document rows in the database and bodies in an ObjectStore.
type documentService struct {
	db       *gorm.DB
	store    storage.ObjectStore
	signer   *storage.URLSigner
	maxBytes int64
}

// NewDocumentService creates a new DocumentServicer.
func NewDocumentService(db *gorm.DB, store storage.ObjectStore, signer *storage.URLSigner, maxBytes int64) DocumentServicer {
	return &documentService{db: db, store: store, signer: signer, maxBytes: maxBytes}
}

// GetUserDocuments returns a page of the user's documents, newest first.
func (s *documentService) GetUserDocuments(ctx context.Context, userID string, filter DocumentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error) {
	page.Defaults()
	db := s.db.WithContext(ctx)

	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("user_id = ?", userID)
		if filter.Type != nil {
			q = q.Where("type = ?", *filter.Type)
		}
		if filter.PropertyID != "" {
			q = q.Where("property_id = ?", filter.PropertyID)
		}
		return q
	}

	var totalItems int64
	if err := db.Model(&models.Document{}).Scopes(scope).Count(&totalItems).Error; err != nil {
		return nil, dbError(err, nil)
	}

	var documents []models.Document
	if err := db.Scopes(scope, pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		return nil, dbError(err, nil)
	}

	result := pagination.NewPageResponse(documents, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// AddDocument stores content and records it. The object is removed again if
// the row cannot be written.
func (s *documentService) AddDocument(ctx context.Context, userID string, meta DocumentMeta, content io.Reader) (*models.Document, error) {
	meta.Name = strings.TrimSpace(meta.Name)

	var details []apperrors.FieldError
	if meta.Name == "" {
		details = append(details, apperrors.FieldError{Field: "name", Message: "Name is required", Code: "required"})
	}
	if !validDocumentType(meta.Type) {
		details = append(details, apperrors.FieldError{Field: "type", Message: "Unknown document type", Code: "invalid"})
	}
	if err := apperrors.Validation(details); err != nil {
		return nil, err
	}

	if meta.InvestmentID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Investment{}).
			Where("id = ? AND user_id = ?", *meta.InvestmentID, userID).
			Count(&count).Error; err != nil {
			return nil, dbError(err, nil)
		}
		if count == 0 {
			return nil, apperrors.ErrInvestmentNotFound
		}
	}

	mime, body, allowed, err := storage.Sniff(content)
	if err != nil {
		return nil, apperrors.Normalize(err)
	}
	if !allowed {
		return nil, apperrors.WithMessage(apperrors.ErrUnsupportedFileType, "File type "+mime+" is not allowed")
	}

	key := storage.NewObjectKey(userID)
	size, err := s.store.Put(ctx, key, io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.Normalize(err)
	}
	if size > s.maxBytes || size == 0 {
		s.removeObject(ctx, key)
		if size == 0 {
			return nil, apperrors.Validation([]apperrors.FieldError{{Field: "file", Message: "File is empty", Code: "required"}})
		}
		return nil, apperrors.ErrFileTooLarge
	}

	document := &models.Document{
		UserID:       userID,
		PropertyID:   meta.PropertyID,
		InvestmentID: meta.InvestmentID,
		Name:         meta.Name,
		Type:         meta.Type,
		MimeType:     mime,
		SizeBytes:    size,
		ObjectKey:    key,
	}
	if err := s.db.WithContext(ctx).Create(document).Error; err != nil {
		s.removeObject(ctx, key)
		return nil, dbError(err, nil)
	}
	return document, nil
}

// DeleteDocument removes the row and then the object. A failed object delete
// is logged and leaves an orphan, never a dangling row.
func (s *documentService) DeleteDocument(ctx context.Context, userID, id string) error {
	document, err := s.ownedDocument(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Unscoped().Delete(document).Error; err != nil {
		return dbError(err, nil)
	}
	s.removeObject(ctx, document.ObjectKey)
	return nil
}

// GetDownloadURL returns a signed, expiring link to the document body.
func (s *documentService) GetDownloadURL(ctx context.Context, userID, id string) (*DownloadLink, error) {
	document, err := s.ownedDocument(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	url, expiresAt, err := s.signer.Sign(userID, storage.DownloadClaims{
		DocumentID: document.ID,
		ObjectKey:  document.ObjectKey,
		FileName:   document.Name,
		MimeType:   document.MimeType,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &DownloadLink{URL: url, ExpiresAt: expiresAt}, nil
}

// OpenDownload verifies a signed token and opens the object it names. The
// caller closes the reader.
func (s *documentService) OpenDownload(ctx context.Context, token string) (*models.Document, io.ReadCloser, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}

	document, err := s.ownedDocument(ctx, claims.Subject, claims.DocumentID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(ctx, document.ObjectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		logger.Get().Errorw("document row without object", "document_id", document.ID, "key", document.ObjectKey)
		return nil, nil, apperrors.ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, apperrors.Normalize(err)
	}
	return document, rc, nil
}

func (s *documentService) ownedDocument(ctx context.Context, userID, id string) (*models.Document, error) {
	var document models.Document
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&document).Error; err != nil {
		return nil, dbError(err, apperrors.ErrDocumentNotFound)
	}
	return &document, nil
}

func (s *documentService) removeObject(ctx context.Context, key string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		logger.Get().Warnw("failed to delete document object", "key", key, "error", err)
	}
}

func validDocumentType(t models.DocumentType) bool {
	switch t {
	case models.DocumentTypeContract, models.DocumentTypeStatement, models.DocumentTypeTax,
		models.DocumentTypeIdentity, models.DocumentTypeOther:
		return true
	}
	return false
}
