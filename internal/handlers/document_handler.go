package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "igudar/internal/errors"
	"igudar/internal/logger"
	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/services"
)

// multipartOverhead is the slack allowed on top of the file size for the
// multipart envelope and the other form fields.
const multipartOverhead = 1 << 20

// DocumentHandler handles document upload, listing and download.
type DocumentHandler struct {
	documentService services.DocumentServicer
	auditService    services.AuditServicer
	maxUploadBytes  int64
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService services.DocumentServicer, auditService services.AuditServicer, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, auditService: auditService, maxUploadBytes: maxUploadBytes}
}

// UploadDocumentForm holds the non-file multipart fields.
type UploadDocumentForm struct {
	Name         string              `form:"name" binding:"max=255"`
	Type         models.DocumentType `form:"type" binding:"required,document_type"`
	PropertyID   string              `form:"property_id" binding:"omitempty,uuid"`
	InvestmentID string              `form:"investment_id" binding:"omitempty,uuid"`
}

// DocumentQuery holds the list filters accepted on the query string.
type DocumentQuery struct {
	Type       models.DocumentType `form:"type" binding:"omitempty,document_type"`
	PropertyID string              `form:"property_id" binding:"omitempty,uuid"`
}

// GetDocuments handles listing the caller's documents.
// @Summary     List documents
// @Tags        documents
// @Produce     json
// @Security    BearerAuth
// @Param       type        query string false "Document type filter"
// @Param       property_id query string false "Property filter"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Document] "Paginated documents"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /documents [get]
func (h *DocumentHandler) GetDocuments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q DocumentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := services.DocumentFilter{PropertyID: q.PropertyID}
	if q.Type != "" {
		dt := q.Type
		filter.Type = &dt
	}

	result, err := h.documentService.GetUserDocuments(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result, "")
}

// UploadDocument handles a multipart document upload.
// @Summary     Upload document
// @Description Upload a PDF, PNG, JPEG or plain-text file
// @Tags        documents
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file          formData file   true  "Document body"
// @Param       type          formData string true  "contract, statement, tax, identity or other"
// @Param       name          formData string false "Display name (defaults to the file name)"
// @Param       property_id   formData string false "Related property"
// @Param       investment_id formData string false "Related investment (must be the caller's)"
// @Success     201 {object} models.Document "Document stored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     413 {object} ErrorResponse "File too large"
// @Failure     415 {object} ErrorResponse "Unsupported file type"
// @Router      /documents [post]
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	var form UploadDocumentForm
	if err := c.ShouldBind(&form); err != nil {
		respondWithError(c, uploadError(err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			respondWithError(c, apperrors.WithDetails(apperrors.WithMessage(apperrors.ErrInvalidInput, "Request validation failed"),
				apperrors.FieldError{Field: "file", Message: "file is required", Code: "required"}))
			return
		}
		respondWithError(c, uploadError(err))
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		respondWithError(c, apperrors.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer file.Close()

	meta := services.DocumentMeta{Name: form.Name, Type: form.Type}
	if meta.Name == "" {
		meta.Name = filepath.Base(fileHeader.Filename)
	}
	if form.PropertyID != "" {
		meta.PropertyID = &form.PropertyID
	}
	if form.InvestmentID != "" {
		meta.InvestmentID = &form.InvestmentID
	}

	document, err := h.documentService.AddDocument(c.Request.Context(), userID, meta, file)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditUploadDocument, "document", document.ID, c.ClientIP(),
		map[string]interface{}{"name": document.Name, "type": string(document.Type), "size_bytes": document.SizeBytes})

	respondOK(c, http.StatusCreated, document, "Document uploaded")
}

// DeleteDocument handles removing a document.
// @Summary     Delete document
// @Tags        documents
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Document ID"
// @Success     200 {object} middleware.Envelope "Document deleted"
// @Failure     404 {object} ErrorResponse "Document not found"
// @Router      /documents/{id} [delete]
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.documentService.DeleteDocument(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), userID, services.AuditDeleteDocument, "document", id, c.ClientIP(), nil)

	respondOK(c, http.StatusOK, nil, "Document deleted")
}

// GetDownloadURL handles issuing a signed download link.
// @Summary     Get document download URL
// @Tags        documents
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Document ID"
// @Success     200 {object} services.DownloadLink "Signed URL"
// @Failure     404 {object} ErrorResponse "Document not found"
// @Router      /documents/{id}/download-url [get]
func (h *DocumentHandler) GetDownloadURL(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	link, err := h.documentService.GetDownloadURL(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, link, "")
}

// Download streams a document body for a valid signed token. The token is
// the only credential.
// @Summary     Download document
// @Tags        documents
// @Produce     application/octet-stream
// @Param       token query string true "Signed download token"
// @Success     200 {file} file "Document body"
// @Failure     401 {object} ErrorResponse "Invalid or expired token"
// @Failure     404 {object} ErrorResponse "Document not found"
// @Router      /documents/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	document, body, err := h.documentService.OpenDownload(c.Request.Context(), token)
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer func() {
		if err := body.Close(); err != nil {
			logger.Get().Warnw("failed to close document body", "document_id", document.ID, "error", err)
		}
	}()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": document.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	c.DataFromReader(http.StatusOK, document.SizeBytes, document.MimeType, body, map[string]string{
		"Content-Disposition":    disposition,
		"Cache-Control":          "private, no-store",
		"X-Content-Type-Options": "nosniff",
	})
}

// uploadError classifies multipart parsing failures.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return apperrors.ErrFileTooLarge
	}
	return bindError(err)
}
