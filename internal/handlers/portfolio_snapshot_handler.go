package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "igudar/internal/errors"
	"igudar/internal/pagination"
	"igudar/internal/services"
)

// defaultHistoryWindow is the range served when the client sends no dates.
const defaultHistoryWindow = 365 * 24 * time.Hour

// PortfolioSnapshotHandler handles portfolio snapshot requests.
type PortfolioSnapshotHandler struct {
	snapshotService services.PortfolioSnapshotServicer
	now             func() time.Time
}

// NewPortfolioSnapshotHandler creates a new PortfolioSnapshotHandler.
func NewPortfolioSnapshotHandler(snapshotService services.PortfolioSnapshotServicer) *PortfolioSnapshotHandler {
	return &PortfolioSnapshotHandler{snapshotService: snapshotService, now: time.Now}
}

// RecordSnapshotsRequest represents the request payload for recording snapshots.
type RecordSnapshotsRequest struct {
	RecordedAt *time.Time `json:"recorded_at"`
}

// RecordSnapshots handles valuing and recording every investor's portfolio.
// @Summary     Record portfolio snapshots
// @Description Value and record a snapshot for every user with confirmed investments (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key  header   string                 true  "Pipeline API key"
// @Param       request    body     RecordSnapshotsRequest false "Snapshot time (defaults to now)"
// @Success     200        {object} map[string]int         "Snapshots recorded count"
// @Failure     400        {object} ErrorResponse          "Invalid input"
// @Failure     401        {object} ErrorResponse          "Invalid API key"
// @Failure     503        {object} ErrorResponse          "Pipeline not configured"
// @Router      /pipeline/snapshots [post]
func (h *PortfolioSnapshotHandler) RecordSnapshots(c *gin.Context) {
	var req RecordSnapshotsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	recordedAt := h.now().UTC().Truncate(time.Second)
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	count, err := h.snapshotService.RecordSnapshots(c.Request.Context(), recordedAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"snapshots_recorded": count, "recorded_at": recordedAt}, "")
}

// GetHistory handles retrieving portfolio snapshots for the authenticated user.
// @Summary     Get portfolio history
// @Description Get paginated portfolio snapshots for a date range (defaults to the last year)
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PortfolioSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/history [get]
func (h *PortfolioSnapshotHandler) GetHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	to := h.now().UTC()
	if toStr := c.Query("to_date"); toStr != "" {
		if to, err = parseFlexibleTime(toStr); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	from := to.Add(-defaultHistoryWindow)
	if fromStr := c.Query("from_date"); fromStr != "" {
		if from, err = parseFlexibleTime(fromStr); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	if from.After(to) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "from_date must not be after to_date"))
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.snapshotService.GetSnapshots(c.Request.Context(), userID, from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, result, "")
}
