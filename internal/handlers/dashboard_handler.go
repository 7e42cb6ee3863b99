package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"igudar/internal/services"
)

// DashboardHandler serves the investor landing view.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// DashboardResponse is the dashboard plus the display block of its summary.
type DashboardResponse struct {
	services.Dashboard
	Display SummaryDisplay `json:"display"`
}

// GetDashboard handles the dashboard view.
// @Summary     Get dashboard
// @Description Portfolio summary, performance, breakdown, recent investments and the count of open properties
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} DashboardResponse "Dashboard"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Backend unavailable"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dash, err := h.dashboardService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, DashboardResponse{Dashboard: *dash, Display: newSummaryDisplay(dash.Summary)}, "")
}
