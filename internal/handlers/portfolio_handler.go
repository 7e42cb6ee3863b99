package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"igudar/internal/money"
	"igudar/internal/services"
	"igudar/internal/valuation"
)

// PortfolioHandler serves the computed portfolio views. Nothing here is
// persisted; every request revalues the caller's confirmed investments.
type PortfolioHandler struct {
	investmentService services.InvestmentServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(investmentService services.InvestmentServicer) *PortfolioHandler {
	return &PortfolioHandler{investmentService: investmentService}
}

// SummaryDisplay carries the summary amounts formatted in major units.
type SummaryDisplay struct {
	Currency          string `json:"currency"`
	TotalInvested     string `json:"total_invested"`
	CurrentValue      string `json:"current_value"`
	CurrentValueShort string `json:"current_value_short"`
	TotalReturn       string `json:"total_return"`
	AnnualReturn      string `json:"annual_return"`
	MonthlyReturn     string `json:"monthly_return"`
}

// SummaryResponse is a portfolio summary plus its display block.
type SummaryResponse struct {
	valuation.Summary
	Display SummaryDisplay `json:"display"`
}

func newSummaryDisplay(s valuation.Summary) SummaryDisplay {
	return SummaryDisplay{
		Currency:          money.Currency(),
		TotalInvested:     money.Format(s.TotalInvested),
		CurrentValue:      money.Format(s.CurrentValue),
		CurrentValueShort: money.FormatShort(money.ToMajor(s.CurrentValue)),
		TotalReturn:       money.Format(s.TotalReturn),
		AnnualReturn:      money.Format(s.AnnualReturn),
		MonthlyReturn:     money.Format(s.MonthlyReturn),
	}
}

// GetSummary handles the portfolio summary.
// @Summary     Get portfolio summary
// @Description Totals, projected value and returns over the caller's confirmed investments
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SummaryResponse "Portfolio summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Backend unavailable"
// @Router      /portfolio/summary [get]
func (h *PortfolioHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.investmentService.GetPortfolioSummary(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, SummaryResponse{Summary: *summary, Display: newSummaryDisplay(*summary)}, "")
}

// GetPerformance handles the per-investment projection list.
// @Summary     Get investment performance
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  valuation.Performance "Per-investment performance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/performance [get]
func (h *PortfolioHandler) GetPerformance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	perf, err := h.investmentService.GetInvestmentPerformance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, perf, "")
}

// GetBreakdown handles the allocation by property type.
// @Summary     Get portfolio breakdown
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  valuation.Breakdown "Allocation by property type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/breakdown [get]
func (h *PortfolioHandler) GetBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	breakdown, err := h.investmentService.GetPortfolioBreakdown(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, breakdown, "")
}
