package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/valuation"
)

const recentInvestmentsLimit = 5

// dashboardService fans out the independent dashboard reads.
type dashboardService struct {
	investments InvestmentServicer
	properties  PropertyServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(investments InvestmentServicer, properties PropertyServicer) DashboardServicer {
	return &dashboardService{investments: investments, properties: properties}
}

// GetDashboard runs every read concurrently; the first failure cancels the rest.
func (s *dashboardService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		summary     *valuation.Summary
		performance []valuation.Performance
		breakdown   []valuation.Breakdown
		recent      *pagination.PageResponse[models.Investment]
		open        int64
	)

	g.Go(func() (err error) {
		summary, err = s.investments.GetPortfolioSummary(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		performance, err = s.investments.GetInvestmentPerformance(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		breakdown, err = s.investments.GetPortfolioBreakdown(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.investments.GetUserInvestments(gctx, userID, InvestmentFilter{},
			pagination.PageRequest{Page: 1, PageSize: recentInvestmentsLimit})
		return err
	})
	g.Go(func() (err error) {
		open, err = s.properties.CountOpenProperties(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		Summary:           *summary,
		Performance:       performance,
		Breakdown:         breakdown,
		RecentInvestments: recent.Data,
		OpenProperties:    open,
	}, nil
}
