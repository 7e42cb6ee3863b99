package valuation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one confirmed investment joined with the property fields the
// projection needs. HasProperty is false when the property could not be
// loaded (deleted or not joined).
type Holding struct {
	InvestmentID  string
	PropertyID    string
	PropertyTitle string
	PropertyType  string
	Amount        int64
	HeldSince     time.Time
	ExpectedROI   float64
	HasProperty   bool
}

// Performance is the projected state of a single investment.
type Performance struct {
	InvestmentID     string  `json:"investment_id"`
	PropertyID       string  `json:"property_id"`
	PropertyTitle    string  `json:"property_title"`
	PropertyType     string  `json:"property_type"`
	InvestmentAmount int64   `json:"investment_amount"`
	CurrentValue     int64   `json:"current_value"`
	ReturnAmount     int64   `json:"return_amount"`
	ROIPercentage    float64 `json:"roi_percentage"`
	MonthsHeld       int     `json:"months_held"`
	Trend            Trend   `json:"trend"`
}

// Summary rolls up every confirmed investment of a user.
type Summary struct {
	TotalInvested     int64   `json:"total_invested"`
	CurrentValue      int64   `json:"current_value"`
	TotalReturn       int64   `json:"total_return"`
	ROIPercentage     float64 `json:"roi_percentage"`
	AnnualReturn      int64   `json:"annual_return"`
	MonthlyReturn     int64   `json:"monthly_return"`
	ActiveInvestments int     `json:"active_investments"`
	PropertiesCount   int     `json:"properties_count"`
	MissingProperties int     `json:"missing_properties"`
}

// Breakdown is the share of the portfolio held in one property type.
type Breakdown struct {
	PropertyType          string  `json:"property_type"`
	TotalInvested         int64   `json:"total_invested"`
	CurrentValue          int64   `json:"current_value"`
	PropertiesCount       int     `json:"properties_count"`
	InvestmentsCount      int     `json:"investments_count"`
	AverageROI            float64 `json:"average_roi"`
	PercentageOfPortfolio int     `json:"percentage_of_portfolio"`
}

// Project values a holding as if its property's expected annual ROI accrued
// linearly over the months held. A holding without a property keeps its face
// amount with zero growth.
func Project(h Holding, now time.Time) Performance {
	months := MonthsHeld(h.HeldSince, now)

	current := h.Amount
	if h.HasProperty {
		// roi/100 * months/12, divided once to stay exact for whole percentages
		growth := decimal.NewFromFloat(h.ExpectedROI).
			Mul(decimal.NewFromInt(int64(months))).
			Div(hundred.Mul(twelve))
		current = decimal.NewFromInt(h.Amount).
			Mul(decimal.NewFromInt(1).Add(growth)).
			Round(0).
			IntPart()
	}

	ret := current - h.Amount
	roi := roiPercent(ret, h.Amount)

	return Performance{
		InvestmentID:     h.InvestmentID,
		PropertyID:       h.PropertyID,
		PropertyTitle:    h.PropertyTitle,
		PropertyType:     h.PropertyType,
		InvestmentAmount: h.Amount,
		CurrentValue:     current,
		ReturnAmount:     ret,
		ROIPercentage:    roi,
		MonthsHeld:       months,
		Trend:            ClassifyTrend(roi),
	}
}

// ProjectAll projects every holding, preserving input order.
func ProjectAll(holdings []Holding, now time.Time) []Performance {
	out := make([]Performance, 0, len(holdings))
	for i := range holdings {
		out = append(out, Project(holdings[i], now))
	}
	return out
}

// Summarize aggregates holdings into a portfolio summary. An empty input
// yields the zero Summary.
func Summarize(holdings []Holding, now time.Time) Summary {
	var s Summary
	annual := decimal.Zero
	properties := make(map[string]struct{})

	for i := range holdings {
		h := holdings[i]
		p := Project(h, now)

		s.TotalInvested += h.Amount
		s.CurrentValue += p.CurrentValue
		s.ActiveInvestments++

		if !h.HasProperty {
			s.MissingProperties++
			continue
		}
		properties[h.PropertyID] = struct{}{}
		annual = annual.Add(decimal.NewFromInt(h.Amount).
			Mul(decimal.NewFromFloat(h.ExpectedROI)).
			Div(hundred))
	}

	s.TotalReturn = s.CurrentValue - s.TotalInvested
	s.ROIPercentage = roiPercent(s.TotalReturn, s.TotalInvested)
	s.AnnualReturn = annual.Round(0).IntPart()
	s.MonthlyReturn = annual.Div(twelve).Round(0).IntPart()
	s.PropertiesCount = len(properties)
	return s
}

// BreakdownByType groups holdings by property type in first-seen order.
// Holdings without a property are left out of every group, while percentages
// stay relative to the total invested across all holdings.
func BreakdownByType(holdings []Holding, now time.Time) []Breakdown {
	var total int64
	for i := range holdings {
		total += holdings[i].Amount
	}

	type group struct {
		out        Breakdown
		roiSum     decimal.Decimal
		properties map[string]struct{}
	}

	var order []string
	groups := make(map[string]*group)

	for i := range holdings {
		h := holdings[i]
		if !h.HasProperty {
			continue
		}
		g, ok := groups[h.PropertyType]
		if !ok {
			g = &group{
				out:        Breakdown{PropertyType: h.PropertyType},
				roiSum:     decimal.Zero,
				properties: make(map[string]struct{}),
			}
			groups[h.PropertyType] = g
			order = append(order, h.PropertyType)
		}

		g.out.TotalInvested += h.Amount
		g.out.CurrentValue += Project(h, now).CurrentValue
		g.out.InvestmentsCount++
		g.roiSum = g.roiSum.Add(decimal.NewFromFloat(h.ExpectedROI))
		g.properties[h.PropertyID] = struct{}{}
	}

	result := make([]Breakdown, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.out.PropertiesCount = len(g.properties)
		g.out.AverageROI = g.roiSum.
			Div(decimal.NewFromInt(int64(g.out.InvestmentsCount))).
			Round(2).
			InexactFloat64()
		if total > 0 {
			g.out.PercentageOfPortfolio = int(decimal.NewFromInt(g.out.TotalInvested).
				Div(decimal.NewFromInt(total)).
				Mul(hundred).
				Round(0).
				IntPart())
		}
		result = append(result, g.out)
	}
	return result
}
