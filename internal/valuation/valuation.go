// Package valuation holds the read-model arithmetic of the platform: funding
// progress and risk labels for properties, projected value of confirmed
// investments, and portfolio roll-ups.
//
// Everything here is a pure function over already-fetched values. Monetary
// amounts are minor units (cents); percentages are plain numbers (12 == 12%).
package valuation

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel is the coarse risk label shown next to a property.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Trend classifies the projected performance of an investment.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Thresholds for risk and trend classification.
const (
	lowRiskMinROI       = 10.0
	lowRiskMinProgress  = 80
	highRiskMaxROI      = 5.0
	highRiskMaxProgress = 50

	trendBand = 2.0
)

// daysPerMonth is the month length used for holding periods.
const daysPerMonth = 30

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// FundingProgress returns the percentage of target collected, rounded half up
// to an integer. A non-positive target yields 0.
func FundingProgress(totalRaised, targetAmount int64) int {
	if targetAmount <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(totalRaised).
		Div(decimal.NewFromInt(targetAmount)).
		Mul(hundred).
		Round(0)
	return int(pct.IntPart())
}

// RemainingFunding returns how much is still to be raised, never negative.
func RemainingFunding(totalRaised, targetAmount int64) int64 {
	if remaining := targetAmount - totalRaised; remaining > 0 {
		return remaining
	}
	return 0
}

// AssessRisk derives the risk label. The low band is checked before the high
// band; anything else is medium.
func AssessRisk(expectedROI float64, fundingProgress int) RiskLevel {
	if expectedROI >= lowRiskMinROI && fundingProgress >= lowRiskMinProgress {
		return RiskLow
	}
	if expectedROI < highRiskMaxROI || fundingProgress < highRiskMaxProgress {
		return RiskHigh
	}
	return RiskMedium
}

// MonthsHeld counts whole 30-day months between since and now, with a floor of 1.
func MonthsHeld(since, now time.Time) int {
	months := int(now.Sub(since) / (daysPerMonth * 24 * time.Hour))
	if months < 1 {
		return 1
	}
	return months
}

// ClassifyTrend maps a ROI percentage to a trend.
func ClassifyTrend(roiPercentage float64) Trend {
	switch {
	case roiPercentage > trendBand:
		return TrendUp
	case roiPercentage < -trendBand:
		return TrendDown
	default:
		return TrendStable
	}
}

// percentOf returns part/whole*100 rounded to two decimals, 0 when whole is 0.
func percentOf(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Div(decimal.NewFromInt(whole)).
		Mul(hundred).
		Round(2).
		InexactFloat64()
}

// roiPercent is percentOf for returns. A non-zero return never rounds to 0;
// it rounds away from zero to the nearest hundredth instead.
func roiPercent(ret, invested int64) float64 {
	if invested == 0 || ret == 0 {
		return 0
	}
	pct := decimal.NewFromInt(ret).
		Div(decimal.NewFromInt(invested)).
		Mul(hundred)
	if rounded := pct.Round(2); !rounded.IsZero() {
		return rounded.InexactFloat64()
	}
	return pct.RoundUp(2).InexactFloat64()
}

// Ownership returns shares/sharesTotal as a percentage rounded to two
// decimals, 0 when the property has no shares.
func Ownership(shares, sharesTotal int64) float64 {
	return percentOf(shares, sharesTotal)
}
