package services

import (
	"context"
	"testing"
	"time"

	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/testutil"
	"igudar/internal/valuation"

	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newInvestmentService(db *gorm.DB) *investmentService {
	svc := NewInvestmentService(db).(*investmentService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func reloadProperty(t *testing.T, db *gorm.DB, id string) *models.Property {
	t.Helper()
	var p models.Property
	if err := db.Unscoped().First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload property: %v", err)
	}
	return &p
}

func TestCreateInvestment(t *testing.T) {
	ctx := context.Background()

	t.Run("buys_whole_shares", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")

		inv, err := svc.CreateInvestment(ctx, user.ID, CreateInvestmentInput{PropertyID: property.ID, InvestmentAmount: 250_000})
		testutil.AssertNoError(t, err)

		if inv.Status != models.InvestmentStatusPending {
			t.Errorf("expected pending, got %s", inv.Status)
		}
		if inv.SharesPurchased != 2 {
			t.Errorf("expected 2 shares, got %d", inv.SharesPurchased)
		}
		if inv.PurchasePricePerShare != property.PricePerShare {
			t.Errorf("expected price per share %d, got %d", property.PricePerShare, inv.PurchasePricePerShare)
		}

		after := reloadProperty(t, db, property.ID)
		if after.TotalRaised != 0 || after.SharesAvailable != 1000 {
			t.Error("a pending investment must not touch the property aggregates")
		}
	})

	t.Run("with_owned_payment_method", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")
		method := testutil.CreateTestPaymentMethod(t, db, user.ID, true)

		inv, err := svc.CreateInvestment(ctx, user.ID, CreateInvestmentInput{PropertyID: property.ID, InvestmentAmount: 100_000, PaymentMethodID: &method.ID})
		testutil.AssertNoError(t, err)
		if inv.PaymentMethodID == nil || *inv.PaymentMethodID != method.ID {
			t.Error("expected payment method to be recorded")
		}
	})

	t.Run("payment_method_of_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")
		method := testutil.CreateTestPaymentMethod(t, db, other.ID, true)

		_, err := svc.CreateInvestment(ctx, user.ID, CreateInvestmentInput{PropertyID: property.ID, InvestmentAmount: 100_000, PaymentMethodID: &method.ID})
		testutil.AssertAppError(t, err, "PAYMENT_METHOD_NOT_FOUND")
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)

		_, err := svc.CreateInvestment(ctx, "user", CreateInvestmentInput{})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
		testutil.AssertFieldError(t, err, "property_id")
		testutil.AssertFieldError(t, err, "investment_amount")
	})

	t.Run("unknown_property", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)

		_, err := svc.CreateInvestment(ctx, "user", CreateInvestmentInput{PropertyID: "missing", InvestmentAmount: 100_000})
		testutil.AssertAppError(t, err, "PROPERTY_NOT_FOUND")
	})

	tests := []struct {
		name     string
		mutate   func(*models.Property)
		amount   int64
		wantCode string
	}{
		{"draft_property", func(p *models.Property) { p.Status = models.PropertyStatusDraft }, 100_000, "PROPERTY_NOT_OPEN"},
		{"funded_property", func(p *models.Property) { p.Status = models.PropertyStatusFunded }, 100_000, "PROPERTY_NOT_OPEN"},
		{"below_minimum", func(p *models.Property) {}, 99_999, "BELOW_MINIMUM_INVESTMENT"},
		{"exceeds_remaining", func(p *models.Property) { p.TotalRaised = 99_900_000 }, 200_000, "FUNDING_TARGET_EXCEEDED"},
		{"less_than_one_share", func(p *models.Property) { p.MinInvestment = 0 }, 50_000, "INVESTMENT_TOO_SMALL"},
		{"not_enough_shares", func(p *models.Property) { p.SharesAvailable = 1 }, 300_000, "INSUFFICIENT_SHARES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc := newInvestmentService(db)
			property := testutil.CreateTestProperty(t, db, "issuer", tt.mutate)

			_, err := svc.CreateInvestment(ctx, "user", CreateInvestmentInput{PropertyID: property.ID, InvestmentAmount: tt.amount})
			testutil.AssertAppError(t, err, tt.wantCode)
		})
	}
}

func TestConfirmInvestment(t *testing.T) {
	ctx := context.Background()

	t.Run("updates_property_aggregates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")

		first := testutil.CreateTestInvestment(t, db, user.ID, property, 300_000, models.InvestmentStatusPending, nil)
		second := testutil.CreateTestInvestment(t, db, user.ID, property, 200_000, models.InvestmentStatusPending, nil)

		inv, err := svc.ConfirmInvestment(ctx, first.ID)
		testutil.AssertNoError(t, err)
		if inv.Status != models.InvestmentStatusConfirmed || inv.ConfirmedAt == nil || !inv.ConfirmedAt.Equal(fixedNow) {
			t.Errorf("expected confirmed at %v, got %s at %v", fixedNow, inv.Status, inv.ConfirmedAt)
		}

		_, err = svc.ConfirmInvestment(ctx, second.ID)
		testutil.AssertNoError(t, err)

		after := reloadProperty(t, db, property.ID)
		if after.TotalRaised != 500_000 {
			t.Errorf("expected total raised 500000, got %d", after.TotalRaised)
		}
		if after.SharesAvailable != 995 {
			t.Errorf("expected 995 shares available, got %d", after.SharesAvailable)
		}
		if after.TotalInvestors != 1 {
			t.Errorf("expected one distinct investor, got %d", after.TotalInvestors)
		}
		if after.Status != models.PropertyStatusFunding {
			t.Errorf("expected funding, got %s", after.Status)
		}
	})

	t.Run("reaching_target_marks_funded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer", func(p *models.Property) {
			p.Status = models.PropertyStatusFunding
			p.TotalRaised = 99_900_000
			p.SharesAvailable = 1
			p.TotalInvestors = 40
		})
		inv := testutil.CreateTestInvestment(t, db, user.ID, property, 100_000, models.InvestmentStatusPending, nil)

		_, err := svc.ConfirmInvestment(ctx, inv.ID)
		testutil.AssertNoError(t, err)

		after := reloadProperty(t, db, property.ID)
		if after.Status != models.PropertyStatusFunded || after.FundingProgress != 100 {
			t.Errorf("expected funded at 100%%, got %s at %d%%", after.Status, after.FundingProgress)
		}
		if after.SharesAvailable != 0 || after.TotalInvestors != 41 {
			t.Errorf("unexpected aggregates: shares=%d investors=%d", after.SharesAvailable, after.TotalInvestors)
		}
	})

	t.Run("twice_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")
		inv := testutil.CreateTestInvestment(t, db, user.ID, property, 100_000, models.InvestmentStatusPending, nil)

		_, err := svc.ConfirmInvestment(ctx, inv.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.ConfirmInvestment(ctx, inv.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

		if after := reloadProperty(t, db, property.ID); after.TotalRaised != 100_000 {
			t.Errorf("expected aggregates applied once, got total raised %d", after.TotalRaised)
		}
	})

	t.Run("shares_sold_out_meanwhile", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")
		inv := testutil.CreateTestInvestment(t, db, user.ID, property, 300_000, models.InvestmentStatusPending, nil)
		db.Model(&models.Property{}).Where("id = ?", property.ID).Update("shares_available", 2)

		_, err := svc.ConfirmInvestment(ctx, inv.ID)
		testutil.AssertAppError(t, err, "INSUFFICIENT_SHARES")
	})

	t.Run("beyond_target_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer", func(p *models.Property) { p.TargetAmount = 50_000_000 })
		first := testutil.CreateTestInvestment(t, db, user.ID, property, 30_000_000, models.InvestmentStatusPending, nil)
		second := testutil.CreateTestInvestment(t, db, user.ID, property, 30_000_000, models.InvestmentStatusPending, nil)

		_, err := svc.ConfirmInvestment(ctx, first.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.ConfirmInvestment(ctx, second.ID)
		testutil.AssertAppError(t, err, "FUNDING_TARGET_EXCEEDED")

		after := reloadProperty(t, db, property.ID)
		if after.TotalRaised != 30_000_000 {
			t.Errorf("expected total raised 30000000, got %d", after.TotalRaised)
		}
		var stale models.Investment
		db.First(&stale, "id = ?", second.ID)
		if stale.Status != models.InvestmentStatusPending {
			t.Errorf("expected rejected stake to stay pending, got %s", stale.Status)
		}
	})

	t.Run("closed_property_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")
		inv := testutil.CreateTestInvestment(t, db, user.ID, property, 100_000, models.InvestmentStatusPending, nil)
		db.Model(&models.Property{}).Where("id = ?", property.ID).Update("status", models.PropertyStatusCancelled)

		_, err := svc.ConfirmInvestment(ctx, inv.ID)
		testutil.AssertAppError(t, err, "PROPERTY_NOT_OPEN")

		if after := reloadProperty(t, db, property.ID); after.TotalRaised != 0 {
			t.Errorf("expected no aggregates applied, got total raised %d", after.TotalRaised)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)

		_, err := svc.ConfirmInvestment(ctx, "missing")
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})
}

func TestCancelInvestment(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newInvestmentService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	property := testutil.CreateTestProperty(t, db, "issuer")

	pending := testutil.CreateTestInvestment(t, db, user.ID, property, 100_000, models.InvestmentStatusPending, nil)
	confirmed := testutil.CreateTestInvestment(t, db, user.ID, property, 100_000, models.InvestmentStatusConfirmed, nil)

	t.Run("pending", func(t *testing.T) {
		inv, err := svc.CancelInvestment(ctx, user.ID, pending.ID)
		testutil.AssertNoError(t, err)
		if inv.Status != models.InvestmentStatusCancelled {
			t.Errorf("expected cancelled, got %s", inv.Status)
		}
	})

	t.Run("already_cancelled", func(t *testing.T) {
		_, err := svc.CancelInvestment(ctx, user.ID, pending.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})

	t.Run("confirmed", func(t *testing.T) {
		_, err := svc.CancelInvestment(ctx, user.ID, confirmed.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})

	t.Run("other_users_investment", func(t *testing.T) {
		_, err := svc.CancelInvestment(ctx, other.ID, confirmed.ID)
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})
}

func TestRefundInvestment(t *testing.T) {
	ctx := context.Background()

	t.Run("reverses_aggregates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer", func(p *models.Property) { p.TargetAmount = 500_000 })
		inv := testutil.CreateTestInvestment(t, db, user.ID, property, 500_000, models.InvestmentStatusPending, nil)

		_, err := svc.ConfirmInvestment(ctx, inv.ID)
		testutil.AssertNoError(t, err)
		if after := reloadProperty(t, db, property.ID); after.Status != models.PropertyStatusFunded {
			t.Fatalf("expected funded before refund, got %s", after.Status)
		}

		refunded, err := svc.RefundInvestment(ctx, inv.ID)
		testutil.AssertNoError(t, err)
		if refunded.Status != models.InvestmentStatusRefunded {
			t.Errorf("expected refunded, got %s", refunded.Status)
		}

		after := reloadProperty(t, db, property.ID)
		if after.TotalRaised != 0 || after.SharesAvailable != 1000 || after.TotalInvestors != 0 {
			t.Errorf("expected aggregates back to zero, got raised=%d shares=%d investors=%d",
				after.TotalRaised, after.SharesAvailable, after.TotalInvestors)
		}
		if after.Status != models.PropertyStatusFunding {
			t.Errorf("expected funding after refund, got %s", after.Status)
		}
	})

	t.Run("keeps_investor_with_other_stake", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		user := testutil.CreateTestUser(t, db)
		property := testutil.CreateTestProperty(t, db, "issuer")
		a := testutil.CreateTestInvestment(t, db, user.ID, property, 100_000, models.InvestmentStatusPending, nil)
		b := testutil.CreateTestInvestment(t, db, user.ID, property, 100_000, models.InvestmentStatusPending, nil)

		for _, id := range []string{a.ID, b.ID} {
			_, err := svc.ConfirmInvestment(ctx, id)
			testutil.AssertNoError(t, err)
		}
		_, err := svc.RefundInvestment(ctx, a.ID)
		testutil.AssertNoError(t, err)

		if after := reloadProperty(t, db, property.ID); after.TotalInvestors != 1 {
			t.Errorf("expected investor to remain counted, got %d", after.TotalInvestors)
		}
	})

	t.Run("pending_cannot_be_refunded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db)
		property := testutil.CreateTestProperty(t, db, "issuer")
		inv := testutil.CreateTestInvestment(t, db, "user", property, 100_000, models.InvestmentStatusPending, nil)

		_, err := svc.RefundInvestment(ctx, inv.ID)
		testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")
	})
}

func TestGetUserInvestments(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newInvestmentService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	p1 := testutil.CreateTestProperty(t, db, "issuer")
	p2 := testutil.CreateTestProperty(t, db, "issuer")

	testutil.CreateTestInvestment(t, db, user.ID, p1, 100_000, models.InvestmentStatusConfirmed, nil)
	testutil.CreateTestInvestment(t, db, user.ID, p2, 200_000, models.InvestmentStatusPending, nil)
	testutil.CreateTestInvestment(t, db, other.ID, p1, 300_000, models.InvestmentStatusConfirmed, nil)

	resp, err := svc.GetUserInvestments(ctx, user.ID, InvestmentFilter{}, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 2 {
		t.Fatalf("expected 2 investments, got %d", resp.TotalItems)
	}
	for _, inv := range resp.Data {
		if inv.Property == nil {
			t.Error("expected property to be preloaded")
		}
	}

	confirmed := models.InvestmentStatusConfirmed
	resp, err = svc.GetUserInvestments(ctx, user.ID, InvestmentFilter{Status: &confirmed}, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 1 || resp.Data[0].PropertyID != p1.ID {
		t.Errorf("expected the confirmed investment in %s, got %+v", p1.ID, resp.Data)
	}

	resp, err = svc.GetUserInvestments(ctx, user.ID, InvestmentFilter{PropertyID: p2.ID}, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if resp.TotalItems != 1 || resp.Data[0].InvestmentAmount != 200_000 {
		t.Errorf("expected the investment in %s, got %+v", p2.ID, resp.Data)
	}
}

func TestPortfolioValuation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newInvestmentService(db)
	user := testutil.CreateTestUser(t, db)

	yearAgo := fixedNow.AddDate(0, 0, -360)
	residential := testutil.CreateTestProperty(t, db, "issuer")
	commercial := testutil.CreateTestProperty(t, db, "issuer", func(p *models.Property) {
		p.PropertyType = models.PropertyTypeCommercial
		p.ExpectedROI = 8
	})
	testutil.CreateTestInvestment(t, db, user.ID, residential, 1_000_000, models.InvestmentStatusConfirmed, &yearAgo)
	testutil.CreateTestInvestment(t, db, user.ID, commercial, 3_000_000, models.InvestmentStatusConfirmed, &yearAgo)
	testutil.CreateTestInvestment(t, db, user.ID, commercial, 500_000, models.InvestmentStatusPending, nil)

	t.Run("summary", func(t *testing.T) {
		s, err := svc.GetPortfolioSummary(ctx, user.ID)
		testutil.AssertNoError(t, err)

		if s.TotalInvested != 4_000_000 {
			t.Errorf("expected only confirmed stakes counted, got %d", s.TotalInvested)
		}
		// 1,000,000 at 12% and 3,000,000 at 8% for twelve months
		if s.CurrentValue != 4_360_000 {
			t.Errorf("expected current value 4360000, got %d", s.CurrentValue)
		}
		if s.TotalReturn != 360_000 || s.ROIPercentage != 9 {
			t.Errorf("expected return 360000 (9%%), got %d (%v%%)", s.TotalReturn, s.ROIPercentage)
		}
		if s.AnnualReturn != 360_000 || s.MonthlyReturn != 30_000 {
			t.Errorf("unexpected annual/monthly: %d/%d", s.AnnualReturn, s.MonthlyReturn)
		}
		if s.ActiveInvestments != 2 || s.PropertiesCount != 2 {
			t.Errorf("unexpected counts: %d investments, %d properties", s.ActiveInvestments, s.PropertiesCount)
		}
	})

	t.Run("performance", func(t *testing.T) {
		perf, err := svc.GetInvestmentPerformance(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if len(perf) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(perf))
		}
		for _, p := range perf {
			if p.MonthsHeld != 12 {
				t.Errorf("expected 12 months held, got %d", p.MonthsHeld)
			}
			if p.Trend != valuation.TrendUp {
				t.Errorf("expected up trend, got %s", p.Trend)
			}
		}
	})

	t.Run("breakdown", func(t *testing.T) {
		breakdown, err := svc.GetPortfolioBreakdown(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if len(breakdown) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(breakdown))
		}
		shares := map[string]int{}
		for _, b := range breakdown {
			shares[b.PropertyType] = b.PercentageOfPortfolio
		}
		if shares["residential"] != 25 || shares["commercial"] != 75 {
			t.Errorf("unexpected percentages: %v", shares)
		}
	})

	t.Run("empty_portfolio", func(t *testing.T) {
		s, err := svc.GetPortfolioSummary(ctx, "nobody")
		testutil.AssertNoError(t, err)
		if *s != (valuation.Summary{}) {
			t.Errorf("expected zero summary, got %+v", s)
		}
	})
}

func TestPortfolioValuation_MissingProperty(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newInvestmentService(db)
	user := testutil.CreateTestUser(t, db)

	yearAgo := fixedNow.AddDate(0, 0, -360)
	kept := testutil.CreateTestProperty(t, db, "issuer")
	gone := testutil.CreateTestProperty(t, db, "issuer", func(p *models.Property) { p.PropertyType = models.PropertyTypeLand })
	testutil.CreateTestInvestment(t, db, user.ID, kept, 1_000_000, models.InvestmentStatusConfirmed, &yearAgo)
	testutil.CreateTestInvestment(t, db, user.ID, gone, 1_000_000, models.InvestmentStatusConfirmed, &yearAgo)
	if err := db.Delete(gone).Error; err != nil {
		t.Fatalf("failed to delete property: %v", err)
	}

	s, err := svc.GetPortfolioSummary(ctx, user.ID)
	testutil.AssertNoError(t, err)
	if s.TotalInvested != 2_000_000 || s.CurrentValue != 2_120_000 {
		t.Errorf("expected the orphaned stake at face value, got invested=%d value=%d", s.TotalInvested, s.CurrentValue)
	}
	if s.MissingProperties != 1 || s.PropertiesCount != 1 {
		t.Errorf("expected one missing property, got %+v", s)
	}

	breakdown, err := svc.GetPortfolioBreakdown(ctx, user.ID)
	testutil.AssertNoError(t, err)
	if len(breakdown) != 1 || breakdown[0].PercentageOfPortfolio != 50 {
		t.Errorf("expected only the residential group at 50%%, got %+v", breakdown)
	}
}

func TestGetOwnershipPercentage(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newInvestmentService(db)
	user := testutil.CreateTestUser(t, db)
	property := testutil.CreateTestProperty(t, db, "issuer")

	testutil.CreateTestInvestment(t, db, user.ID, property, 20_000_000, models.InvestmentStatusConfirmed, nil)
	testutil.CreateTestInvestment(t, db, user.ID, property, 5_000_000, models.InvestmentStatusConfirmed, nil)
	testutil.CreateTestInvestment(t, db, user.ID, property, 10_000_000, models.InvestmentStatusPending, nil)

	pct, err := svc.GetOwnershipPercentage(ctx, user.ID, property.ID)
	testutil.AssertNoError(t, err)
	if pct != 25 {
		t.Errorf("expected 25%% ownership, got %v", pct)
	}

	pct, err = svc.GetOwnershipPercentage(ctx, "nobody", property.ID)
	testutil.AssertNoError(t, err)
	if pct != 0 {
		t.Errorf("expected 0%% for a non-investor, got %v", pct)
	}

	_, err = svc.GetOwnershipPercentage(ctx, user.ID, "missing")
	testutil.AssertAppError(t, err, "PROPERTY_NOT_FOUND")
}
