package services

import (
	"context"
	"testing"
	"time"

	"igudar/internal/models"
	"igudar/internal/testutil"
)

func validCard() PaymentMethodInput {
	return PaymentMethodInput{
		Type:       models.PaymentMethodCard,
		Brand:      "visa",
		Last4:      "4242",
		ExpMonth:   8,
		ExpYear:    fixedNow.Year() + 1,
		HolderName: "Amine Idrissi",
	}
}

func newBillingService(t *testing.T) (*billingService, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewBillingService(db).(*billingService)
	svc.now = func() time.Time { return fixedNow }
	return svc, func() { testutil.TeardownTestDB(t, db) }
}

func TestAddPaymentMethod(t *testing.T) {
	ctx := context.Background()

	t.Run("first_becomes_default", func(t *testing.T) {
		svc, done := newBillingService(t)
		defer done()

		first, err := svc.AddPaymentMethod(ctx, "user", validCard())
		testutil.AssertNoError(t, err)
		second, err := svc.AddPaymentMethod(ctx, "user", validCard())
		testutil.AssertNoError(t, err)

		if !first.IsDefault {
			t.Error("expected the first method to be default")
		}
		if second.IsDefault {
			t.Error("expected later methods not to be default")
		}
	})

	t.Run("bank_transfer_needs_no_expiry", func(t *testing.T) {
		svc, done := newBillingService(t)
		defer done()

		_, err := svc.AddPaymentMethod(ctx, "user", PaymentMethodInput{Type: models.PaymentMethodBank, Last4: "0012", HolderName: "Amine Idrissi"})
		testutil.AssertNoError(t, err)
	})

	tests := []struct {
		name   string
		mutate func(*PaymentMethodInput)
		field  string
	}{
		{"unknown_type", func(in *PaymentMethodInput) { in.Type = "crypto" }, "type"},
		{"short_last4", func(in *PaymentMethodInput) { in.Last4 = "42" }, "last4"},
		{"letters_in_last4", func(in *PaymentMethodInput) { in.Last4 = "42a2" }, "last4"},
		{"missing_holder", func(in *PaymentMethodInput) { in.HolderName = " " }, "holder_name"},
		{"bad_month", func(in *PaymentMethodInput) { in.ExpMonth = 13 }, "exp_month"},
		{"expired_year", func(in *PaymentMethodInput) { in.ExpYear = fixedNow.Year() - 1 }, "exp_year"},
		{"expired_this_year", func(in *PaymentMethodInput) { in.ExpYear = fixedNow.Year(); in.ExpMonth = int(fixedNow.Month()) - 1 }, "exp_year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, done := newBillingService(t)
			defer done()

			in := validCard()
			tt.mutate(&in)
			_, err := svc.AddPaymentMethod(ctx, "user", in)
			testutil.AssertAppError(t, err, "VALIDATION_FAILED")
			testutil.AssertFieldError(t, err, tt.field)
		})
	}
}

func TestSetDefaultPaymentMethod(t *testing.T) {
	ctx := context.Background()
	svc, done := newBillingService(t)
	defer done()

	a, _ := svc.AddPaymentMethod(ctx, "user", validCard())
	b, _ := svc.AddPaymentMethod(ctx, "user", validCard())

	got, err := svc.SetDefaultPaymentMethod(ctx, "user", b.ID)
	testutil.AssertNoError(t, err)
	if !got.IsDefault {
		t.Error("expected returned method to be default")
	}

	methods, err := svc.GetPaymentMethods(ctx, "user")
	testutil.AssertNoError(t, err)
	if methods[0].ID != b.ID || !methods[0].IsDefault {
		t.Errorf("expected %s listed first as default", b.ID)
	}
	for _, m := range methods {
		if m.ID == a.ID && m.IsDefault {
			t.Error("expected previous default to be cleared")
		}
	}

	_, err = svc.SetDefaultPaymentMethod(ctx, "someone-else", a.ID)
	testutil.AssertAppError(t, err, "PAYMENT_METHOD_NOT_FOUND")
}

func TestRemovePaymentMethod(t *testing.T) {
	ctx := context.Background()

	t.Run("default_is_handed_over", func(t *testing.T) {
		svc, done := newBillingService(t)
		defer done()

		a, _ := svc.AddPaymentMethod(ctx, "user", validCard())
		b, _ := svc.AddPaymentMethod(ctx, "user", validCard())

		testutil.AssertNoError(t, svc.RemovePaymentMethod(ctx, "user", a.ID))

		methods, err := svc.GetPaymentMethods(ctx, "user")
		testutil.AssertNoError(t, err)
		if len(methods) != 1 || methods[0].ID != b.ID || !methods[0].IsDefault {
			t.Errorf("expected %s to remain as default, got %+v", b.ID, methods)
		}
	})

	t.Run("last_method", func(t *testing.T) {
		svc, done := newBillingService(t)
		defer done()

		a, _ := svc.AddPaymentMethod(ctx, "user", validCard())
		testutil.AssertNoError(t, svc.RemovePaymentMethod(ctx, "user", a.ID))

		methods, err := svc.GetPaymentMethods(ctx, "user")
		testutil.AssertNoError(t, err)
		if len(methods) != 0 {
			t.Errorf("expected no methods, got %d", len(methods))
		}
	})

	t.Run("not_owned", func(t *testing.T) {
		svc, done := newBillingService(t)
		defer done()

		a, _ := svc.AddPaymentMethod(ctx, "user", validCard())
		err := svc.RemovePaymentMethod(ctx, "someone-else", a.ID)
		testutil.AssertAppError(t, err, "PAYMENT_METHOD_NOT_FOUND")
	})
}

func TestBillingAddress(t *testing.T) {
	ctx := context.Background()
	svc, done := newBillingService(t)
	defer done()

	_, err := svc.GetBillingAddress(ctx, "user")
	testutil.AssertAppError(t, err, "BILLING_ADDRESS_NOT_FOUND")

	created, err := svc.UpdateBillingAddress(ctx, "user", BillingAddressInput{Line1: "12 Rue Tarik", City: "Tangier", Country: "MA"})
	testutil.AssertNoError(t, err)

	updated, err := svc.UpdateBillingAddress(ctx, "user", BillingAddressInput{Line1: "7 Avenue Hassan II", City: "Tangier", PostalCode: "90000", Country: "MA"})
	testutil.AssertNoError(t, err)
	if updated.ID != created.ID {
		t.Error("expected the single address to be replaced in place")
	}

	got, err := svc.GetBillingAddress(ctx, "user")
	testutil.AssertNoError(t, err)
	if got.Line1 != "7 Avenue Hassan II" || got.PostalCode != "90000" {
		t.Errorf("unexpected address: %+v", got)
	}

	_, err = svc.UpdateBillingAddress(ctx, "user", BillingAddressInput{})
	testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	for _, field := range []string{"line1", "city", "country"} {
		testutil.AssertFieldError(t, err, field)
	}
}
