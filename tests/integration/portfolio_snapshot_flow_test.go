package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestPortfolioSnapshotFlow_RecordAndHistory(t *testing.T) {
	app := setupApp(t)
	issuerToken, _ := app.registerIssuer(t, "issuer@example.com")
	investorToken, _, investorID := app.registerUser(t, "investor@example.com", "password123")
	idleToken, _, _ := app.registerUser(t, "idle@example.com", "password123")

	propertyID := app.createProperty(t, issuerToken, "Rabat Residences", "residential")
	id := app.invest(t, investorToken, propertyID, 12_000_000)
	data(t, app.pipeline(http.MethodPost, "/api/v1/pipeline/investments/"+id+"/confirm", ""), http.StatusOK)

	now := time.Now().UTC().Truncate(time.Second)
	for _, at := range []time.Time{now.Add(-48 * time.Hour), now.Add(-24 * time.Hour)} {
		rec := app.pipeline(http.MethodPost, "/api/v1/pipeline/snapshots", fmt.Sprintf(`{"recorded_at":%q}`, at.Format(time.RFC3339)))
		result := data(t, rec, http.StatusOK)
		if result["snapshots_recorded"].(float64) != 1 {
			t.Fatalf("expected one snapshot (only one user holds confirmed investments), got %v", result["snapshots_recorded"])
		}
	}

	// Re-recording the same instant overwrites instead of duplicating
	at := now.Add(-24 * time.Hour).Format(time.RFC3339)
	data(t, app.pipeline(http.MethodPost, "/api/v1/pipeline/snapshots", fmt.Sprintf(`{"recorded_at":%q}`, at)), http.StatusOK)

	// An empty body records at the current time
	result := data(t, app.pipeline(http.MethodPost, "/api/v1/pipeline/snapshots", ""), http.StatusOK)
	if result["recorded_at"] == nil {
		t.Error("expected recorded_at in response")
	}

	items, total := page(t, app.request(http.MethodGet, "/api/v1/portfolio/history", "", investorToken))
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3 snapshots in the default window, got %v", total)
	}
	first := items[0].(map[string]interface{})
	if first["user_id"] != investorID {
		t.Errorf("expected snapshot for %s, got %v", investorID, first["user_id"])
	}
	if first["total_invested"].(float64) != 12_000_000 || first["active_investments"].(float64) != 1 {
		t.Errorf("unexpected snapshot values: %v", first)
	}
	if first["current_value"].(float64) < first["total_invested"].(float64) {
		t.Errorf("expected non-negative growth at 12%%, got %v", first)
	}

	// Explicit range, oldest first
	from := now.Add(-72 * time.Hour).Format(time.RFC3339)
	to := now.Add(-36 * time.Hour).Format(time.RFC3339)
	items, total = page(t, app.request(http.MethodGet, "/api/v1/portfolio/history?from_date="+from+"&to_date="+to, "", investorToken))
	if total != 1 || len(items) != 1 {
		t.Errorf("expected 1 snapshot in range, got %v", total)
	}

	expectError(t, app.request(http.MethodGet, "/api/v1/portfolio/history?from_date=2026-05-01&to_date=2026-04-01", "", investorToken),
		http.StatusBadRequest, "INVALID_INPUT")

	// Users without confirmed investments have no history
	_, total = page(t, app.request(http.MethodGet, "/api/v1/portfolio/history", "", idleToken))
	if total != 0 {
		t.Errorf("expected empty history, got %v", total)
	}
}
