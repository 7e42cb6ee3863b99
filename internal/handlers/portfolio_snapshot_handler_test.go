package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"igudar/internal/models"
	"igudar/internal/pagination"
)

var snapshotNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func setupSnapshotRouter(svc *mockSnapshotService) *gin.Engine {
	handler := NewPortfolioSnapshotHandler(svc)
	handler.now = func() time.Time { return snapshotNow }

	r := gin.New()
	// Pipeline route (no user auth)
	r.POST("/pipeline/snapshots", handler.RecordSnapshots)
	// User route (with auth)
	auth := r.Group("", injectUser(testUserID, models.RoleInvestor))
	auth.GET("/portfolio/history", handler.GetHistory)
	return r
}

func TestPortfolioSnapshotHandler_RecordSnapshots(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		var captured time.Time
		svc := &mockSnapshotService{
			recordSnapshotsFn: func(recordedAt time.Time) (int, error) {
				captured = recordedAt
				return 3, nil
			},
		}
		r := setupSnapshotRouter(svc)

		rec := doRequest(r, "POST", "/pipeline/snapshots", `{"recorded_at":"2026-02-09T12:00:00Z"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if data := dataOf(t, rec); data["snapshots_recorded"].(float64) != 3 {
			t.Errorf("expected snapshots_recorded=3, got %v", data["snapshots_recorded"])
		}
		if !captured.Equal(time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("recorded_at = %v", captured)
		}
	})

	t.Run("defaults_to_now_without_body", func(t *testing.T) {
		var captured time.Time
		svc := &mockSnapshotService{
			recordSnapshotsFn: func(recordedAt time.Time) (int, error) {
				captured = recordedAt
				return 0, nil
			},
		}
		r := setupSnapshotRouter(svc)

		rec := doRequest(r, "POST", "/pipeline/snapshots", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !captured.Equal(snapshotNow) {
			t.Errorf("expected %v, got %v", snapshotNow, captured)
		}
	})

	t.Run("returns_400_on_bad_time", func(t *testing.T) {
		r := setupSnapshotRouter(&mockSnapshotService{})

		rec := doRequest(r, "POST", "/pipeline/snapshots", `{"recorded_at":"yesterday"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_500_on_service_error", func(t *testing.T) {
		svc := &mockSnapshotService{
			recordSnapshotsFn: func(_ time.Time) (int, error) {
				return 0, fmt.Errorf("database error")
			},
		}
		r := setupSnapshotRouter(svc)

		rec := doRequest(r, "POST", "/pipeline/snapshots", `{"recorded_at":"2026-02-09T12:00:00Z"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}

func TestPortfolioSnapshotHandler_GetHistory(t *testing.T) {
	t.Run("returns_200_with_data", func(t *testing.T) {
		svc := &mockSnapshotService{
			getSnapshotsFn: func(_ string, _, _ time.Time, _ pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
				resp := pagination.NewPageResponse([]models.PortfolioSnapshot{
					{ID: "snap-1", UserID: testUserID, RecordedAt: snapshotNow, TotalInvested: 1000000, CurrentValue: 1060000, TotalReturn: 60000, ActiveInvestments: 1},
				}, 1, 20, 1)
				return &resp, nil
			},
		}
		r := setupSnapshotRouter(svc)

		rec := doRequest(r, "GET", "/portfolio/history?from_date=2026-01-01&to_date=2026-12-31", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		items := dataOf(t, rec)["data"].([]interface{})
		if len(items) != 1 {
			t.Fatalf("expected 1 snapshot, got %d", len(items))
		}
		if snap := items[0].(map[string]interface{}); snap["current_value"].(float64) != 1060000 {
			t.Errorf("expected current_value=1060000, got %v", snap["current_value"])
		}
	})

	t.Run("defaults_to_the_last_year", func(t *testing.T) {
		var from, to time.Time
		svc := &mockSnapshotService{
			getSnapshotsFn: func(_ string, f, tt time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
				from, to = f, tt
				resp := pagination.NewPageResponse[models.PortfolioSnapshot](nil, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupSnapshotRouter(svc)

		rec := doRequest(r, "GET", "/portfolio/history", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !to.Equal(snapshotNow) {
			t.Errorf("to = %v, want %v", to, snapshotNow)
		}
		if got := to.Sub(from); got != defaultHistoryWindow {
			t.Errorf("window = %v, want %v", got, defaultHistoryWindow)
		}
	})

	t.Run("returns_400_on_bad_dates", func(t *testing.T) {
		r := setupSnapshotRouter(&mockSnapshotService{})

		for _, q := range []string{"from_date=01/02/2026", "to_date=soon", "from_date=2026-12-31&to_date=2026-01-01"} {
			rec := doRequest(r, "GET", "/portfolio/history?"+q, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, rec.Code)
				continue
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		}
	})

	t.Run("returns_401_without_auth", func(t *testing.T) {
		handler := NewPortfolioSnapshotHandler(&mockSnapshotService{})
		r := gin.New()
		r.GET("/portfolio/history", handler.GetHistory)

		rec := doRequest(r, "GET", "/portfolio/history", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("passes_user_id_and_pagination_to_service", func(t *testing.T) {
		var capturedUserID string
		var capturedPage pagination.PageRequest
		svc := &mockSnapshotService{
			getSnapshotsFn: func(userID string, _, _ time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
				capturedUserID = userID
				capturedPage = page
				resp := pagination.NewPageResponse([]models.PortfolioSnapshot{}, 2, 5, 10)
				return &resp, nil
			},
		}
		r := setupSnapshotRouter(svc)

		rec := doRequest(r, "GET", "/portfolio/history?page=2&page_size=5", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if capturedUserID != testUserID {
			t.Errorf("expected userID=%s, got %s", testUserID, capturedUserID)
		}
		if capturedPage.Page != 2 || capturedPage.PageSize != 5 {
			t.Errorf("expected page 2/5, got %+v", capturedPage)
		}
	})
}
