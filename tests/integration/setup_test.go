package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"igudar/internal/logger"
	"igudar/internal/models"
	"igudar/internal/router"
	"igudar/internal/services"
	"igudar/internal/storage"
	"igudar/internal/testutil"
	"igudar/internal/validator"
)

const (
	pipelineKey    = "test-pipeline-key"
	publicBaseURL  = "http://igudar.test"
	maxUploadBytes = 64 << 10
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a throwaway document directory.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open document store: %v", err)
	}
	signer := storage.NewURLSigner("test-download-secret", publicBaseURL, 0)

	userService := services.NewUserService(db)
	propertyService := services.NewPropertyService(db)
	investmentService := services.NewInvestmentService(db)

	engine := router.New(router.Services{
		Users:       userService,
		Properties:  propertyService,
		Investments: investmentService,
		Dashboard:   services.NewDashboardService(investmentService, propertyService),
		Snapshots:   services.NewPortfolioSnapshotService(db),
		Documents:   services.NewDocumentService(db, store, signer, maxUploadBytes),
		Profile:     services.NewProfileService(db, userService),
		Billing:     services.NewBillingService(db),
		Audit:       services.NewAuditService(db),
	}, router.Options{
		PipelineAPIKey: pipelineKey,
		MaxUploadBytes: maxUploadBytes,
	})

	return &testApp{DB: db, Router: engine}
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return app.do(req)
}

// pipeline calls a pipeline endpoint with the configured API key.
func (app *testApp) pipeline(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", pipelineKey)
	return app.do(req)
}

// upload posts a multipart document.
func (app *testApp) upload(t *testing.T, token string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return app.do(req)
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// expect asserts the status code and returns the parsed envelope.
func expect(t *testing.T, rec *httptest.ResponseRecorder, status int) map[string]interface{} {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

// data returns the envelope payload of a successful response as an object.
func data(t *testing.T, rec *httptest.ResponseRecorder, status int) map[string]interface{} {
	t.Helper()
	body := expect(t, rec, status)
	if body["success"] != true {
		t.Fatalf("expected success envelope, got %v", body)
	}
	obj, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object payload, got %T: %s", body["data"], rec.Body.String())
	}
	return obj
}

// list returns the envelope payload of a successful response as an array.
func list(t *testing.T, rec *httptest.ResponseRecorder) []interface{} {
	t.Helper()
	body := expect(t, rec, http.StatusOK)
	items, ok := body["data"].([]interface{})
	if !ok {
		t.Fatalf("expected array payload, got %T: %s", body["data"], rec.Body.String())
	}
	return items
}

// page returns the items of a paginated payload.
func page(t *testing.T, rec *httptest.ResponseRecorder) ([]interface{}, float64) {
	t.Helper()
	p := data(t, rec, http.StatusOK)
	items, ok := p["data"].([]interface{})
	if !ok {
		t.Fatalf("expected page items, got %v", p)
	}
	return items, p["total_items"].(float64)
}

// expectError asserts a failure envelope with the given status and code.
func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	body := expect(t, rec, status)
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["code"] != code {
		t.Errorf("expected code %s, got %v", code, body["code"])
	}
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	result := data(t, app.request(http.MethodPost, "/api/v1/auth/register", body, ""), http.StatusCreated)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	result := data(t, app.request(http.MethodPost, "/api/v1/auth/login", body, ""), http.StatusOK)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// registerIssuer registers a user, promotes them to issuer and returns a
// fresh access token carrying the new role.
func (app *testApp) registerIssuer(t *testing.T, email string) (token, userID string) {
	t.Helper()
	_, _, userID = app.registerUser(t, email, "password123")
	if err := app.DB.Model(&models.User{}).Where("id = ?", userID).Update("role", models.RoleIssuer).Error; err != nil {
		t.Fatalf("promote issuer: %v", err)
	}
	token, _ = app.loginUser(t, email, "password123")
	return token, userID
}

// createProperty lists a funding property: 1,000,000.00 MAD in 1000 shares,
// 12% expected ROI over 36 months, 1,000.00 MAD minimum.
func (app *testApp) createProperty(t *testing.T, token, title, propertyType string) string {
	t.Helper()
	body := fmt.Sprintf(`{
		"title": %q,
		"city": "Casablanca",
		"property_type": %q,
		"status": "funding",
		"price": 100000000,
		"target_amount": 100000000,
		"min_investment": 100000,
		"expected_roi": 12,
		"investment_period": 36,
		"shares_total": 1000
	}`, title, propertyType)
	result := data(t, app.request(http.MethodPost, "/api/v1/properties", body, token), http.StatusCreated)
	return result["id"].(string)
}

// invest creates an investment and returns its ID.
func (app *testApp) invest(t *testing.T, token, propertyID string, amount int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"property_id":%q,"investment_amount":%d}`, propertyID, amount)
	result := data(t, app.request(http.MethodPost, "/api/v1/investments", body, token), http.StatusCreated)
	return result["id"].(string)
}
