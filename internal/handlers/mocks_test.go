package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"igudar/internal/middleware"
	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/services"
	"igudar/internal/validator"
	"igudar/internal/valuation"
)

const (
	testUserID     = "0190f3c2-7a4e-7cc1-9f8e-3b6d8fa1c001"
	testPropertyID = "0190f3c2-7a4e-7cc1-9f8e-3b6d8fa1c002"
	testInvestID   = "0190f3c2-7a4e-7cc1-9f8e-3b6d8fa1c003"
	testDocumentID = "0190f3c2-7a4e-7cc1-9f8e-3b6d8fa1c004"
	testMethodID   = "0190f3c2-7a4e-7cc1-9f8e-3b6d8fa1c005"
)

// --- mock services ---

var (
	_ services.UserServicer              = (*mockUserService)(nil)
	_ services.PropertyServicer          = (*mockPropertyService)(nil)
	_ services.InvestmentServicer        = (*mockInvestmentService)(nil)
	_ services.DashboardServicer         = (*mockDashboardService)(nil)
	_ services.PortfolioSnapshotServicer = (*mockSnapshotService)(nil)
	_ services.DocumentServicer          = (*mockDocumentService)(nil)
	_ services.ProfileServicer           = (*mockProfileService)(nil)
	_ services.BillingServicer           = (*mockBillingService)(nil)
	_ services.AuditServicer             = (*mockAuditService)(nil)
)

type mockUserService struct {
	createUserFn            func(email, password, firstName, lastName string) (*models.User, error)
	getUserByIDFn           func(id string) (*models.User, error)
	attemptLoginFn          func(email, password string) (*models.User, error)
	storeRefreshTokenHashFn func(userID, tokenHash string) error
	getRefreshTokenHashFn   func(userID string) (string, error)
}

func (m *mockUserService) CreateUser(_ context.Context, email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) AttemptLogin(_ context.Context, email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) StoreRefreshTokenHash(_ context.Context, userID, tokenHash string) error {
	if m.storeRefreshTokenHashFn != nil {
		return m.storeRefreshTokenHashFn(userID, tokenHash)
	}
	return nil
}

func (m *mockUserService) GetRefreshTokenHash(_ context.Context, userID string) (string, error) {
	if m.getRefreshTokenHashFn != nil {
		return m.getRefreshTokenHashFn(userID)
	}
	return "", nil
}

type mockPropertyService struct {
	getPropertiesFn   func(filter services.PropertyFilter, page pagination.PageRequest, sort pagination.SortRequest) (*pagination.PageResponse[models.Property], error)
	getPropertyByIDFn func(id string) (*models.Property, error)
	createPropertyFn  func(actor services.Actor, input services.PropertyInput) (*models.Property, error)
	updatePropertyFn  func(actor services.Actor, id string, patch services.PropertyPatch) (*models.Property, error)
	deletePropertyFn  func(actor services.Actor, id string) error
}

func (m *mockPropertyService) GetProperties(_ context.Context, filter services.PropertyFilter, page pagination.PageRequest, sort pagination.SortRequest) (*pagination.PageResponse[models.Property], error) {
	if m.getPropertiesFn != nil {
		return m.getPropertiesFn(filter, page, sort)
	}
	resp := pagination.NewPageResponse[models.Property](nil, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockPropertyService) GetPropertyByID(_ context.Context, id string) (*models.Property, error) {
	if m.getPropertyByIDFn != nil {
		return m.getPropertyByIDFn(id)
	}
	return &models.Property{Base: models.Base{ID: id}}, nil
}

func (m *mockPropertyService) CreateProperty(_ context.Context, actor services.Actor, input services.PropertyInput) (*models.Property, error) {
	if m.createPropertyFn != nil {
		return m.createPropertyFn(actor, input)
	}
	return &models.Property{Base: models.Base{ID: testPropertyID}}, nil
}

func (m *mockPropertyService) UpdateProperty(_ context.Context, actor services.Actor, id string, patch services.PropertyPatch) (*models.Property, error) {
	if m.updatePropertyFn != nil {
		return m.updatePropertyFn(actor, id, patch)
	}
	return &models.Property{Base: models.Base{ID: id}}, nil
}

func (m *mockPropertyService) DeleteProperty(_ context.Context, actor services.Actor, id string) error {
	if m.deletePropertyFn != nil {
		return m.deletePropertyFn(actor, id)
	}
	return nil
}

func (m *mockPropertyService) CountOpenProperties(context.Context) (int64, error) { return 0, nil }

type mockInvestmentService struct {
	getUserInvestmentsFn func(userID string, filter services.InvestmentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	getInvestmentByIDFn  func(userID, id string) (*models.Investment, error)
	createInvestmentFn   func(userID string, input services.CreateInvestmentInput) (*models.Investment, error)
	cancelInvestmentFn   func(userID, id string) (*models.Investment, error)
	confirmInvestmentFn  func(id string) (*models.Investment, error)
	refundInvestmentFn   func(id string) (*models.Investment, error)
	getSummaryFn         func(userID string) (*valuation.Summary, error)
	getPerformanceFn     func(userID string) ([]valuation.Performance, error)
	getBreakdownFn       func(userID string) ([]valuation.Breakdown, error)
	getOwnershipFn       func(userID, propertyID string) (float64, error)
}

func (m *mockInvestmentService) GetUserInvestments(_ context.Context, userID string, filter services.InvestmentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error) {
	if m.getUserInvestmentsFn != nil {
		return m.getUserInvestmentsFn(userID, filter, page)
	}
	resp := pagination.NewPageResponse[models.Investment](nil, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockInvestmentService) GetInvestmentByID(_ context.Context, userID, id string) (*models.Investment, error) {
	if m.getInvestmentByIDFn != nil {
		return m.getInvestmentByIDFn(userID, id)
	}
	return &models.Investment{Base: models.Base{ID: id}, UserID: userID}, nil
}

func (m *mockInvestmentService) CreateInvestment(_ context.Context, userID string, input services.CreateInvestmentInput) (*models.Investment, error) {
	if m.createInvestmentFn != nil {
		return m.createInvestmentFn(userID, input)
	}
	return &models.Investment{Base: models.Base{ID: testInvestID}, UserID: userID}, nil
}

func (m *mockInvestmentService) CancelInvestment(_ context.Context, userID, id string) (*models.Investment, error) {
	if m.cancelInvestmentFn != nil {
		return m.cancelInvestmentFn(userID, id)
	}
	return &models.Investment{Base: models.Base{ID: id}, Status: models.InvestmentStatusCancelled}, nil
}

func (m *mockInvestmentService) ConfirmInvestment(_ context.Context, id string) (*models.Investment, error) {
	if m.confirmInvestmentFn != nil {
		return m.confirmInvestmentFn(id)
	}
	return &models.Investment{Base: models.Base{ID: id}, Status: models.InvestmentStatusConfirmed}, nil
}

func (m *mockInvestmentService) RefundInvestment(_ context.Context, id string) (*models.Investment, error) {
	if m.refundInvestmentFn != nil {
		return m.refundInvestmentFn(id)
	}
	return &models.Investment{Base: models.Base{ID: id}, Status: models.InvestmentStatusRefunded}, nil
}

func (m *mockInvestmentService) GetPortfolioSummary(_ context.Context, userID string) (*valuation.Summary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID)
	}
	return &valuation.Summary{}, nil
}

func (m *mockInvestmentService) GetInvestmentPerformance(_ context.Context, userID string) ([]valuation.Performance, error) {
	if m.getPerformanceFn != nil {
		return m.getPerformanceFn(userID)
	}
	return []valuation.Performance{}, nil
}

func (m *mockInvestmentService) GetPortfolioBreakdown(_ context.Context, userID string) ([]valuation.Breakdown, error) {
	if m.getBreakdownFn != nil {
		return m.getBreakdownFn(userID)
	}
	return []valuation.Breakdown{}, nil
}

func (m *mockInvestmentService) GetOwnershipPercentage(_ context.Context, userID, propertyID string) (float64, error) {
	if m.getOwnershipFn != nil {
		return m.getOwnershipFn(userID, propertyID)
	}
	return 0, nil
}

type mockDashboardService struct {
	getDashboardFn func(userID string) (*services.Dashboard, error)
}

func (m *mockDashboardService) GetDashboard(_ context.Context, userID string) (*services.Dashboard, error) {
	if m.getDashboardFn != nil {
		return m.getDashboardFn(userID)
	}
	return &services.Dashboard{}, nil
}

type mockSnapshotService struct {
	recordSnapshotsFn func(recordedAt time.Time) (int, error)
	getSnapshotsFn    func(userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}

func (m *mockSnapshotService) RecordSnapshots(_ context.Context, recordedAt time.Time) (int, error) {
	if m.recordSnapshotsFn != nil {
		return m.recordSnapshotsFn(recordedAt)
	}
	return 0, nil
}

func (m *mockSnapshotService) GetSnapshots(_ context.Context, userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	if m.getSnapshotsFn != nil {
		return m.getSnapshotsFn(userID, from, to, page)
	}
	resp := pagination.NewPageResponse[models.PortfolioSnapshot](nil, page.Page, page.PageSize, 0)
	return &resp, nil
}

type mockDocumentService struct {
	getUserDocumentsFn func(userID string, filter services.DocumentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error)
	addDocumentFn      func(userID string, meta services.DocumentMeta, content io.Reader) (*models.Document, error)
	deleteDocumentFn   func(userID, id string) error
	getDownloadURLFn   func(userID, id string) (*services.DownloadLink, error)
	openDownloadFn     func(token string) (*models.Document, io.ReadCloser, error)
}

func (m *mockDocumentService) GetUserDocuments(_ context.Context, userID string, filter services.DocumentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error) {
	if m.getUserDocumentsFn != nil {
		return m.getUserDocumentsFn(userID, filter, page)
	}
	resp := pagination.NewPageResponse[models.Document](nil, page.Page, page.PageSize, 0)
	return &resp, nil
}

func (m *mockDocumentService) AddDocument(_ context.Context, userID string, meta services.DocumentMeta, content io.Reader) (*models.Document, error) {
	if m.addDocumentFn != nil {
		return m.addDocumentFn(userID, meta, content)
	}
	return &models.Document{Base: models.Base{ID: testDocumentID}, UserID: userID}, nil
}

func (m *mockDocumentService) DeleteDocument(_ context.Context, userID, id string) error {
	if m.deleteDocumentFn != nil {
		return m.deleteDocumentFn(userID, id)
	}
	return nil
}

func (m *mockDocumentService) GetDownloadURL(_ context.Context, userID, id string) (*services.DownloadLink, error) {
	if m.getDownloadURLFn != nil {
		return m.getDownloadURLFn(userID, id)
	}
	return &services.DownloadLink{}, nil
}

func (m *mockDocumentService) OpenDownload(_ context.Context, token string) (*models.Document, io.ReadCloser, error) {
	if m.openDownloadFn != nil {
		return m.openDownloadFn(token)
	}
	return &models.Document{}, io.NopCloser(strings.NewReader("")), nil
}

type mockProfileService struct {
	getProfileFn          func(userID string) (*models.User, error)
	updateProfileFn       func(userID string, update services.ProfileUpdate) (*models.User, error)
	changePasswordFn      func(userID, current, next string) error
	updateNotificationsFn func(userID string, settings services.NotificationSettings) (*models.User, error)
}

func (m *mockProfileService) GetProfile(_ context.Context, userID string) (*models.User, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(userID)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockProfileService) UpdateProfile(_ context.Context, userID string, update services.ProfileUpdate) (*models.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(userID, update)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockProfileService) ChangePassword(_ context.Context, userID, current, next string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, current, next)
	}
	return nil
}

func (m *mockProfileService) UpdateNotificationSettings(_ context.Context, userID string, settings services.NotificationSettings) (*models.User, error) {
	if m.updateNotificationsFn != nil {
		return m.updateNotificationsFn(userID, settings)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

type mockBillingService struct {
	getPaymentMethodsFn    func(userID string) ([]models.PaymentMethod, error)
	addPaymentMethodFn     func(userID string, input services.PaymentMethodInput) (*models.PaymentMethod, error)
	setDefaultFn           func(userID, id string) (*models.PaymentMethod, error)
	removePaymentMethodFn  func(userID, id string) error
	getBillingAddressFn    func(userID string) (*models.BillingAddress, error)
	updateBillingAddressFn func(userID string, input services.BillingAddressInput) (*models.BillingAddress, error)
}

func (m *mockBillingService) GetPaymentMethods(_ context.Context, userID string) ([]models.PaymentMethod, error) {
	if m.getPaymentMethodsFn != nil {
		return m.getPaymentMethodsFn(userID)
	}
	return []models.PaymentMethod{}, nil
}

func (m *mockBillingService) AddPaymentMethod(_ context.Context, userID string, input services.PaymentMethodInput) (*models.PaymentMethod, error) {
	if m.addPaymentMethodFn != nil {
		return m.addPaymentMethodFn(userID, input)
	}
	return &models.PaymentMethod{Base: models.Base{ID: testMethodID}, UserID: userID}, nil
}

func (m *mockBillingService) SetDefaultPaymentMethod(_ context.Context, userID, id string) (*models.PaymentMethod, error) {
	if m.setDefaultFn != nil {
		return m.setDefaultFn(userID, id)
	}
	return &models.PaymentMethod{Base: models.Base{ID: id}, IsDefault: true}, nil
}

func (m *mockBillingService) RemovePaymentMethod(_ context.Context, userID, id string) error {
	if m.removePaymentMethodFn != nil {
		return m.removePaymentMethodFn(userID, id)
	}
	return nil
}

func (m *mockBillingService) GetBillingAddress(_ context.Context, userID string) (*models.BillingAddress, error) {
	if m.getBillingAddressFn != nil {
		return m.getBillingAddressFn(userID)
	}
	return &models.BillingAddress{UserID: userID}, nil
}

func (m *mockBillingService) UpdateBillingAddress(_ context.Context, userID string, input services.BillingAddressInput) (*models.BillingAddress, error) {
	if m.updateBillingAddressFn != nil {
		return m.updateBillingAddressFn(userID, input)
	}
	return &models.BillingAddress{UserID: userID}, nil
}

type auditEntry struct {
	UserID     string
	Action     string
	ResourceID string
}

// mockAuditService records every entry so tests can assert on them.
type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(_ context.Context, userID, action, _, resourceID, _ string, _ map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{UserID: userID, Action: action, ResourceID: resourceID})
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUser(userID string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// dataOf returns the envelope's data object.
func dataOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	result := parseJSON(t, rec)
	if result["success"] != true {
		t.Fatalf("expected success envelope, got: %v", result)
	}
	data, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected data object in response, got: %v", result)
	}
	return data
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	if result["success"] != false {
		t.Errorf("expected success=false, got %v", result["success"])
	}
	if result["code"] != code {
		t.Errorf("expected error code %q, got %q", code, result["code"])
	}
}
