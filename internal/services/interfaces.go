package services

import (
	"context"
	"io"
	"time"

	"igudar/internal/models"
	"igudar/internal/pagination"
	"igudar/internal/valuation"
)

// Actor identifies who is performing a write.
type Actor struct {
	UserID string
	Role   models.Role
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
	StoreRefreshTokenHash(ctx context.Context, userID, tokenHash string) error
	GetRefreshTokenHash(ctx context.Context, userID string) (string, error)
}

// PropertyFilter holds optional filter parameters for listing properties.
type PropertyFilter struct {
	Status       *models.PropertyStatus
	PropertyType *models.PropertyType
	City         string
	MinPrice     *int64
	MaxPrice     *int64
	MinROI       *float64
	Search       string
}

// PropertyInput carries the fields of a new listing.
type PropertyInput struct {
	Title            string
	Description      string
	Location         string
	City             string
	PropertyType     models.PropertyType
	Status           models.PropertyStatus
	Price            int64
	TargetAmount     int64
	MinInvestment    int64
	ExpectedROI      float64
	RentalYield      float64
	InvestmentPeriod int
	SharesTotal      int64
	FundingDeadline  *time.Time
	Images           []string
	Amenities        []string
}

// PropertyPatch carries the fields to change on a listing. Nil fields are kept.
type PropertyPatch struct {
	Title            *string
	Description      *string
	Location         *string
	City             *string
	PropertyType     *models.PropertyType
	Status           *models.PropertyStatus
	TargetAmount     *int64
	MinInvestment    *int64
	ExpectedROI      *float64
	RentalYield      *float64
	InvestmentPeriod *int
	FundingDeadline  *time.Time
	Images           []string
	Amenities        []string
}

// PropertyServicer defines the contract for property listings.
type PropertyServicer interface {
	GetProperties(ctx context.Context, filter PropertyFilter, page pagination.PageRequest, sort pagination.SortRequest) (*pagination.PageResponse[models.Property], error)
	GetPropertyByID(ctx context.Context, id string) (*models.Property, error)
	CreateProperty(ctx context.Context, actor Actor, input PropertyInput) (*models.Property, error)
	UpdateProperty(ctx context.Context, actor Actor, id string, patch PropertyPatch) (*models.Property, error)
	DeleteProperty(ctx context.Context, actor Actor, id string) error
	CountOpenProperties(ctx context.Context) (int64, error)
}

// InvestmentFilter holds optional filter parameters for listing investments.
type InvestmentFilter struct {
	Status     *models.InvestmentStatus
	PropertyID string
}

// CreateInvestmentInput is a request to buy into a property.
type CreateInvestmentInput struct {
	PropertyID       string
	InvestmentAmount int64
	PaymentMethodID  *string
}

// InvestmentServicer defines the contract for investments and portfolio valuation.
type InvestmentServicer interface {
	GetUserInvestments(ctx context.Context, userID string, filter InvestmentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Investment], error)
	GetInvestmentByID(ctx context.Context, userID, id string) (*models.Investment, error)
	CreateInvestment(ctx context.Context, userID string, input CreateInvestmentInput) (*models.Investment, error)
	CancelInvestment(ctx context.Context, userID, id string) (*models.Investment, error)
	ConfirmInvestment(ctx context.Context, id string) (*models.Investment, error)
	RefundInvestment(ctx context.Context, id string) (*models.Investment, error)
	GetPortfolioSummary(ctx context.Context, userID string) (*valuation.Summary, error)
	GetInvestmentPerformance(ctx context.Context, userID string) ([]valuation.Performance, error)
	GetPortfolioBreakdown(ctx context.Context, userID string) ([]valuation.Breakdown, error)
	GetOwnershipPercentage(ctx context.Context, userID, propertyID string) (float64, error)
}

// Dashboard is the landing view of an investor.
type Dashboard struct {
	Summary           valuation.Summary       `json:"summary"`
	Performance       []valuation.Performance `json:"performance"`
	Breakdown         []valuation.Breakdown   `json:"breakdown"`
	RecentInvestments []models.Investment     `json:"recent_investments"`
	OpenProperties    int64                   `json:"open_properties"`
}

// DashboardServicer assembles the dashboard view.
type DashboardServicer interface {
	GetDashboard(ctx context.Context, userID string) (*Dashboard, error)
}

// PortfolioSnapshotServicer defines the contract for portfolio history.
type PortfolioSnapshotServicer interface {
	RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error)
	GetSnapshots(ctx context.Context, userID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}

// DocumentFilter holds optional filter parameters for listing documents.
type DocumentFilter struct {
	Type       *models.DocumentType
	PropertyID string
}

// DocumentMeta describes an upload.
type DocumentMeta struct {
	Name         string
	Type         models.DocumentType
	PropertyID   *string
	InvestmentID *string
}

// DownloadLink is a time-limited URL to a document body.
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentServicer defines the contract for user documents.
type DocumentServicer interface {
	GetUserDocuments(ctx context.Context, userID string, filter DocumentFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Document], error)
	AddDocument(ctx context.Context, userID string, meta DocumentMeta, content io.Reader) (*models.Document, error)
	DeleteDocument(ctx context.Context, userID, id string) error
	GetDownloadURL(ctx context.Context, userID, id string) (*DownloadLink, error)
	OpenDownload(ctx context.Context, token string) (*models.Document, io.ReadCloser, error)
}

// ProfileUpdate carries the editable profile fields. Nil fields are kept.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Address     *string
	City        *string
	Country     *string
	DateOfBirth *time.Time
}

// NotificationSettings toggles outbound communication.
type NotificationSettings struct {
	Email     bool `json:"email_notifications"`
	SMS       bool `json:"sms_notifications"`
	Marketing bool `json:"marketing_emails"`
}

// ProfileServicer defines the contract for account settings.
type ProfileServicer interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	UpdateNotificationSettings(ctx context.Context, userID string, settings NotificationSettings) (*models.User, error)
}

// PaymentMethodInput describes a saved instrument.
type PaymentMethodInput struct {
	Type       models.PaymentMethodType
	Brand      string
	Last4      string
	ExpMonth   int
	ExpYear    int
	HolderName string
}

// BillingAddressInput is the full postal address.
type BillingAddressInput struct {
	Line1      string
	Line2      string
	City       string
	PostalCode string
	Region     string
	Country    string
}

// BillingServicer defines the contract for payment methods and the billing address.
type BillingServicer interface {
	GetPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error)
	AddPaymentMethod(ctx context.Context, userID string, input PaymentMethodInput) (*models.PaymentMethod, error)
	SetDefaultPaymentMethod(ctx context.Context, userID, id string) (*models.PaymentMethod, error)
	RemovePaymentMethod(ctx context.Context, userID, id string) error
	GetBillingAddress(ctx context.Context, userID string) (*models.BillingAddress, error)
	UpdateBillingAddress(ctx context.Context, userID string, input BillingAddressInput) (*models.BillingAddress, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
