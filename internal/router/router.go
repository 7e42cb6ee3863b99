// Package router holds the HTTP route table shared by the API server and
// the integration tests.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"igudar/internal/handlers"
	"igudar/internal/logger"
	"igudar/internal/middleware"
	"igudar/internal/models"
	"igudar/internal/services"

	_ "igudar/internal/docs" // swagger docs
)

// healthTimeout bounds the database ping behind /api/health.
const healthTimeout = 2 * time.Second

// Services are the domain services the routes dispatch to.
type Services struct {
	Users       services.UserServicer
	Properties  services.PropertyServicer
	Investments services.InvestmentServicer
	Dashboard   services.DashboardServicer
	Snapshots   services.PortfolioSnapshotServicer
	Documents   services.DocumentServicer
	Profile     services.ProfileServicer
	Billing     services.BillingServicer
	Audit       services.AuditServicer
}

// Options tune the transport layer.
type Options struct {
	PipelineAPIKey string
	CORSOrigin     string
	MaxUploadBytes int64
	Swagger        bool
	RequestLogging bool
	// Ping reports database reachability for /api/health. Nil skips the check.
	Ping func(ctx context.Context) error
}

// New builds the gin engine with every route mounted.
func New(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users)
	propertyHandler := handlers.NewPropertyHandler(svc.Properties, svc.Investments, svc.Audit)
	investmentHandler := handlers.NewInvestmentHandler(svc.Investments, svc.Audit)
	portfolioHandler := handlers.NewPortfolioHandler(svc.Investments)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	snapshotHandler := handlers.NewPortfolioSnapshotHandler(svc.Snapshots)
	documentHandler := handlers.NewDocumentHandler(svc.Documents, svc.Audit, opts.MaxUploadBytes)
	profileHandler := handlers.NewProfileHandler(svc.Profile, svc.Audit)
	billingHandler := handlers.NewBillingHandler(svc.Billing, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())
	if opts.CORSOrigin != "" {
		router.Use(middleware.CORS(opts.CORSOrigin))
	}

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", health(opts.Ping))

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.GET("/properties", propertyHandler.GetProperties)
	v1.GET("/properties/:id", propertyHandler.GetProperty)
	v1.GET("/documents/download", documentHandler.Download)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware())

	profile := protected.Group("/profile")
	profile.GET("", profileHandler.GetProfile)
	profile.PUT("", profileHandler.UpdateProfile)
	profile.PUT("/password", profileHandler.ChangePassword)
	profile.PUT("/notifications", profileHandler.UpdateNotificationSettings)

	properties := protected.Group("/properties")
	properties.GET("/:id/ownership", propertyHandler.GetOwnership)
	manage := properties.Group("", middleware.RequireRole(models.RoleIssuer, models.RoleAdmin))
	manage.POST("", propertyHandler.CreateProperty)
	manage.PUT("/:id", propertyHandler.UpdateProperty)
	manage.DELETE("/:id", propertyHandler.DeleteProperty)

	investments := protected.Group("/investments")
	investments.GET("", investmentHandler.GetInvestments)
	investments.POST("", investmentHandler.CreateInvestment)
	investments.GET("/:id", investmentHandler.GetInvestment)
	investments.POST("/:id/cancel", investmentHandler.CancelInvestment)

	portfolio := protected.Group("/portfolio")
	portfolio.GET("/summary", portfolioHandler.GetSummary)
	portfolio.GET("/performance", portfolioHandler.GetPerformance)
	portfolio.GET("/breakdown", portfolioHandler.GetBreakdown)
	portfolio.GET("/history", snapshotHandler.GetHistory)

	protected.GET("/dashboard", dashboardHandler.GetDashboard)

	documents := protected.Group("/documents")
	documents.GET("", documentHandler.GetDocuments)
	documents.POST("", documentHandler.UploadDocument)
	documents.DELETE("/:id", documentHandler.DeleteDocument)
	documents.GET("/:id/download-url", documentHandler.GetDownloadURL)

	billing := protected.Group("/billing")
	billing.GET("/payment-methods", billingHandler.GetPaymentMethods)
	billing.POST("/payment-methods", billingHandler.AddPaymentMethod)
	billing.PUT("/payment-methods/:id/default", billingHandler.SetDefaultPaymentMethod)
	billing.DELETE("/payment-methods/:id", billingHandler.RemovePaymentMethod)
	billing.GET("/address", billingHandler.GetBillingAddress)
	billing.PUT("/address", billingHandler.UpdateBillingAddress)

	// Pipeline routes (API key auth)
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(opts.PipelineAPIKey))
	pipeline.POST("/investments/:id/confirm", investmentHandler.ConfirmInvestment)
	pipeline.POST("/investments/:id/refund", investmentHandler.RefundInvestment)
	pipeline.POST("/snapshots", snapshotHandler.RecordSnapshots)

	return router
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.Get().Warnw("health check failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
