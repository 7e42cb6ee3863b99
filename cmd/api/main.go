package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"igudar/internal/config"
	"igudar/internal/database"
	"igudar/internal/logger"
	"igudar/internal/money"
	"igudar/internal/router"
	"igudar/internal/services"
	"igudar/internal/storage"
	"igudar/internal/validator"
)

// @title           Igudar API
// @version         1.0
// @description     Igudar is a real-estate crowdfunding platform: investors browse fundable properties, buy fractional shares, and follow the projected value of their portfolio.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := money.SetCurrency(appConfig.Currency); err != nil {
		return fmt.Errorf("invalid CURRENCY: %w", err)
	}
	validator.Register()

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(database.DefaultMigrationsDir); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	store, err := storage.NewLocalStore(appConfig.StorageDir)
	if err != nil {
		return fmt.Errorf("failed to open document storage: %w", err)
	}
	signer := storage.NewURLSigner(appConfig.JWTSecret, appConfig.PublicBaseURL, appConfig.StorageURLTTL)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	propertyService := services.NewPropertyService(db)
	investmentService := services.NewInvestmentService(db)

	engine := router.New(router.Services{
		Users:       userService,
		Properties:  propertyService,
		Investments: investmentService,
		Dashboard:   services.NewDashboardService(investmentService, propertyService),
		Snapshots:   services.NewPortfolioSnapshotService(db),
		Documents:   services.NewDocumentService(db, store, signer, appConfig.MaxUploadBytes),
		Profile:     services.NewProfileService(db, userService),
		Billing:     services.NewBillingService(db),
		Audit:       services.NewAuditService(db),
	}, router.Options{
		PipelineAPIKey: appConfig.PipelineAPIKey,
		CORSOrigin:     appConfig.CORSOrigin,
		MaxUploadBytes: appConfig.MaxUploadBytes,
		Swagger:        appConfig.Env != "production",
		RequestLogging: true,
		Ping:           dbManager.Ping,
	})

	if appConfig.PipelineAPIKey == "" {
		log.Warn("PIPELINE_API_KEY is not set; pipeline endpoints will answer 503")
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Igudar backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
