package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jcastellanos/credifacil-api/docs" // Swagger docs
	"github.com/jcastellanos/credifacil-api/internal/config"
	"github.com/jcastellanos/credifacil-api/internal/database"
	"github.com/jcastellanos/credifacil-api/internal/handlers"
	"github.com/jcastellanos/credifacil-api/internal/jobs"
	"github.com/jcastellanos/credifacil-api/internal/middleware"
	"github.com/jcastellanos/credifacil-api/internal/repository"
	"github.com/jcastellanos/credifacil-api/internal/services"
	"github.com/jcastellanos/credifacil-api/internal/storage"
	"github.com/jcastellanos/credifacil-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title CrediFacil API
// @version 1.0
// @description REST API for CrediFacil Micro-Credit Management System
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email soporte@credifacil.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Warn if Resend email is not configured
	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set. Set them in .env and ensure the From domain is verified in Resend dashboard.")
	}

	if cfg.SMSGatewayURL == "" {
		logger.Warn("SMS notifications disabled: SMS_GATEWAY_URL not set")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, store, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			protected.POST("/auth/logout", h.Auth.Logout)
			protected.GET("/auth/me", h.Auth.Me)

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// User management (admin only)
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.GET("/users/:user_id", h.User.Show)
				admin.PUT("/users/:user_id", h.User.Update)
				admin.DELETE("/users/:user_id", h.User.Delete)

				// Audit trail (admin only)
				admin.GET("/audit", h.Audit.Index)
				admin.GET("/audit/:entity/:entity_id", h.Audit.History)

				// Database backups (admin only)
				admin.GET("/backups", h.Backup.Index)
				admin.POST("/backups", h.Backup.Create)
				admin.GET("/backups/:name", h.Backup.Download)
				admin.POST("/backups/:name/restore", h.Backup.Restore)
				admin.DELETE("/backups/:name", h.Backup.Delete)

				// Background jobs (admin only)
				admin.GET("/jobs/status", h.Job.Status)
				admin.POST("/jobs/resync", h.Job.Resync)
				admin.POST("/jobs/sweep-overdue", h.Job.SweepOverdue)
			}

			// Users can change their own password
			protected.POST("/users/change-password", h.User.ChangePassword)

			// Writer routes (admin or officer)
			writer := protected.Group("")
			writer.Use(middleware.RequireWriter())
			{
				writer.POST("/customers", h.Customer.Create)
				writer.PUT("/customers/:customer_id", h.Customer.Update)
				writer.DELETE("/customers/:customer_id", h.Customer.Delete)
				writer.POST("/customers/:customer_id/restore", h.Customer.Restore)

				writer.POST("/loans", h.Loan.Create)
				writer.POST("/loans/:loan_id/extend", h.Loan.ExtendDueDate)
				writer.PATCH("/loans/:loan_id/note", h.Loan.UpdateNote)
				writer.POST("/loans/:loan_id/regenerate-schedule", h.Loan.RegenerateSchedule)
				writer.POST("/loans/:loan_id/reconcile", h.Loan.Reconcile)
				writer.DELETE("/loans/:loan_id", h.Loan.Delete)

				writer.POST("/payments", h.Payment.Create)
			}

			// Read routes (any authenticated role)
			protected.GET("/customers", h.Customer.Index)
			protected.GET("/customers/identity/:identity", h.Customer.ShowByIdentity)
			protected.GET("/customers/:customer_id", h.Customer.Show)

			protected.GET("/loans", h.Loan.Index)
			protected.GET("/loans/stats", h.Loan.Stats)
			protected.GET("/loans/:loan_id", h.Loan.Show)

			protected.GET("/payments", h.Payment.Index)
			protected.GET("/payments/stats", h.Payment.Stats)
			protected.GET("/payments/:payment_id", h.Payment.Show)

			// Reports and exports
			reports := protected.Group("/reports")
			{
				reports.GET("/overdue", h.Report.OverdueCSV)
				reports.GET("/collections", h.Report.CollectionsCSV)
				reports.GET("/loans/:loan_id/statement", h.Report.LoanStatementPDF)
				reports.GET("/loans/:loan_id/agreement", h.Report.LoanAgreementPDF)
				reports.GET("/portfolio", h.Report.ExportPortfolio)
				reports.GET("/customers", h.Report.ExportCustomers)
			}

			// Notifications (users manage their own)
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.POST("/read-all", h.Notification.MarkAllRead)
				notifications.POST("/:notification_id/read", h.Notification.MarkRead)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Sweep overdue loans hourly, starting right away so a restart cannot
	// leave past-due loans unclassified for an hour
	worker.ScheduleEveryImmediate(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sweeping overdue loans...")
		flipped, err := svcs.Payment.SweepOverdue(ctx)
		if err != nil {
			return err
		}
		if flipped > 0 {
			logger.Info("[Job] Loans marked overdue", "count", flipped)
		}
		return nil
	})

	// Full portfolio resync once a day: repair any drift between
	// stored loan totals and the payment ledger
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Resyncing loan portfolio...")
		summary, err := svcs.Reconcile.ResyncAll(ctx)
		if err != nil {
			return err
		}
		if summary.Repaired > 0 {
			logger.Warn("[Job] Repaired drifted loans", "count", summary.Repaired)
		}
		return nil
	})

	// Daily overdue payment reminders
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending overdue reminders...")
		_, err := svcs.Payment.SendOverdueReminders(ctx)
		return err
	})

	// Nightly database backup plus retention cleanup
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Creating nightly backup...")
		if _, err := svcs.Backup.Create(ctx, nil); err != nil {
			return err
		}
		removed, err := svcs.Backup.CleanupOld(ctx)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Info("[Job] Removed expired backups", "count", removed)
		}
		return nil
	})

	// Purge expired refresh tokens daily
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Cleaning up expired refresh tokens...")
		_, err := svcs.Auth.CleanupExpiredTokens(ctx)
		return err
	})

	// Purge old notifications daily
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Purging old notifications...")
		_, err := svcs.Notification.PurgeOld(ctx)
		return err
	})

	logger.Info("Scheduled recurring jobs")
}
