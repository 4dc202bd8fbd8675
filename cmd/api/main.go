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

	"github.com/epmosta/maintenance-api/internal/config"
	"github.com/epmosta/maintenance-api/internal/database"
	"github.com/epmosta/maintenance-api/internal/handlers"
	"github.com/epmosta/maintenance-api/internal/jobs"
	"github.com/epmosta/maintenance-api/internal/middleware"
	"github.com/epmosta/maintenance-api/internal/repository"
	"github.com/epmosta/maintenance-api/internal/services"
	"github.com/epmosta/maintenance-api/internal/storage"
	"github.com/epmosta/maintenance-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Maintenance API
// @version 1.0
// @description REST API for the equipment maintenance ticketing system

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
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
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

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

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
			auth.POST("/logout", h.Auth.Logout)
			auth.POST("/send_recovery_code", h.Auth.SendRecoveryCode)
			auth.POST("/reset_password", h.Auth.ResetPassword)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// User management
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.DELETE("/users/:user_id", h.User.Delete)
				admin.POST("/users/:user_id/restore", h.User.Restore)
				admin.POST("/users/:user_id/toggle-status", h.User.ToggleStatus)
				admin.PUT("/users/:user_id/password", h.User.ForcePassword)

				// Equipment registry management
				admin.POST("/equipment", h.Equipment.Create)
				admin.PUT("/equipment/:code", h.Equipment.Update)
				admin.DELETE("/equipment/:code", h.Equipment.Delete)
				admin.POST("/equipment/import", h.Equipment.ImportCSV)

				// Ticket assignment
				admin.POST("/tickets/:ticket_id/assign", h.Ticket.Assign)
				admin.GET("/tickets/technicians", h.Ticket.Technicians)

				// Audit journal
				admin.GET("/journal", h.Audit.Index)
				admin.GET("/journal/stats", h.Audit.Stats)
				admin.GET("/journal/export/csv", h.Audit.ExportCSV)
				admin.GET("/journal/export/pdf", h.Audit.ExportPDF)

				// Dashboard and exports
				admin.GET("/reports/dashboard", h.Report.Dashboard)
				admin.GET("/reports/tickets/csv", h.Report.TicketsCSV)
				admin.GET("/reports/tickets/xlsx", h.Report.TicketsXLSX)
				admin.GET("/reports/tickets/pdf", h.Report.TicketsPDF)

				// Attached file removal
				admin.DELETE("/files/:file_id", h.Intervention.DeleteFile)

				// Worker status
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Technician routes
			technician := protected.Group("")
			technician.Use(middleware.RequireRole("admin", "technician"))
			{
				technician.POST("/tickets/:ticket_id/status", h.Ticket.ChangeStatus)
				technician.POST("/tickets/:ticket_id/intervention", h.Intervention.Create)
				technician.PUT("/interventions/:intervention_id", h.Intervention.Update)
				technician.POST("/interventions/:intervention_id/files", h.Intervention.AttachFile)
			}

			// Profile (any authenticated user)
			protected.GET("/users/me", h.User.Me)
			protected.PUT("/users/me/password", h.User.ChangePassword)
			protected.GET("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Show)
			protected.PUT("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Update)

			// Tickets (list/detail are role-scoped in the service layer)
			protected.GET("/tickets", h.Ticket.Index)
			protected.POST("/tickets", h.Ticket.Create)
			protected.GET("/tickets/:ticket_id", h.Ticket.Show)
			protected.PUT("/tickets/:ticket_id", h.Ticket.Update)
			protected.DELETE("/tickets/:ticket_id", h.Ticket.Delete)
			protected.POST("/tickets/:ticket_id/validate", h.Ticket.Validate)
			protected.POST("/tickets/:ticket_id/refuse", h.Ticket.Refuse)
			protected.GET("/tickets/:ticket_id/intervention", h.Intervention.ShowByTicket)

			// Interventions
			protected.GET("/interventions", h.Intervention.Index)
			protected.GET("/interventions/:intervention_id", h.Intervention.Show)
			protected.GET("/interventions/:intervention_id/pdf", h.Intervention.PDF)
			protected.GET("/files/:file_id", h.Intervention.DownloadFile)

			// Equipment registry (read access for everyone)
			protected.GET("/equipment", h.Equipment.Index)
			protected.GET("/equipment/export", h.Equipment.ExportCSV)
			protected.GET("/equipment/:code", h.Equipment.Show)

			// Role-scoped landing summary
			protected.GET("/reports/summary", h.Report.Summary)

			// Organization lookups
			protected.GET("/directions", h.Equipment.Directions)
			protected.GET("/offices", h.Equipment.Offices)
			protected.GET("/categories", h.Equipment.Categories)
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Retry completion emails that were claimed but never sent
	worker.ScheduleEvery(1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Resending pending completion emails...")
		return svcs.Ticket.ResendCompletionEmails(ctx)
	})

	// Purge expired refresh tokens daily
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		deleted, err := svcs.Auth.CleanupExpiredTokens(ctx)
		if err != nil {
			return err
		}
		if deleted > 0 {
			logger.Info("[Job] Purged expired refresh tokens", "count", deleted)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
