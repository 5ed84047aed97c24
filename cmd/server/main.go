package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/participium/participium-backend/internal/config"
	"github.com/participium/participium-backend/internal/database"
	"github.com/participium/participium-backend/internal/geocode"
	"github.com/participium/participium-backend/internal/handlers"
	"github.com/participium/participium-backend/internal/logging"
	"github.com/participium/participium-backend/internal/maintenance"
	"github.com/participium/participium-backend/internal/middleware"
	"github.com/participium/participium-backend/internal/realtime"
	"github.com/participium/participium-backend/internal/routes"
	"github.com/participium/participium-backend/internal/seed"
	"github.com/participium/participium-backend/internal/services"
	"github.com/participium/participium-backend/internal/storage"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Baseline data: categories, office roles, admin account
	if err := seed.Run(database.DB, cfg); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	// Nightly retention jobs (system logs, read notifications)
	cronJobs, err := maintenance.Start(database.DB)
	if err != nil {
		slog.Error("scheduling retention jobs failed", "error", err)
		os.Exit(1)
	}

	// Realtime notification hub
	hub := realtime.NewHub()
	go hub.Run()

	// Photo storage: Cloudinary in production, in-memory when unconfigured
	var photoStore storage.PhotoStore
	if cfg.CloudinaryURL != "" {
		store, err := storage.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
		if err != nil {
			slog.Error("cloudinary init failed", "error", err)
			os.Exit(1)
		}
		photoStore = store
	} else {
		slog.Warn("CLOUDINARY_URL not set, photos stored in memory only")
		photoStore = storage.NewMemoryStore()
	}

	geocoder := geocode.New(cfg.NominatimURL, cfg.NominatimUserAgent)

	// Services
	notificationService := services.NewNotificationService(database.DB, hub)
	authService := services.NewAuthService(database.DB, cfg)
	reportService := services.NewReportService(database.DB, photoStore, geocoder, notificationService)
	commentService := services.NewCommentService(database.DB, notificationService, services.NewContentFilter())
	operatorService := services.NewOperatorService(database.DB)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler()
	reportHandler := handlers.NewReportHandler(reportService, notificationService)
	reviewHandler := handlers.NewReviewHandler(reportService)
	officerHandler := handlers.NewOfficerHandler(reportService)
	maintainerHandler := handlers.NewMaintainerHandler(reportService)
	commentHandler := handlers.NewCommentHandler(commentService)
	operatorHandler := handlers.NewOperatorHandler(operatorService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    16 * 1024 * 1024, // room for three photos per submission
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, database.DB, hub,
		authHandler, healthHandler, reportHandler, reviewHandler,
		officerHandler, maintainerHandler, commentHandler,
		operatorHandler, notificationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	cronJobs.Stop()
	hub.Stop()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
