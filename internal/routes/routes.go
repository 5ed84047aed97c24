package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/participium/participium-backend/internal/config"
	"github.com/participium/participium-backend/internal/handlers"
	"github.com/participium/participium-backend/internal/middleware"
	"github.com/participium/participium-backend/internal/models"
	"github.com/participium/participium-backend/internal/realtime"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	hub *realtime.Hub,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	reviewHandler *handlers.ReviewHandler,
	officerHandler *handlers.OfficerHandler,
	maintainerHandler *handlers.MaintainerHandler,
	commentHandler *handlers.CommentHandler,
	operatorHandler *handlers.OperatorHandler,
	notificationHandler *handlers.NotificationHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Reports — public map view, citizen submission
	api.Get("/reports", reportHandler.List)
	api.Get("/reports/:reportId", reportHandler.Get)
	api.Post("/reports", middleware.JWTProtected(cfg), reportHandler.Create)
	api.Get("/users/me/reports", middleware.JWTProtected(cfg), reportHandler.ListMine)

	// Public-relations triage
	pubRelations := api.Group("/pub_relations",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RolePubRelations))
	pubRelations.Patch("/reports/:reportId", reviewHandler.Review)

	// Tech-officer workflow
	techOfficer := api.Group("/tech_officer",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleTechOfficer))
	techOfficer.Get("/reports", officerHandler.ListAssigned)
	techOfficer.Patch("/reports/:reportId", officerHandler.UpdateStatus)
	techOfficer.Patch("/reports/:reportId/assign_external", officerHandler.AssignExternal)

	// External-maintainer workflow
	extMaintainer := api.Group("/ext_maintainer",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleExternalMaintainer))
	extMaintainer.Get("/reports", maintainerHandler.ListAssigned)
	extMaintainer.Patch("/reports/:reportId", maintainerHandler.UpdateStatus)

	// Comment threads
	api.Post("/reports/:reportId/internal-comments",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleTechOfficer, models.RoleExternalMaintainer),
		commentHandler.AddInternal)
	api.Get("/report/:reportId/internal-comments",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleTechOfficer, models.RoleExternalMaintainer),
		commentHandler.ListInternal)
	api.Post("/reports/:reportId/external-comments",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleCitizen, models.RolePubRelations, models.RoleTechOfficer, models.RoleExternalMaintainer),
		commentHandler.AddExternal)
	api.Get("/report/:reportId/external-comments",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleCitizen, models.RolePubRelations, models.RoleTechOfficer, models.RoleExternalMaintainer),
		commentHandler.ListExternal)

	// Notifications
	api.Get("/notifications", middleware.JWTProtected(cfg), notificationHandler.List)
	api.Patch("/notifications/:id/read", middleware.JWTProtected(cfg), notificationHandler.MarkRead)
	api.Get("/notifications/ws", middleware.WebsocketAuth(cfg), hub.Handler())

	// Operator administration
	operators := api.Group("/operators",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleAdmin))
	operators.Patch("/:operatorId/roles", operatorHandler.ReplaceRoles)

	admin := api.Group("/admin",
		middleware.JWTProtected(cfg),
		middleware.RoleRequired(db, models.RoleAdmin))
	admin.Get("/users", operatorHandler.ListUsers)
	admin.Post("/operators", operatorHandler.CreateOperator)
}
