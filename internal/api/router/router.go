package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tajious/rollcall/internal/api/handlers"
	"github.com/tajious/rollcall/internal/config"
	"github.com/tajious/rollcall/internal/middleware"
)

type Router struct {
	app            *fiber.App
	authHandler    *handlers.AuthHandler
	userHandler    *handlers.UserHandler
	roleHandler    *handlers.RoleHandler
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *middleware.RateLimiter
	rateLimit      config.RateLimitConfig
}

func NewRouter(
	app *fiber.App,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	roleHandler *handlers.RoleHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	rateLimit config.RateLimitConfig,
) *Router {
	return &Router{
		app:            app,
		authHandler:    authHandler,
		userHandler:    userHandler,
		roleHandler:    roleHandler,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		rateLimit:      rateLimit,
	}
}

func (r *Router) SetupRoutes() {
	api := r.app.Group("/api")

	// Public routes
	limited := r.rateLimiter.RateLimit(r.rateLimit)
	api.Post("/login", limited, r.authHandler.Login)
	api.Post("/send-otp", limited, r.authHandler.SendOTP)
	api.Post("/resend-otp", limited, r.authHandler.ResendOTP)
	api.Post("/verify-otp", limited, r.authHandler.VerifyOTP)
	api.Post("/set-mpin", limited, r.authHandler.SetMPIN)

	// Protected routes
	protected := api.Group("", r.authMiddleware.Authenticate())

	protected.Get("/users", r.userHandler.List)
	protected.Get("/deleted-users", r.userHandler.ListDeleted)
	protected.Post("/users", r.userHandler.Create)
	protected.Patch("/users/:id", r.userHandler.Update)
	protected.Delete("/users/:id", r.userHandler.Delete)
	protected.Post("/restore-user/:id", r.userHandler.Restore)
	protected.Delete("/force-delete-user/:id", r.userHandler.ForceDelete)

	protected.Get("/roles", r.roleHandler.List)
	protected.Get("/deleted-roles", r.roleHandler.ListDeleted)
	protected.Post("/role", r.roleHandler.Create)
	protected.Patch("/roles/:id", r.roleHandler.Update)
	protected.Delete("/roles/:id", r.roleHandler.Delete)
	protected.Post("/restore-role/:id", r.roleHandler.Restore)
	protected.Delete("/force-delete-role/:id", r.roleHandler.ForceDelete)
}
