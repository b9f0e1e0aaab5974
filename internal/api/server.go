// Package api assembles the reference HTTP backend that the rollcall client
// talks to.
package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/tajious/rollcall/internal/api/handlers"
	"github.com/tajious/rollcall/internal/api/router"
	"github.com/tajious/rollcall/internal/config"
	"github.com/tajious/rollcall/internal/middleware"
	"github.com/tajious/rollcall/internal/models"
	"github.com/tajious/rollcall/internal/otp"
	"github.com/tajious/rollcall/internal/storage"
)

type Deps struct {
	Config    *config.Config
	Storage   storage.Storage
	OTP       *otp.Service
	RateStore middleware.RateLimitStore
	Log       zerolog.Logger
	// AccessLog enables fiber's request logger.
	AccessLog bool
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Rollcall",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if d.AccessLog {
		app.Use(logger.New())
	}

	authHandler := handlers.NewAuthHandler(d.Storage, d.OTP, handlers.AuthConfig{
		JWTSecret:   d.Config.JWT.Secret,
		JWTDuration: d.Config.JWT.AccessExpiration,
		EchoOTP:     d.Config.OTP.Echo,
	}, d.Log)

	router.NewRouter(
		app,
		authHandler,
		handlers.NewUserHandler(d.Storage, d.Log),
		handlers.NewRoleHandler(d.Storage, d.Log),
		middleware.NewAuthMiddleware(d.Config.JWT.Secret),
		middleware.NewRateLimiter(d.RateStore, d.Log),
		d.Config.Server.RateLimit,
	).SetupRoutes()

	return app
}

// Seed makes sure an active user exists for the configured admin mobile so a
// fresh deployment can be bootstrapped through the OTP flow.
func Seed(ctx context.Context, store storage.Storage, cfg config.SeedConfig) (*models.User, error) {
	if cfg.AdminMobile == "" {
		return nil, nil
	}

	user, err := store.GetUserByMobile(ctx, cfg.AdminMobile)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, err
	}

	role := &models.Role{
		Name:        "Administrator",
		Description: "Manages staff and roles",
		Status:      models.StatusActive,
	}
	if err := store.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("seed role: %w", err)
	}

	user = &models.User{
		Name:   cfg.AdminName,
		Mobile: cfg.AdminMobile,
		Status: models.StatusActive,
		RoleID: role.ID,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return user, nil
}
