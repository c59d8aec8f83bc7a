// Package routes wires middlewares and the HTTP command surface. Each route
// maps one-to-one onto a ledger operation.
package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/meridianbank/meridian/internal/auth"
	"github.com/meridianbank/meridian/internal/bank"
	"github.com/meridianbank/meridian/internal/config"
	"github.com/meridianbank/meridian/internal/middleware"
	"github.com/meridianbank/meridian/internal/obs"
	"github.com/meridianbank/meridian/internal/statement"
)

// Deps aggregates the shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Bank   *bank.Service
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	obs.Init()

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	registerHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(obs.Handler()))

	authSvc := auth.NewService(d.Cfg, d.Bank)
	authHandler := auth.NewHandler(authSvc)
	bankHandler := bank.NewHandler(d.Bank)
	statementHandler := statement.NewHandler(d.Bank)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes.
	api.Post("/customers", authHandler.Register)
	api.Post("/auth/login", middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit), authHandler.Login)
	api.Post("/auth/refresh", authHandler.Refresh)

	// Protected routes.
	protected := api.Group("", middleware.JWTAuth(authSvc))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/accounts", bankHandler.OpenAccount)
	protected.Get("/accounts", bankHandler.ListAccounts)
	protected.Get("/accounts/:number/balance", bankHandler.Balance)
	protected.Post("/accounts/:number/deposits", bankHandler.Deposit)
	protected.Post("/accounts/:number/withdrawals", bankHandler.Withdraw)
	protected.Get("/accounts/:number/statement", statementHandler.Get)
	protected.Post("/transfers", bankHandler.Transfer)

	return nil
}
