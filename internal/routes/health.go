package routes

import (
	"github.com/gofiber/fiber/v2"
)

func registerHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		status := "ok"
		code := fiber.StatusOK
		if d.Bank.Degraded() {
			// Still serving from memory, but the last snapshot save failed.
			status = "degraded"
		}
		return c.Status(code).JSON(fiber.Map{"status": status})
	})
}
