package server

import "github.com/gofiber/fiber/v2"

// registerRoutes wires the admin surface's read-only endpoints.
// @title           tradebus admin API
// @version         1.0
// @description     Read-only operational visibility into intent state and dead-letter streams.
// @BasePath        /
// @schemes         http
func (h *Handler) registerRoutes(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/intents/:intent_id", h.getIntentHandler)
	app.Get("/dlq/:stream", h.tailDLQHandler)
}
