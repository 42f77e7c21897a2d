package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/tradestate"
)

// NewServer assembles the admin fiber.App over a trade-plane StreamLog (for
// DLQ tailing) and a tradestate.Store (for intent lookups).
func NewServer(store streamlog.StreamLog, state tradestate.Store, log logger.InterfaceLogger) *fiber.App {
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3001",
		AllowMethods:     "GET,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
	}))

	h := NewHandler(store, state, NewIntentCache(log), log)
	h.registerRoutes(app)
	return app
}
