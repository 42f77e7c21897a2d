package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tradebus/tradebus/internal/envelope"
	"github.com/tradebus/tradebus/internal/logger"
	"github.com/tradebus/tradebus/internal/model"
	"github.com/tradebus/tradebus/internal/streamlog"
	"github.com/tradebus/tradebus/internal/tradestate"
)

// Handler is the admin HTTP surface of spec.md's DOMAIN STACK §10:
// read-only operational visibility into C6 (intent state) and C3 (DLQ
// contents). It never accepts a write — state only changes through the
// bus/tradestate machinery.
type Handler struct {
	store streamlog.StreamLog
	state tradestate.Store
	cache *IntentCache
	log   logger.InterfaceLogger
}

func NewHandler(store streamlog.StreamLog, state tradestate.Store, cache *IntentCache, log logger.InterfaceLogger) *Handler {
	return &Handler{store: store, state: state, cache: cache, log: log}
}

// getIntentHandler returns an intent's current lifecycle state.
// @Summary      Get intent
// @Description  Returns the current state of a trade intent
// @Tags         intents
// @Produce      json
// @Param        intent_id  path  string  true  "Intent ID"
// @Success      200  {object}  tradestate.Intent
// @Failure      404  {object}  model.ErrorResponse
// @Router       /intents/{intent_id} [get]
func (h *Handler) getIntentHandler(c *fiber.Ctx) error {
	id := c.Params("intent_id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(model.NewErrorResponse(fiber.StatusBadRequest, "missing intent_id"))
	}

	if cached, ok := h.cache.Get(id); ok {
		h.log.Infof("server: intent cache hit for %s", id)
		return c.Status(fiber.StatusOK).JSON(cached)
	}

	intent, err := h.state.GetIntent(c.Context(), id)
	if err != nil {
		if errors.Is(err, tradestate.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(model.NewErrorResponse(fiber.StatusNotFound, "intent not found"))
		}
		h.log.Errorf("server: get intent %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(model.NewErrorResponse(fiber.StatusInternalServerError, "internal error"))
	}

	h.cache.Set(id, intent)
	return c.Status(fiber.StatusOK).JSON(intent)
}

// tailDLQHandler returns up to the first 50 entries of a dead-letter stream,
// read from the start of the stream; later entries are not returned.
// @Summary      Read a DLQ stream
// @Description  Returns up to 50 entries on dlq.<stream>, oldest first
// @Tags         dlq
// @Produce      json
// @Param        stream  path  string  true  "Base stream name (without dlq. prefix)"
// @Success      200  {array}  envelope.Envelope
// @Router       /dlq/{stream} [get]
func (h *Handler) tailDLQHandler(c *fiber.Ctx) error {
	stream := c.Params("stream")
	if stream == "" {
		return c.Status(fiber.StatusBadRequest).JSON(model.NewErrorResponse(fiber.StatusBadRequest, "missing stream"))
	}

	entries, err := h.store.ReadRange(c.Context(), envelope.DLQStream(stream), "", 50)
	if err != nil {
		h.log.Errorf("server: tail dlq %s: %v", stream, err)
		return c.Status(fiber.StatusInternalServerError).JSON(model.NewErrorResponse(fiber.StatusInternalServerError, "internal error"))
	}

	out := make([]*envelope.Envelope, 0, len(entries))
	for _, e := range entries {
		env, err := envelope.Decode(e.Bytes)
		if err != nil {
			h.log.Errorf("server: decode dlq entry on %s: %v", stream, err)
			continue
		}
		out = append(out, env)
	}
	return c.Status(fiber.StatusOK).JSON(out)
}
