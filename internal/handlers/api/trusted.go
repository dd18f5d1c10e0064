package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"cerberus/internal/domain"
	"cerberus/internal/models"
	"cerberus/internal/personal"
)

// TrustedHandler manages the user's explicit trusted-site entries.
type TrustedHandler struct {
	cache *personal.Cache
}

// NewTrustedHandler creates the handler.
func NewTrustedHandler(cache *personal.Cache) *TrustedHandler {
	return &TrustedHandler{cache: cache}
}

// List handles GET /api/trusted.
func (h *TrustedHandler) List(c fiber.Ctx) error {
	return jsonSuccess(c, h.cache.Entries())
}

// Add handles POST /api/trusted: marks a domain explicitly trusted.
func (h *TrustedHandler) Add(c fiber.Ctx) error {
	var body models.TrustedRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	d, err := domain.Normalize(body.Domain)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "domain could not be parsed")
	}

	h.cache.AddExplicit(d)
	return jsonSuccess(c, fiber.Map{"domain": string(d)})
}

// Remove handles DELETE /api/trusted/:domain.
func (h *TrustedHandler) Remove(c fiber.Ctx) error {
	d, err := domain.Normalize(c.Params("domain"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "domain could not be parsed")
	}

	h.cache.RemoveExplicit(d)
	return jsonSuccess(c, fiber.Map{"domain": string(d)})
}
