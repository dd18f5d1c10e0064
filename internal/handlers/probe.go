// Package handlers holds the non-API HTTP handlers.
package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// ReadinessChecker reports whether the service can give meaningful
// verdicts. Satisfied by verdict.Pipeline.
type ReadinessChecker interface {
	Ready() bool
}

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	readiness ReadinessChecker
}

// NewProbeHandler creates a new probe handler.
func NewProbeHandler(readiness ReadinessChecker) *ProbeHandler {
	return &ProbeHandler{readiness: readiness}
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness handles the /readyz endpoint for Kubernetes readiness probes.
// Returns 200 OK once the static lists have completed an initial load; a
// verdict given before that would miss known phish.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	if h.readiness == nil || !h.readiness.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "error",
			"error":  "lists not loaded",
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
