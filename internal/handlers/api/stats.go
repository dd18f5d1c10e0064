package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"cerberus/internal/db"
)

// StatsHandler serves aggregated verdict statistics.
type StatsHandler struct {
	db     *db.DB
	logger *slog.Logger
}

// NewStatsHandler creates the handler. database may be nil.
func NewStatsHandler(database *db.DB, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{db: database, logger: logger}
}

// Stats handles GET /api/stats.
func (h *StatsHandler) Stats(c fiber.Ctx) error {
	if h.db == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "verdict history is not configured")
	}

	stats, err := h.db.GetStats(c.Context())
	if err != nil {
		h.logger.Error("failed to aggregate stats", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to aggregate stats")
	}
	return jsonSuccess(c, stats)
}
