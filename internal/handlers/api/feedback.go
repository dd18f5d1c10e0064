package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"cerberus/internal/db"
	"cerberus/internal/middleware"
	"cerberus/internal/models"
)

// CacheInvalidator drops a shared cached verdict for a URL. Satisfied by
// verdict.Pipeline.
type CacheInvalidator interface {
	InvalidateCached(rawURL string)
}

// FeedbackHandler stores user feedback on verdicts.
type FeedbackHandler struct {
	db          *db.DB
	invalidator CacheInvalidator
	logger      *slog.Logger
}

// NewFeedbackHandler creates the handler. database may be nil when no
// Postgres is configured; the endpoint then answers 503.
func NewFeedbackHandler(database *db.DB, invalidator CacheInvalidator, logger *slog.Logger) *FeedbackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackHandler{db: database, invalidator: invalidator, logger: logger}
}

// Submit handles POST /api/feedback.
func (h *FeedbackHandler) Submit(c fiber.Ctx) error {
	if h.db == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "feedback storage is not configured")
	}

	var body models.FeedbackRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.URL == "" || body.UserFeedback == "" {
		return jsonError(c, fiber.StatusBadRequest, "url and user_feedback are required")
	}

	id, err := h.db.InsertFeedback(c.Context(), models.FeedbackReport{
		URL:            body.URL,
		Verdict:        body.Verdict,
		UserFeedback:   body.UserFeedback,
		CorrectVerdict: body.CorrectVerdict,
		ClientID:       middleware.ClientID(c),
	})
	if err != nil {
		h.logger.Error("failed to store feedback", "url", body.URL, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to store feedback")
	}

	// A disputed verdict should not keep serving from the shared cache.
	if h.invalidator != nil && body.CorrectVerdict != "" && body.CorrectVerdict != body.Verdict {
		h.invalidator.InvalidateCached(body.URL)
	}

	return jsonSuccess(c, fiber.Map{"report_id": id.String()})
}

// List handles GET /api/feedback: the newest reports, for reviewing what
// users disputed. The limit query parameter caps the page size.
func (h *FeedbackHandler) List(c fiber.Ctx) error {
	if h.db == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "feedback storage is not configured")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	reports, err := h.db.ListRecentFeedback(c.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list feedback", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to list feedback")
	}
	return jsonSuccess(c, reports)
}

// Get handles GET /api/feedback/:id.
func (h *FeedbackHandler) Get(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid report id")
	}
	if h.db == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "feedback storage is not configured")
	}

	report, err := h.db.GetFeedback(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrFeedbackNotFound) {
			return jsonError(c, fiber.StatusNotFound, "report not found")
		}
		h.logger.Error("failed to load feedback", "id", id, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to load feedback")
	}
	return jsonSuccess(c, report)
}
