package api

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"cerberus/internal/domain"
	"cerberus/internal/models"
	"cerberus/internal/verdict"
)

// CheckURLHandler serves the fast-path check: list layers only, no page
// evidence. The extension calls it before bothering with a screenshot.
type CheckURLHandler struct {
	evaluator Evaluator
	logger    *slog.Logger
}

// NewCheckURLHandler creates the handler.
func NewCheckURLHandler(evaluator Evaluator, logger *slog.Logger) *CheckURLHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckURLHandler{evaluator: evaluator, logger: logger}
}

// CheckURL handles POST /api/check-url.
func (h *CheckURLHandler) CheckURL(c fiber.Ctx) error {
	var body models.CheckURLRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.URL == "" {
		return jsonError(c, fiber.StatusBadRequest, "url is required")
	}

	out, err := h.evaluator.Evaluate(c.Context(), body.URL, nil)
	if err != nil {
		if errors.Is(err, verdict.ErrEvidenceRequired) {
			inWhitelist, inBlacklist := h.evaluator.ListMembership(out.Domain)
			return c.JSON(models.CheckURLResponse{
				Status:      models.CheckStatusNeedsAnalysis,
				InWhitelist: inWhitelist,
				InBlacklist: inBlacklist,
			})
		}
		if errors.Is(err, domain.ErrInvalidURL) {
			return jsonError(c, fiber.StatusBadRequest, "url could not be parsed")
		}
		h.logger.Error("check-url failed", "url", body.URL, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "check failed")
	}

	inWhitelist, inBlacklist := h.evaluator.ListMembership(out.Domain)
	return c.JSON(models.CheckURLResponse{
		Status:      checkStatusFor(out.Verdict.Label),
		Reason:      reasonCodeFor(out.Verdict),
		InWhitelist: inWhitelist,
		InBlacklist: inBlacklist,
	})
}

// checkStatusFor maps a verdict label onto the fast-path status. A
// suspicious cached verdict still sends the extension through full
// analysis.
func checkStatusFor(label models.Label) string {
	switch label {
	case models.LabelSafe:
		return models.CheckStatusSafe
	case models.LabelDangerous:
		return models.CheckStatusDangerous
	default:
		return models.CheckStatusNeedsAnalysis
	}
}

func reasonCodeFor(v models.Verdict) string {
	if len(v.Reasons) == 0 {
		return ""
	}
	return v.Reasons[0].Code
}
