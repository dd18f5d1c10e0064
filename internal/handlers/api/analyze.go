// Package api implements the JSON endpoints consumed by the browser
// extension.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"cerberus/internal/analysis"
	"cerberus/internal/db"
	"cerberus/internal/domain"
	"cerberus/internal/middleware"
	"cerberus/internal/models"
	"cerberus/internal/verdict"
)

// Evaluator runs the verdict pipeline. Satisfied by verdict.Pipeline.
type Evaluator interface {
	Evaluate(ctx context.Context, rawURL string, evidence *analysis.PageEvidence) (verdict.Outcome, error)
	ListMembership(d domain.Domain) (inWhitelist, inBlacklist bool)
}

// AnalyzeHandler serves the full-analysis endpoint.
type AnalyzeHandler struct {
	evaluator Evaluator
	history   *db.DB // optional verdict history; nil disables recording
	logger    *slog.Logger
}

// NewAnalyzeHandler creates the handler. history may be nil.
func NewAnalyzeHandler(evaluator Evaluator, history *db.DB, logger *slog.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeHandler{evaluator: evaluator, history: history, logger: logger}
}

// Analyze handles POST /api/analyze: evaluates a page with full evidence
// and returns the verdict payload the extension renders.
func (h *AnalyzeHandler) Analyze(c fiber.Ctx) error {
	var body models.AnalyzeRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.URL == "" {
		return jsonError(c, fiber.StatusBadRequest, "url is required")
	}

	var screenshot []byte
	if body.ScreenshotBase64 != "" {
		var err error
		screenshot, err = base64.StdEncoding.DecodeString(body.ScreenshotBase64)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "screenshot_base64 is not valid base64")
		}
	}
	if len(screenshot) == 0 && body.HTML == "" {
		return jsonError(c, fiber.StatusBadRequest, "screenshot_base64 or html is required")
	}

	evidence := &analysis.PageEvidence{
		Screenshot: screenshot,
		HTML:       body.HTML,
		Domain:     body.Domain,
		URL:        body.URL,
	}

	start := time.Now()
	out, err := h.evaluator.Evaluate(c.Context(), body.URL, evidence)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidURL) {
			return jsonError(c, fiber.StatusBadRequest, "url could not be parsed")
		}
		h.logger.Error("analysis failed", "url", body.URL, "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "analysis failed")
	}
	elapsed := time.Since(start)

	v := out.Verdict
	h.record(c, body.URL, out, elapsed)

	return c.JSON(models.AnalyzeResponse{
		Verdict:          v.Label,
		Confidence:       v.Confidence,
		Reasons:          v.Reasons,
		Explanation:      explanationFor(v),
		SuggestedActions: models.SuggestedActions(v),
		ProcessingTimeMs: float64(elapsed.Microseconds()) / 1000,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	})
}

// record stores the evaluation in the verdict history, off the request
// path.
func (h *AnalyzeHandler) record(c fiber.Ctx, url string, out verdict.Outcome, elapsed time.Duration) {
	if h.history == nil {
		return
	}
	event := models.VerdictEvent{
		URL:              url,
		Domain:           string(out.Domain),
		Verdict:          out.Verdict.Label,
		Confidence:       out.Verdict.Confidence,
		Source:           out.Verdict.Source,
		ClientID:         middleware.ClientID(c),
		ProcessingTimeMs: float64(elapsed.Microseconds()) / 1000,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.history.InsertVerdictEvent(ctx, event); err != nil {
			h.logger.Error("failed to record verdict event", "url", event.URL, "error", err)
		}
	}()
}

// explanationFor flattens the verdict's reasons into the single
// human-readable explanation field the extension displays.
func explanationFor(v models.Verdict) string {
	if len(v.Reasons) == 0 {
		return ""
	}
	return v.Reasons[0].Detail
}
