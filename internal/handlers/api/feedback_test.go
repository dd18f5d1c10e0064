package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"cerberus/internal/models"
)

func newFeedbackApp() *fiber.App {
	h := NewFeedbackHandler(nil, nil, nil)
	app := fiber.New()
	app.Post("/api/feedback", h.Submit)
	app.Get("/api/feedback", h.List)
	app.Get("/api/feedback/:id", h.Get)
	return app
}

func TestFeedbackRoutesWithoutDatabase(t *testing.T) {
	app := newFeedbackApp()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{
			name:       "list unavailable",
			method:     "GET",
			path:       "/api/feedback",
			wantStatus: fiber.StatusServiceUnavailable,
		},
		{
			name:       "get unavailable",
			method:     "GET",
			path:       "/api/feedback/0f2a2a4e-8c3e-4e5a-9f3b-0a9a61c1d8d2",
			wantStatus: fiber.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestFeedbackSubmitWithoutDatabase(t *testing.T) {
	app := newFeedbackApp()

	_, status := postJSON(t, app, "/api/feedback", models.FeedbackRequest{
		URL:          "https://paypa1.com/signin",
		Verdict:      models.LabelDangerous,
		UserFeedback: "false positive",
	})
	if status != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
}

func TestFeedbackGetRejectsMalformedID(t *testing.T) {
	app := newFeedbackApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/feedback/not-a-uuid", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
