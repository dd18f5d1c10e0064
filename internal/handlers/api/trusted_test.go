package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"cerberus/internal/models"
	"cerberus/internal/personal"
)

func newTrustedApp(t *testing.T) (*fiber.App, *personal.Cache) {
	t.Helper()
	cache := personal.NewCache("", nil)
	h := NewTrustedHandler(cache)

	app := fiber.New()
	app.Get("/api/trusted", h.List)
	app.Post("/api/trusted", h.Add)
	app.Delete("/api/trusted/:domain", h.Remove)
	return app, cache
}

func TestTrustedAdd(t *testing.T) {
	app, cache := newTrustedApp(t)

	body, status := postJSON(t, app, "/api/trusted", models.TrustedRequest{Domain: "WWW.MyIntranet.Example"})
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if !cache.IsTrusted("myintranet.example") {
		t.Error("domain not trusted after Add")
	}
}

func TestTrustedAddInvalidDomain(t *testing.T) {
	app, _ := newTrustedApp(t)

	_, status := postJSON(t, app, "/api/trusted", models.TrustedRequest{Domain: ""})
	if status != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestTrustedRemove(t *testing.T) {
	app, cache := newTrustedApp(t)
	cache.AddExplicit("old.example")

	req := httptest.NewRequest("DELETE", "/api/trusted/old.example", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cache.IsTrusted("old.example") {
		t.Error("domain still trusted after Remove")
	}
}
