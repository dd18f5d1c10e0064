package server

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cerberus/internal/db"
	"cerberus/internal/handlers"
	"cerberus/internal/handlers/api"
	"cerberus/internal/middleware"
	"cerberus/internal/personal"
	"cerberus/internal/verdict"
)

// Deps are the components the routes are wired to. Database may be nil;
// the endpoints depending on it answer 503.
type Deps struct {
	Pipeline *verdict.Pipeline
	Personal *personal.Cache
	Database *db.DB
	Logger   *slog.Logger
}

// RegisterRoutes registers all application routes.
func (s *Server) RegisterRoutes(ctx context.Context, deps Deps) error {
	authMiddleware, err := middleware.NewAuthMiddleware(ctx, s.Cfg.OIDCIssuer, s.Cfg.OIDCAudience)
	if err != nil {
		return err
	}

	probeHandler := handlers.NewProbeHandler(deps.Pipeline)
	analyzeHandler := api.NewAnalyzeHandler(deps.Pipeline, deps.Database, deps.Logger)
	checkURLHandler := api.NewCheckURLHandler(deps.Pipeline, deps.Logger)
	feedbackHandler := api.NewFeedbackHandler(deps.Database, deps.Pipeline, deps.Logger)
	statsHandler := api.NewStatsHandler(deps.Database, deps.Logger)
	trustedHandler := api.NewTrustedHandler(deps.Personal)

	// Probes and metrics stay outside auth; the cluster calls them.
	s.App.Get("/healthz", probeHandler.Liveness)
	s.App.Get("/readyz", probeHandler.Readiness)
	s.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiGroup := s.App.Group("/api", authMiddleware.RequireAuth)
	apiGroup.Post("/analyze", analyzeHandler.Analyze)
	apiGroup.Post("/check-url", checkURLHandler.CheckURL)
	apiGroup.Post("/feedback", feedbackHandler.Submit)
	apiGroup.Get("/feedback", feedbackHandler.List)
	apiGroup.Get("/feedback/:id", feedbackHandler.Get)
	apiGroup.Get("/stats", statsHandler.Stats)
	apiGroup.Get("/trusted", trustedHandler.List)
	apiGroup.Post("/trusted", trustedHandler.Add)
	apiGroup.Delete("/trusted/:domain", trustedHandler.Remove)

	return nil
}
