// Playwise - Mood-Aware Game Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playwise

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/playwise/internal/models"
	"github.com/tomtom215/playwise/internal/observability"
	"github.com/tomtom215/playwise/internal/recommend"
	"github.com/tomtom215/playwise/internal/service"
)

// Backend is the set of operations the HTTP layer serves. *service.Service
// implements it.
type Backend interface {
	SubmitMoodSelection(ctx context.Context, req service.MoodSelectionRequest) (*models.MoodSelection, error)
	SubmitUserAction(ctx context.Context, req service.UserActionRequest) (*models.UserAction, error)
	GetRecommendations(ctx context.Context, req service.RecommendationRequest) (*recommend.Response, error)
	RecordRecommendationOutcome(ctx context.Context, req service.OutcomeRequest) (*models.RecommendationEvent, error)
	GetPersonaProfile(ctx context.Context, userID string) (*models.PersonaProfile, error)
	RebuildProfile(ctx context.Context, userID string) (*models.PersonaProfile, error)
	RebuildViews(ctx context.Context, userID string) ([]models.MoodPattern, *models.LearningMetrics, error)
	PredictMood(ctx context.Context, userID string) (*models.MoodPrediction, error)
	ResolvePrediction(ctx context.Context, userID string, predictionID uuid.UUID, accepted bool) (*models.MoodPrediction, error)
	EraseUser(ctx context.Context, userID string) error
	GetHealthSnapshot(ctx context.Context) models.HealthSnapshot
	GetPerformanceStats(operation string, windowHours float64) observability.OperationStats
	AllPerformanceStats(window time.Duration) []observability.OperationStats
}

var _ Backend = (*service.Service)(nil)

// RouterConfig tunes the HTTP layer.
type RouterConfig struct {
	// RequestTimeout bounds each API request.
	RequestTimeout time.Duration

	// RateLimitRequests per RateLimitWindow per client IP on /api/v1.
	// 0 disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// CORSAllowedOrigins enables CORS for the listed origins. Empty disables it.
	CORSAllowedOrigins []string
}

// Handler serves the API.
type Handler struct {
	backend   Backend
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(backend Backend) *Handler {
	return &Handler{backend: backend, startTime: time.Now()}
}

// NewRouter builds the route tree.
func NewRouter(backend Backend, cfg RouterConfig) http.Handler {
	h := NewHandler(backend)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetrics())
	r.Use(AccessLog())
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader, "Retry-After"},
			MaxAge:         300,
		}))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		if cfg.RateLimitRequests > 0 {
			r.Use(rateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Get("/stats", h.Stats)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Delete("/", h.EraseUser)
			r.Post("/moods", h.SubmitMood)
			r.Post("/actions", h.SubmitAction)

			r.Get("/recommendations", h.Recommendations)
			r.Post("/recommendations/{requestID}/outcome", h.RecommendationOutcome)

			r.Get("/profile", h.Profile)
			r.Post("/profile/rebuild", h.RebuildProfile)
			r.Post("/views/rebuild", h.RebuildViews)

			r.Post("/predictions", h.PredictMood)
			r.Post("/predictions/{predictionID}/resolve", h.ResolvePrediction)
		})
	})

	return r
}

// rateLimit limits requests per client IP and answers with the standard error
// envelope once the limit is hit.
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "too many requests", nil, nil)
		}),
	)
}
