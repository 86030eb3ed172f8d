// internal/api/router.go
package api

import (
	"context"
	"net/http"
	"time"

	"bookreview-recommender/internal/common/auth"
	"bookreview-recommender/internal/common/config"
	"bookreview-recommender/internal/common/database"
	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/observability"
	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recommender is the slice of the recommendation service the API exposes.
type Recommender interface {
	Recommend(ctx context.Context, userID int64, req recommendation.Request) ([]models.Recommendation, error)
	RecommendTopRated(ctx context.Context, req recommendation.Request) ([]models.Recommendation, error)
}

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Defaults are the request values used when a caller omits a parameter.
type Defaults struct {
	Personal recommendation.Request
	TopRated recommendation.Request
}

func DefaultsFromConfig(c config.RecommendationConfig) Defaults {
	personal := recommendation.DefaultRequest()
	personal.Limit = c.DefaultLimit
	personal.MinRating = c.DefaultMinRating
	personal.MinReviewCount = c.DefaultMinReviews
	personal.IncludeAIPowered = c.IncludeAIPowered

	return Defaults{
		Personal: personal,
		TopRated: recommendation.TopRatedRequest(c.TopRatedLimit, c.TopRatedMinRating, c.TopRatedMinReviews),
	}
}

type Handler struct {
	service   Recommender
	tokens    TokenValidator
	defaults  Defaults
	checks    map[string]database.Pinger
	telemetry *observability.Observability
	logger    logger.Logger
}

// NewHandler wires the API. checks are pinged by /ready; telemetry may be nil.
func NewHandler(service Recommender, tokens TokenValidator, defaults Defaults, checks map[string]database.Pinger, telemetry *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		service:   service,
		tokens:    tokens,
		defaults:  defaults,
		checks:    checks,
		telemetry: telemetry,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Get("/top-rated", h.topRated)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/for-me", h.forMe)
			r.Post("/for-me", h.forMe)
			r.Get("/for-user/{userId}", h.forUser)
		})
	})
	return r
}

// NewServer applies the configured timeouts to the router.
func NewServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Millisecond,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
}
