package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/health"
	"github.com/utafrali/ReviewsGo/pkg/middleware"
)

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("reviews"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Review API endpoints
	reviewHandler := NewReviewHandler(reviewService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(ShopFromRequest)
		r.Use(middleware.RequestLogger(logger))

		r.Get("/", reviewHandler.ListReviews)
		r.Post("/", reviewHandler.CreateReview)
		r.Get("/stats", reviewHandler.GetStats)
		r.Get("/hide-reasons", reviewHandler.GetHideReasons)
		r.Put("/read", reviewHandler.SetRead)
		r.Get("/{id}", reviewHandler.GetReview)
		r.Get("/{id}/replies", reviewHandler.ListReplies)
		r.Put("/{id}/status", reviewHandler.UpdateStatus)
		r.Put("/{id}/pin", reviewHandler.PinReview)
		r.Put("/{id}/unpin", reviewHandler.UnpinReview)
	})

	return r
}
