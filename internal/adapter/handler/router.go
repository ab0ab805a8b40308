package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hive-corporation/md2stix/internal/adapter/metrics"
)

const healthPath = "/api/v1/health"

// NewRouter wires the REST routes. An empty authToken disables auth.
func NewRouter(h *RestHandler, authToken string) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc(healthPath, h.Health).Methods("GET")
	router.HandleFunc("/api/v1/convert", h.Convert).Methods("POST")
	router.HandleFunc("/api/v1/indicators/check", h.CheckIndicator).Methods("GET")

	// Metrics endpoint (requires authentication)
	router.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods("GET")

	router.Use(loggingMiddleware(h.logger))
	router.Use(authMiddleware(authToken, h.logger))

	return router
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("Handled request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

func authMiddleware(expectedToken string, logger *slog.Logger) mux.MiddlewareFunc {
	if expectedToken == "" {
		logger.Warn("REST_API_AUTH_TOKEN not set - auth disabled")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health check
			if r.URL.Path == healthPath || expectedToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "Bearer "+expectedToken {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
