// Package server wires the HTTP surface: liveness probe, metrics and the
// authenticated /sync endpoint.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sync-bridge/internal/common/config"
	"sync-bridge/internal/common/logger"
	"sync-bridge/internal/common/observability"
)

func NewRouter(cfg *config.Config, log logger.Logger, obs *observability.Observability) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)

	h := NewHandler(cfg, log, obs)

	r.Get("/", h.Live)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(AuthGate(log))
		gr.Post("/sync", h.Sync)
	})

	return r
}
