package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. gatherer backs /metrics; nil uses the
// default registry.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/levels", h.Levels)
		r.Post("/prompts", h.ComposePrompt)
		r.Post("/analyses", h.CreateAnalysis)
		r.Get("/analyses", h.ListAnalyses)
		r.Get("/analyses/stream", h.StreamAnalysis)
		r.Get("/analyses/{id}", h.GetAnalysis)
		r.Delete("/analyses/{id}", h.DeleteAnalysis)
	})
	return CORS(r)
}
