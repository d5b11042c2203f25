package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fleetcheck/internal/bootstrap/logging"
)

// NewRouter builds the HTTP API. The logger travels in the request context
// so handlers and the error mapper share the command-level attributes.
func NewRouter(svc Service, logger *slog.Logger) http.Handler {
	h := &handler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", h.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/submissions", h.createSubmission)
		r.Route("/non-conformities/{id}", func(r chi.Router) {
			r.Get("/", h.getNC)
			r.Patch("/", h.patchNC)
			r.Get("/audit", h.listAudit)
		})
		r.Get("/compliance", h.getCompliance)
		r.Get("/kpis", h.getKPIs)
	})

	return r
}

// requestLogger injects the logger into the request context and emits one
// line per request with status and latency.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logger != nil {
				ctx = logging.WithLogger(ctx, logger)
			}
			ctx = logging.WithAttrs(ctx, slog.String("component", "httpapi"))

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			logging.Info(ctx, "request handled",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
