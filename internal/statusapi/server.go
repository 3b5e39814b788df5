// Package statusapi serves the operator-facing admin endpoints for a running
// stack: child process state, the rendered supervisor document, liveness and
// Prometheus metrics. It is bound on a local admin port, separate from the
// authenticated public proxy.
package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"llamadeck/pkg/types"
)

// Service is what the admin API needs from the process coordinator.
type Service interface {
	Status() types.StatusResponse
	SupervisorDoc() string
	Ready() bool
}

// NewMux builds the admin router.
func NewMux(svc Service, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
	}))
	r.Use(requestLogger(log))
	r.Use(MetricsMiddleware)

	// Child process gauges live in a per-mux registry so each stack's admin
	// server reports its own coordinator.
	procReg := prometheus.NewRegistry()
	procReg.MustRegister(newProcessCollector(svc))
	metricsHandler := promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, procReg},
		promhttp.HandlerOpts{},
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !svc.Ready() {
			writeJSONError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	})

	// The exact document handed to the supervisor, for operator inspection.
	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(svc.SupervisorDoc()))
	})

	r.Method(http.MethodGet, "/metrics", metricsHandler)

	MountSwagger(r)
	return r
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// requestLogger logs one line per admin request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			z := log.Debug().Str("path", r.URL.Path).Str("method", r.Method)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("admin request")
		})
	}
}
