package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bark/internal/notifier"
	"bark/pkg/types"
)

// Service defines the methods required by the HTTP API layer. The surface is
// read-only: nothing here publishes or subscribes.
type Service interface {
	Snapshot() types.NotifierSnapshot
	RegistrationsCount(name notifier.Name) int
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Snapshot())
	})

	r.Get("/registrations/{name}", func(w http.ResponseWriter, r *http.Request) {
		raw, err := eventNameParam(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid event name encoding")
			return
		}
		if strings.TrimSpace(raw) == "" {
			writeJSONError(w, http.StatusBadRequest, "event name is required")
			return
		}
		writeJSON(w, types.RegistrationsResponse{
			Name:  raw,
			Count: svc.RegistrationsCount(notifier.NewName(raw)),
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// eventNameParam returns the decoded {name} segment. chi matches against
// RawPath when the request carries one (an escaped "/" for instance), and the
// segment is still escaped then; otherwise it was already decoded with Path.
func eventNameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
