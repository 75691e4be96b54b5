package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Cipherweave/VortexWatch/internal/metrics"
)

// RouterConfig holds the dependencies and settings for the API router
type RouterConfig struct {
	// Assessor runs assessments for POST /analyze
	Assessor Assessor
	// Metrics, when set, instruments requests and serves GET /metrics
	Metrics *metrics.Metrics
	// MaxBodySize caps request bodies in bytes; zero disables the limit
	MaxBodySize int64
	// AllowedOrigin is sent as Access-Control-Allow-Origin; empty means "*"
	AllowedOrigin string
}

// NewRouter creates a new chi router with all endpoints and middleware
func NewRouter(cfg RouterConfig) http.Handler {
	h := &Handler{
		assessor:    cfg.Assessor,
		maxBodySize: cfg.MaxBodySize,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.AllowedOrigin))
	r.Use(middleware.Heartbeat("/ping"))

	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/", h.handleIndex)
	r.Post("/analyze", h.handleAnalyze)

	return r
}

// cors allows browser extensions and pages on any origin to call the API
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger writes one structured log line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request handled")
		}()

		next.ServeHTTP(ww, r)
	})
}
