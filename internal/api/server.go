package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docredact/internal/config"
	"github.com/dgallion1/docredact/internal/document"
	"github.com/dgallion1/docredact/internal/observability"
	"github.com/dgallion1/docredact/internal/pipeline"
	"github.com/dgallion1/docredact/internal/redaction"
)

// Server is the HTTP API server for docredact.
type Server struct {
	router       chi.Router
	svc          *redaction.Service
	orchestrator *pipeline.Orchestrator
	metrics      *observability.Metrics
	stats        *observability.LatencyStats
	reporter     ErrorReporter
	log          *slog.Logger
	cfg          config.Config
}

// Deps are the collaborators a Server routes to. Orchestrator, Metrics,
// Stats and Reporter are optional.
type Deps struct {
	Service      *redaction.Service
	Orchestrator *pipeline.Orchestrator
	Metrics      *observability.Metrics
	Stats        *observability.LatencyStats
	Reporter     ErrorReporter
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:          deps.Service,
		orchestrator: deps.Orchestrator,
		metrics:      deps.Metrics,
		stats:        deps.Stats,
		reporter:     deps.Reporter,
		log:          log,
		cfg:          cfg,
	}
	if s.reporter == nil {
		s.reporter = noopReporter{}
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/api/redaction/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		if s.cfg.RateLimitRPM > 0 {
			r.Use(RateLimit(NewRateLimiter(s.cfg.RateLimitRPM*10, s.cfg.RateLimitRPM), s.log))
		}

		r.Post("/api/redaction/upload", s.handleUpload)
		r.Post("/api/redaction/redact", s.handleRedact)
		r.Post("/api/redaction/detect", s.handleDetect)
		r.Get("/api/redaction/download/{filename}", s.handleDownload)
		r.Delete("/api/redaction/files/{fileID}", s.handleDeleteFile)

		r.Post("/api/redaction/batch", s.handleBatchUpload)
		r.Get("/api/redaction/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/stats/detect", s.handleDetectStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	formats := make([]string, len(document.Formats))
	for i, f := range document.Formats {
		formats[i] = string(f)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"supported_formats": formats,
		"storage_backend":   s.cfg.StorageBackend,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
