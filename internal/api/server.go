package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MJE43/arcs-odds/internal/config"
	"github.com/MJE43/arcs-odds/internal/metrics"
)

// Server represents the HTTP API server
type Server struct {
	cfg          *config.Config
	cache        *tableCache
	validator    *Validator
	errorHandler *ErrorHandler
	logger       *slog.Logger
	startTime    time.Time
}

// NewServer creates a new API server. A nil logger uses slog.Default.
func NewServer(cfg *config.Config, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:          cfg,
		cache:        newTableCache(cfg.CacheSize, cfg.CacheTTL),
		validator:    NewValidator(cfg.MaxDicePerType),
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Routes sets up the HTTP routes with comprehensive middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(s.CORSMiddleware)
	r.Use(metrics.Middleware)

	r.NotFound(s.errorHandler.HandleNotFound)
	r.MethodNotAllowed(s.errorHandler.HandleMethodNotAllowed)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dice", s.handleDice)
		r.Get("/table", s.handleTable)
		r.Get("/macrostates", s.handleMacrostates)
		r.Get("/marginals", s.handleMarginals)
		r.Get("/heatmap", s.handleHeatmap)
		r.Post("/odds", s.handleOdds)
		r.Post("/predicate", s.handlePredicate)
		r.Post("/roll", s.handleRoll)
	})

	return r
}

// ListenAndServe serves Routes on the configured address.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("server_starting", "addr", s.cfg.Addr, "engine_version", EngineVersion)
	return srv.ListenAndServe()
}

// writeJSON writes a JSON response with engine version header
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads the body into dst and validates its tags. It writes
// the error response itself and reports whether the handler may go on.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.errorHandler.HandleError(w, r, NewError(ErrTypeValidation, "Invalid JSON format").
			WithRequestID(middleware.GetReqID(r.Context())).
			WithCause(err).
			Build())
		return false
	}
	if err := s.validator.ValidateStruct(dst); err != nil {
		s.errorHandler.HandleValidationError(w, r, FormatValidationError(err))
		return false
	}
	return true
}
