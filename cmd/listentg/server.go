package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"listentg/internal/constants"
	apperrors "listentg/internal/errors"
	"listentg/internal/metrics"
	"listentg/internal/middleware"
	"listentg/internal/models"
	"listentg/internal/reporting"
	"listentg/internal/service"
	"listentg/internal/tracing"
	"listentg/internal/validation"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// StatsProvider serves the read API payloads
type StatsProvider interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	Activity(ctx context.Context) (*models.ActivityStats, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// HealthChecker reports whether storage is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router   *mux.Router
	logger   *logrus.Logger
	cfg      models.ServerConfig
	stats    StatsProvider
	health   HealthChecker
	reporter reporting.Reporter
	server   *http.Server
}

func NewServer(cfg models.ServerConfig, stats StatsProvider, health HealthChecker, reporter reporting.Reporter, logger *logrus.Logger) *Server {
	if reporter == nil {
		reporter = reporting.Nop{}
	}
	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		cfg:      cfg,
		stats:    stats,
		health:   health,
		reporter: reporter,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RecoveryMiddleware(s.logger, s.reporter))
	s.router.Use(middleware.ObservabilityMiddleware(s.logger, s.cfg.TrustProxy))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", s.handleStats()).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch()).Methods(http.MethodGet)
	api.HandleFunc("/activity", s.handleActivity()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)),
		Handler:      s.router,
		ReadTimeout:  secondsOr(s.cfg.ReadTimeoutSec, constants.DefaultServerReadTimeoutSec),
		WriteTimeout: secondsOr(s.cfg.WriteTimeoutSec, constants.DefaultServerWriteTimeoutSec),
		IdleTimeout:  time.Duration(constants.DefaultServerIdleTimeoutSec) * time.Second,
	}

	s.logger.WithField("addr", s.server.Addr).Info("Starting read API server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.health.Ping(r.Context()); err != nil {
			s.logger.WithError(err).Warn("Health check failed")
			http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		metrics.WritePrometheus(w)
	}
}

func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.stats.Dashboard(r.Context())
		if err != nil {
			s.writeError(w, r, err, "Failed to load statistics")
			return
		}
		s.writeJSON(w, r, stats)
	}
}

func (s *Server) handleActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activity, err := s.stats.Activity(r.Context())
		if err != nil {
			s.writeError(w, r, err, "Failed to load activity")
			return
		}
		s.writeJSON(w, r, activity)
	}
}

func (s *Server) handleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		// Short queries yield an empty result regardless of content
		if utf8.RuneCountInString(query) >= constants.DefaultMinSearchQueryLength {
			if err := validation.ValidateSearchQuery(query); err != nil {
				s.writeError(w, r, err, "Failed to search messages")
				return
			}
		}
		results, err := s.stats.Search(r.Context(), query)
		if err != nil {
			s.writeError(w, r, err, "Failed to search messages")
			return
		}
		s.writeJSON(w, r, results)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).WithField(service.LogFieldRequestID, tracing.GetRequestID(r.Context())).
			Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	fields := logrus.Fields{
		service.LogFieldRequestID: tracing.GetRequestID(r.Context()),
		service.LogFieldURL:       r.URL.Path,
	}
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		apperrors.LogError(s.logger, err, message, fields)
		s.reporter.CaptureError(fmt.Errorf("%s: %w", message, err), fields)
	} else {
		s.logger.WithFields(fields).WithError(err).Warn(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apperrors.ToHTTPResponse(err, message))
}
