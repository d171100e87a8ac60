package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-relay-bot/internal/config"
)

// LivenessText is served on "/"; it never depends on bot state.
const LivenessText = "Relay bot is running"

// Server exposes liveness, health and Prometheus metrics.
type Server struct {
	cfg    *config.HTTPConfig
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(cfg *config.HTTPConfig, logger *zerolog.Logger) *Server {
	s := &Server{cfg: cfg, log: logger}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router; exported for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, LivenessText)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
