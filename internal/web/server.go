// Package web provides the HTTP API and HTML report for the data quality engine.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/dataquality/internal/config"
	"github.com/JonMunkholm/dataquality/internal/core"
	mw "github.com/JonMunkholm/dataquality/internal/web/middleware"
)

// Server is the HTTP server for the data quality engine.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	timeout := s.cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s.router.Use(middleware.Timeout(timeout))

	// Security hardening
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.With(mw.APIKeyAuth(&s.cfg.Security)).Get("/tables/{tableID}/report", s.handleReport)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		// Tables
		r.Get("/tables", s.handleListTables)
		r.Post("/tables", s.handleCreateTable)
		r.Post("/tables/upload", s.handleUploadTable)
		r.Get("/tables/{tableID}", s.handleGetTable)
		r.Delete("/tables/{tableID}", s.handleDeleteTable)
		r.Post("/tables/{tableID}/analyze", s.handleAnalyze)
		r.Post("/tables/{tableID}/reset", s.handleResetTable)
		r.Get("/tables/{tableID}/rows", s.handleTableRows)

		// Profiles and quality index
		r.Get("/tables/{tableID}/profiles", s.handleProfiles)
		r.Get("/tables/{tableID}/kpis", s.handleKPIs)
		r.Get("/tables/{tableID}/comparison", s.handleComparison)
		r.Get("/tables/{tableID}/lineage", s.handleLineage)

		// Issues
		r.Get("/tables/{tableID}/issues", s.handleListIssues)
		r.Post("/tables/{tableID}/issues/{issueID}/remediate", s.handleRemediate)
		r.Get("/issues/{issueID}", s.handleGetIssue)
		r.Get("/issues/{issueID}/options", s.handleOptions)
		r.Put("/issues/{issueID}/override", s.handleSetOverride)
		r.Delete("/issues/{issueID}/override", s.handleClearOverride)
		r.Put("/issues/{issueID}/status", s.handleSetStatus)
		r.Get("/issues/{issueID}/suggestion", s.handleSuggestion)

		// Scoring configuration
		r.Get("/scoring-config", s.handleGetScoringConfig)
		r.Patch("/scoring-config", s.handlePatchScoringConfig)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("http server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports liveness and analysis capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"limiter": s.service.Limiter().Status(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The report page is self-contained: inline styles, no scripts.
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
