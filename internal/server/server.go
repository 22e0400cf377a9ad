package server

import (
	"log/slog"
	"net/http"

	"scr-dashboard/internal/handlers"
	"scr-dashboard/internal/services"
)

type Server struct {
	analytics    *services.Analytics
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
	guard        func(http.Handler) http.Handler
}

type Option func(*Server)

// WithAdminGuard protects every admin page, API and SSE route.
func WithAdminGuard(guard func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.guard = guard }
}

func NewServer(analytics *services.Analytics, updates handlers.UpdateSource, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		analytics:    analytics,
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:  handlers.NewSSEHandlers(analytics, updates, logger),
		pageHandlers: handlers.NewPageHandlers(analytics, logger),
		guard:        func(h http.Handler) http.Handler { return h },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) admin(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.guard(h))
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleRoot)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)

	// Admin pages
	s.admin("GET /admin", s.pageHandlers.HandleHome)
	s.admin("GET /admin/analytics", s.pageHandlers.HandleAnalytics)
	s.admin("GET /admin/alerts", s.pageHandlers.HandleAlerts)
	s.admin("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.admin("GET /api/overview", s.apiHandlers.HandleOverview)
	s.admin("GET /api/sales", s.apiHandlers.HandleSales)
	s.admin("GET /api/summary", s.apiHandlers.HandleSummary)
	s.admin("GET /api/low-stock", s.apiHandlers.HandleLowStock)
	s.admin("GET /api/alerts", s.apiHandlers.HandleAlerts)

	// Datastar SSE endpoints
	s.admin("GET /sse/overview", s.sseHandlers.HandleOverview)
	s.admin("GET /sse/sales", s.sseHandlers.HandleSales)
	s.admin("GET /sse/alerts", s.sseHandlers.HandleAlerts)
	s.admin("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
	s.admin("GET /sse/live", s.sseHandlers.HandleLive)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
