package server

import (
	"log/slog"
	"net/http"
	"time"

	"supermarket-dashboard/internal/binding"
	"supermarket-dashboard/internal/handlers"
	"supermarket-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

type Options struct {
	Version          string
	Sessions         *binding.Registry
	RecomputeTimeout time.Duration
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers, opts Options) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger, opts.Version),
		sseHandlers: handlers.NewSSEHandlers(opts.Sessions, len(analytics.Cities()), opts.RecomputeTimeout, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API
	s.mux.HandleFunc("GET /api/cities", s.apiHandlers.HandleCities)
	s.mux.HandleFunc("GET /api/tables", s.apiHandlers.HandleTables)
	s.mux.HandleFunc("GET /api/charts", s.apiHandlers.HandleCharts)
	s.mux.HandleFunc("GET /charts/{slot}", s.apiHandlers.HandleChartSVG)

	// Datastar SSE
	s.mux.HandleFunc("GET /sse/charts", s.sseHandlers.HandleCharts)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
