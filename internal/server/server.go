// Package server provides the HTTP server and routing for ZapDeck.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/zapdeck/zapdeck/internal/config"
	agenthandlers "github.com/zapdeck/zapdeck/internal/modules/agents/handlers"
	deployhandlers "github.com/zapdeck/zapdeck/internal/modules/deploy/handlers"
	portfoliohandlers "github.com/zapdeck/zapdeck/internal/modules/portfolio/handlers"
	sessionhandlers "github.com/zapdeck/zapdeck/internal/modules/session/handlers"
)

// Config holds server configuration
type Config struct {
	Log              zerolog.Logger
	Config           *config.Config
	SessionHandler   *sessionhandlers.Handler
	AgentHandler     *agenthandlers.Handler
	PortfolioHandler *portfoliohandlers.Handler
	DeployHandler    *deployhandlers.Handler
	SystemHandlers   *SystemHandlers
	Stream           *Hub
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config

	sessionHandler   *sessionhandlers.Handler
	agentHandler     *agenthandlers.Handler
	portfolioHandler *portfoliohandlers.Handler
	deployHandler    *deployhandlers.Handler
	systemHandlers   *SystemHandlers
	stream           *Hub
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:           chi.NewRouter(),
		log:              cfg.Log.With().Str("component", "server").Logger(),
		cfg:              cfg.Config,
		sessionHandler:   cfg.SessionHandler,
		agentHandler:     cfg.AgentHandler,
		portfolioHandler: cfg.PortfolioHandler,
		deployHandler:    cfg.DeployHandler,
		systemHandlers:   cfg.SystemHandlers,
		stream:           cfg.Stream,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Liveness check, outside /api
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Route("/api", func(r chi.Router) {
		// WebSocket stream - no middleware-added timeouts apply here
		r.Get("/stream", s.stream.ServeHTTP)

		s.sessionHandler.RegisterRoutes(r)
		s.agentHandler.RegisterRoutes(r)
		s.portfolioHandler.RegisterRoutes(r)
		s.deployHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/health", s.systemHandlers.HandleHealth)
			r.Get("/info", s.systemHandlers.HandleInfo)
		})
	})
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.stream.CloseAll()
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
