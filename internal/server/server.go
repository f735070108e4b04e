// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"trendscope/internal/config"
	"trendscope/internal/logging"
	"trendscope/internal/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// Dependencies bundles the core components the HTTP surface exposes.
type Dependencies struct {
	Trends   handlers.TrendProvider
	Analyses handlers.AnalysisProvider
	History  handlers.HistoryProvider
	Manual   handlers.ManualProvider
	NATS     *nats.Conn
	Topic    string
	Clock    handlers.Clock
	Logger   logging.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	trendHandler := handlers.NewTrendHandler(deps.Trends)
	analysisHandler := handlers.NewAnalysisHandler(deps.Trends, deps.Analyses, deps.History, deps.Clock)
	manualHandler := handlers.NewManualHandler(deps.Manual)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Trends API
			r.Route("/trends", func(r chi.Router) {
				r.Get("/", trendHandler.GetTrends)
				r.Post("/refresh", trendHandler.RefreshTrends)
				r.Get("/cache", trendHandler.GetCacheStatus)

				// Trend detail
				r.Route("/{source}/{name}", func(r chi.Router) {
					r.Get("/analysis", analysisHandler.GetAnalysis)
					r.Get("/history", analysisHandler.GetHistory)
				})
			})

			// Manual entries API
			r.Route("/manual", func(r chi.Router) {
				r.Get("/", manualHandler.ListEntries)
				r.Post("/", manualHandler.CreateEntry)
			})
		})
	})

	// WebSocket endpoint for live snapshot-refresh notifications
	router.Get("/ws/trends", handlers.TrendsWebSocketHandler(deps.NATS, deps.Topic, deps.Logger))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
