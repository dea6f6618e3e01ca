// Package server assembles the HTTP surface: chat, reservations and the
// sales ledger behind one chi router.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/analysis"
	"github.com/ziadkadry99/cafeteria-ai/internal/chat"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
	"github.com/ziadkadry99/cafeteria-ai/internal/reservations"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
	// APITimeout bounds each /api request. Zero uses 120s.
	APITimeout time.Duration
}

// Deps are the feature components the server routes to. Nil components
// are not mounted.
type Deps struct {
	Engine       chat.Answerer
	Ledger       *ledger.Ledger
	Reservations *reservations.Service
	Reader       *knowledge.Reader
	Analysis     *analysis.Service
}

// Server is the cafeteria HTTP server.
type Server struct {
	cfg        Config
	deps       Deps
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all routes registered.
func New(cfg Config, deps Deps, logger *zap.Logger) *Server {
	if cfg.APITimeout == 0 {
		cfg.APITimeout = 120 * time.Second
	}
	s := &Server{cfg: cfg, deps: deps, logger: logging.OrNop(logger)}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
		corsOpts.AllowCredentials = false
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	var chatHandler *chat.Handler
	if s.deps.Engine != nil {
		chatHandler = chat.New(s.deps.Engine, s.logger)
		// The websocket lives outside the request timeout.
		r.Get("/ws/chat", chatHandler.ServeWebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.APITimeout))
		if chatHandler != nil {
			r.Post("/api/chat", chatHandler.ServeChat)
		}
		if s.deps.Reservations != nil {
			reservations.RegisterRoutes(r, s.deps.Reservations)
		}
		if s.deps.Ledger != nil && s.deps.Reader != nil {
			ledger.RegisterRoutes(r, s.deps.Ledger, s.deps.Reader)
		}
		if s.deps.Analysis != nil {
			analysis.RegisterRoutes(r, s.deps.Analysis)
		}
	})

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("cafeteria server listening", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
