package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BlackMission/fedisub/internal/broker"
	"github.com/BlackMission/fedisub/internal/handler"
	"github.com/BlackMission/fedisub/internal/metrics"
	"github.com/BlackMission/fedisub/internal/observability/logger"
	"github.com/BlackMission/fedisub/internal/ratelimit"
)

// Config holds the server configuration.
type Config struct {
	Host      string
	Port      int
	CookieTTL time.Duration

	// TrustProxyHeaders keys rate limits on X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool
}

// Deps holds the service dependencies.
type Deps struct {
	Broker  *broker.Broker
	Views   *handler.Views
	Metrics *metrics.Metrics
	// Limiter throttles /register-app. Nil disables rate limiting.
	Limiter *ratelimit.Limiter
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// New creates a new Server with all routes wired.
func New(cfg Config, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withLogging)
	r.Use(middleware.Recoverer)
	r.Use(withMetrics(deps.Metrics))

	r.Get("/health", handler.Health())
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Get("/", handler.Home(deps.Views))
	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware(ratelimit.KeyExtractorFor(cfg.TrustProxyHeaders)))
		}
		register := handler.RegisterApp(deps.Broker, deps.Views, cfg.CookieTTL)
		r.Get("/register-app", register)
		r.Get("/register-app/{domain}", register)
	})
	r.Get(broker.CallbackPath, handler.Callback(deps.Broker, deps.Views, cfg.CookieTTL))
	r.Get("/following-view", handler.FollowingView(deps.Broker, deps.Views))
	r.Get("/subscribe/{userID}", handler.Subscribe(deps.Broker, deps.Views))
	r.Get("/unsubscribe/{userID}", handler.Unsubscribe(deps.Broker, deps.Views))
	r.Get("/sign-out", handler.SignOut())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		handler: r,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening and serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	logger.L().Info("fedisub listening", logger.String("addr", s.httpServer.Addr))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
