package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/agentx/agentx/internal/container"
	"github.com/agentx/agentx/internal/provider"
	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/internal/sessionmgr"
)

// Version is the AgentX platform version reported by GET /info.
const Version = "0.1.0"

// Config configures the HTTP server (spec.md §6.1/§6.4).
type Config struct {
	Port               int
	JWTSecret          string
	InviteCodeRequired bool
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

// DefaultConfig returns sensible listen/timeout defaults.
func DefaultConfig() Config {
	return Config{
		Port:         5200,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming responses (websocket) must not be capped
	}
}

// Server is the AgentX HTTP control surface plus the §6.2 event channel
// upgrade endpoint.
type Server struct {
	config    Config
	router    *chi.Mux
	httpSrv   *http.Server
	startedAt time.Time

	repo       repository.Repository
	container  *container.Container
	sessions   *sessionmgr.Manager
	providers  *provider.Registry
	log        zerolog.Logger
}

// New builds a Server wired to the given collaborators and sets up
// middleware and routes immediately.
func New(cfg Config, repo repository.Repository, c *container.Container, sessions *sessionmgr.Manager, providers *provider.Registry, log zerolog.Logger) *Server {
	s := &Server{
		config:    cfg,
		router:    chi.NewRouter(),
		startedAt: time.Now(),
		repo:      repo,
		container: c,
		sessions:  sessions,
		providers: providers,
		log:       log,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if s.config.JWTSecret != "" {
		s.router.Use(s.jwtAuth)
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}

// Router exposes the underlying chi.Mux, primarily for tests.
func (s *Server) Router() *chi.Mux { return s.router }

// Start begins serving HTTP on config.Port. It blocks until Shutdown is
// called or a fatal listener error occurs.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         httpAddr(s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func httpAddr(port int) string {
	if port == 0 {
		port = DefaultConfig().Port
	}
	return fmt.Sprintf(":%d", port)
}
