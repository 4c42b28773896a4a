package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/setup"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/desertthunder/spotctl/internal/web"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which route patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                                        // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler, mw ...Middleware) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                                             // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request)                    // ServeHTTP implements http.Handler for the entire router
}

var _ Router = (*BasicRouter)(nil)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server is the playback proxy. It owns the auth manager, the pairing registry and the OAuth state store for the
// lifetime of the process.
type Server struct {
	auth     *services.AuthManager
	playback *services.PlaybackService
	sessions *setup.Registry
	states   *StateStore
	limiter  *RateLimiter
	pages    *web.Pages
	logger   *log.Logger
	localIP  func() string
	port     atomic.Int32
	router   *BasicRouter
	http     *http.Server
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the logger used for access logs and handler errors.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry replaces the pairing session registry.
func WithRegistry(r *setup.Registry) Option {
	return func(s *Server) { s.sessions = r }
}

// WithStateStore replaces the OAuth state store.
func WithStateStore(st *StateStore) Option {
	return func(s *Server) { s.states = st }
}

// WithRateLimiter replaces the limiter guarding the credential endpoints.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithLocalIP replaces LAN address discovery used in pairing URLs.
func WithLocalIP(fn func() string) Option {
	return func(s *Server) { s.localIP = fn }
}

// New wires the routes. It does not start listening.
func New(auth *services.AuthManager, playback *services.PlaybackService, opts ...Option) *Server {
	s := &Server{
		auth:     auth,
		playback: playback,
		localIP:  shared.LocalIP,
		pages:    web.MustLoad(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	if s.sessions == nil {
		s.sessions = setup.NewRegistry()
	}
	if s.states == nil {
		s.states = NewStateStore()
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(DefaultRateLimit, DefaultRateBurst)
	}

	s.router = NewBasicRouter()
	s.router.Use(RequestID(), AccessLog(s.logger), Recover(s.logger))
	s.routes()

	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on addr and serves until [Server.Shutdown] is called.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l. It returns nil after a graceful shutdown, including one requested before Serve
// was called.
func (s *Server) Serve(l net.Listener) error {
	if tcp, ok := l.Addr().(*net.TCPAddr); ok {
		s.port.Store(int32(tcp.Port))
	}

	s.logger.Info("server listening", "addr", l.Addr().String())
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests, bounded by ctx or five seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	return s.http.Shutdown(ctx)
}

// listenPort is the port pairing URLs point at: the bound port when serving, the configured one otherwise.
func (s *Server) listenPort() int {
	if p := s.port.Load(); p != 0 {
		return int(p)
	}
	return s.auth.Config().Port
}
