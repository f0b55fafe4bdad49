// Package http serves the dashboard REST API: authentication, transaction
// listing, summary and export.
package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"findash/internal/auth"
	"findash/internal/cache"
	applog "findash/internal/log"
	"findash/internal/middleware/ratelimit"
	"findash/internal/middleware/security"
	"findash/internal/middleware/trace"
	"findash/internal/services"
	"findash/internal/store"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 30 * time.Second
	idleTimeout  = 60 * time.Second

	cacheCleanupInterval = 5 * time.Minute
	readyTimeout         = 5 * time.Second
)

// Options configures the HTTP surface.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	// LoginRateLimit is the number of register/login attempts allowed per
	// client IP per minute.
	LoginRateLimit int
	Logger         *applog.Logger
}

// Deps are the services behind the routes.
type Deps struct {
	Transactions *services.TransactionService
	Auth         *services.AuthService
	Gate         *auth.Gate
	Store        store.Pinger
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	auth         *services.AuthService
	gate         *auth.Gate
	store        store.Pinger
	logger       *applog.Logger

	loginLimiter     *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and returns a server ready for
// ListenAndServe. The caller must call Shutdown to stop background work.
func NewServer(opts Options, deps Deps) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		transactions:     deps.Transactions,
		auth:             deps.Auth,
		gate:             deps.Gate,
		store:            deps.Store,
		logger:           logger,
		loginLimiter:     ratelimit.NewLimiter(ratelimit.Config{Requests: opts.LoginRateLimit, Window: time.Minute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		cacheManager:     cache.NewManager(logger.Logger),
		started:          time.Now(),
	}

	if deps.Gate != nil {
		s.cacheManager.Register(deps.Gate.Cache())
	}
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	s.Server = http.Server{
		Addr:         opts.Addr,
		Handler:      s.buildHandler(s.routes(), opts.CORSAllowedOrigins),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, http.StatusNotFound, msgNotFound)
	})

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	limited := s.loginLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit)
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.Handle("/register", limited(http.HandlerFunc(s.handleRegister))).Methods(http.MethodPost)
	authRoutes.Handle("/login", limited(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	authRoutes.Handle("/me", s.gate.Middleware(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)

	gated := s.gate.Middleware
	r.Handle("/transactions", gated(http.HandlerFunc(s.handleListTransactions))).Methods(http.MethodGet)
	r.Handle("/transactions/summary", gated(http.HandlerFunc(s.handleSummary))).Methods(http.MethodGet)
	r.Handle("/transactions/export", gated(http.HandlerFunc(s.handleExport))).Methods(http.MethodGet)

	return r
}

// buildHandler wraps the router, outermost first: panic recovery, tracing,
// security headers, suspicious request logging, CORS.
func (s *Server) buildHandler(router http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", trace.HeaderRequestID},
		ExposedHeaders:   []string{"Content-Disposition", trace.HeaderRequestID},
		AllowCredentials: !slices.Contains(origins, "*"),
		MaxAge:           600,
	})

	var h http.Handler = c.Handler(router)
	h = s.securityDetector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	return s.recoverer(h)
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.ErrorContext(r.Context(), "Panic serving request",
					"panic", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()))
				writeMessage(w, r, http.StatusInternalServerError, msgServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.NewFields().
			WithClientIP(s.securityDetector.ExtractClientIP(r)).
			WithHTTPRequest(r.Method, r.URL.Path, "", "").
			ToSlice()...)
	writeMessage(w, r, http.StatusTooManyRequests, msgTooManyRequests)
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.loginLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
