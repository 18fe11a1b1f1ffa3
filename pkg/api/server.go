package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/gvserver/pkg/auth"
	"github.com/platinummonkey/gvserver/pkg/httputil"
	"github.com/platinummonkey/gvserver/pkg/middleware"
	"github.com/platinummonkey/gvserver/pkg/observability"
	"github.com/platinummonkey/gvserver/pkg/storage"
)

// DefaultMaxBodyBytes caps request bodies, attachments included
const DefaultMaxBodyBytes = 20 << 20

// Deps are the collaborators of a Server. Metrics and RateLimiter may be nil.
type Deps struct {
	Store        storage.Storage
	Tokens       *auth.TokenService
	HashPool     *auth.HashPool
	Logger       *observability.Logger
	Metrics      *observability.Metrics
	RateLimiter  *middleware.RateLimiter
	MaxBodyBytes int64
}

// Server represents our API server
type Server struct {
	store     storage.Storage
	tokens    *auth.TokenService
	hashPool  *auth.HashPool
	validator *auth.CredentialValidator
	logger    *observability.Logger
	metrics   *observability.Metrics
	authn     *middleware.AuthMiddleware
	limiter   *middleware.RateLimitMiddleware
	router    *mux.Router
	maxBody   int64
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	s := &Server{
		store:     deps.Store,
		tokens:    deps.Tokens,
		hashPool:  deps.HashPool,
		validator: auth.NewCredentialValidator(deps.Store, deps.HashPool),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		authn:     middleware.NewAuthMiddleware(deps.Tokens, deps.Metrics),
		router:    mux.NewRouter(),
		maxBody:   deps.MaxBodyBytes,
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if deps.RateLimiter != nil {
		s.limiter = middleware.NewRateLimitMiddleware(deps.RateLimiter, deps.Metrics)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	s.router.HandleFunc("/", s.liveness).Methods(http.MethodGet)
	s.router.HandleFunc("/health_check", s.liveness).Methods(http.MethodGet)

	s.router.Handle("/users", s.rateLimited("signup", s.signup)).Methods(http.MethodPost)
	s.router.Handle("/login", s.rateLimited("login", s.login)).Methods(http.MethodPost)

	s.router.Handle("/users", s.protected(s.getUser)).Methods(http.MethodGet)
	s.router.Handle("/users/{user_id}", s.protected(s.updateUser)).Methods(http.MethodPut)
	s.router.Handle("/users", s.protected(s.deleteUser)).Methods(http.MethodDelete)

	s.router.Handle("/pinpoints", s.protected(s.createPinpoint)).Methods(http.MethodPost)
	s.router.Handle("/pinpoints", s.protected(s.listPinpoints)).Methods(http.MethodGet)
	s.router.Handle("/pinpoints", s.protected(s.deletePinpoints)).Methods(http.MethodDelete)
}

func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return s.authn.Handler(h)
}

func (s *Server) rateLimited(route string, h http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return h
	}
	return s.limiter.Limit(route, h)
}

// Router exposes the route table, mainly for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// Handler returns the router wrapped in the cross-cutting middleware
func (s *Server) Handler() http.Handler {
	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware,
		httputil.MaxBytesMiddleware(s.maxBody),
	)
	return otelhttp.NewHandler(chain(s.router), "gvserver.http")
}

// ServeHTTP implements http.Handler without the outer middleware
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) liveness(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, StatusResponse{Status: "ok"})
}
