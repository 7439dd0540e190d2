// Package httpapi is the HTTP surface of bizledger: the auth and admin
// routes, the gate middleware guarding every route and the metrics endpoint.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/gate"
	"github.com/dmitrijs2005/bizledger/internal/server/metrics"
	"github.com/dmitrijs2005/bizledger/internal/server/models"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"github.com/dmitrijs2005/bizledger/internal/server/services"
	"github.com/gorilla/mux"
)

const serviceName = "bizledger-auth"

// AuthAPI is implemented by services.AuthService.
type AuthAPI interface {
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, tokens ...string)
}

// AccountAdmin is implemented by services.AccountService.
type AccountAdmin interface {
	ListLocked(ctx context.Context) ([]*models.Account, error)
	Unlock(ctx context.Context, username string) error
	ChangeRole(ctx context.Context, username, role string) error
	SetActive(ctx context.Context, username string, active bool) error
}

// Guard decides whether a call may proceed. *gate.Gate implements it.
type Guard interface {
	Check(ctx context.Context, rule rbac.Rule, token string) (*gate.Identity, error)
}

type Server struct {
	address  string
	router   *mux.Router
	guard    Guard
	rules    rbac.Rules
	auth     AuthAPI
	accounts AccountAdmin
	metrics  *metrics.Metrics
	logger   logging.Logger
	now      func() time.Time
}

type Option func(*Server)

// WithMetrics instruments every request and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRules replaces rbac.HTTPRules.
func WithRules(rules rbac.Rules) Option {
	return func(s *Server) { s.rules = rules }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(address string, guard Guard, auth AuthAPI, accounts AccountAdmin, logger logging.Logger, opts ...Option) *Server {
	s := &Server{
		address:  address,
		router:   mux.NewRouter(),
		guard:    guard,
		rules:    rbac.HTTPRules,
		auth:     auth,
		accounts: accounts,
		logger:   logger.With("module", "http_server"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/auth/me", s.me).Methods(http.MethodGet)
	r.HandleFunc("/docs", s.docs).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/accounts/locked", s.listLocked).Methods(http.MethodGet)
	admin.HandleFunc("/accounts/{username}/unlock", s.unlock).Methods(http.MethodPost)
	admin.HandleFunc("/accounts/{username}/role", s.changeRole).Methods(http.MethodPut)
	admin.HandleFunc("/accounts/{username}/active", s.setActive).Methods(http.MethodPut)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
}

// Mount serves handler under prefix. Mounted routes go through the gate like
// every other route; their access is decided by the rules table.
func (s *Server) Mount(prefix string, handler http.Handler) {
	s.router.PathPrefix(prefix).Handler(handler)
}

// Handler returns the complete handler chain. The gate wraps the router
// itself so unmatched paths are guarded too.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.gateMiddleware(s.router)
	if s.metrics != nil {
		h = s.metrics.HTTPMiddleware(h)
	}
	return h
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
