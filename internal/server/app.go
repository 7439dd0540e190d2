// Package server wires the bizledger auth subsystem together: it opens the
// database, runs migrations, builds the services and the request gate, and
// runs the HTTP and gRPC listeners until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/auth"
	"github.com/dmitrijs2005/bizledger/internal/server/config"
	"github.com/dmitrijs2005/bizledger/internal/server/gate"
	"github.com/dmitrijs2005/bizledger/internal/server/httpapi"
	"github.com/dmitrijs2005/bizledger/internal/server/metrics"
	"github.com/dmitrijs2005/bizledger/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bizledger/internal/server/revocation"
	"github.com/dmitrijs2005/bizledger/internal/server/services"

	gs "github.com/dmitrijs2005/bizledger/internal/server/grpc"
)

// denylistSize bounds the in-process denylist.
const denylistSize = 100_000

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	denylist       revocation.Denylist
	metrics        *metrics.Metrics
	gate           *gate.Gate
	authService    *services.AuthService
	accountService *services.AccountService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	warnInsecureDefaults(ctx, logger, c)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()

	denylist, err := newDenylist(ctx, c, m)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("denylist init error: %w", err)
	}

	codec := auth.NewCodec([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration, logger)
	lockout := auth.NewLockoutPolicy(c.MaxFailedAttempts, c.LockoutDuration, nil)

	as := services.NewAuthService(db, rm, auth.NewHasher(c.BcryptCost), codec, lockout, logger,
		services.WithStrictRefresh(c.StrictRefresh),
		services.WithRevocation(denylist),
		services.WithMetrics(m),
	)
	acs := services.NewAccountService(db, rm, nil, logger)

	g := gate.New(codec, acs, logger, gate.WithDenylist(denylist), gate.WithRecorder(m))

	return &App{
		config:         c,
		logger:         logger,
		db:             db,
		denylist:       denylist,
		metrics:        m,
		gate:           g,
		authService:    as,
		accountService: acs,
	}, nil
}

func warnInsecureDefaults(ctx context.Context, logger logging.Logger, c *config.Config) {
	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "using the default JWT secret; set JWT_SECRET or -s before going to production")
	}
}

func newDenylist(ctx context.Context, c *config.Config, m *metrics.Metrics) (revocation.Denylist, error) {
	switch c.RevocationBackend {
	case config.RevocationMemory:
		return revocation.NewMemory(denylistSize, c.RefreshTokenValidityDuration, nil,
			revocation.WithEvictionHook(m.DenylistEvicted)), nil
	case config.RevocationRedis:
		return revocation.NewRedis(ctx, c.RedisAddr)
	case config.RevocationNone, "":
		return revocation.Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown revocation backend %q", c.RevocationBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.gate, app.authService, app.accountService, app.logger,
		httpapi.WithMetrics(app.metrics))

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.gate)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or a listener fails, then releases the
// database and the denylist.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.denylist.Close(); err != nil {
		app.logger.Error(ctx, "denylist close failed", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
