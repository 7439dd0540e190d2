// Package grpc runs the gRPC listener. It serves the standard health service
// and guards every unary and streaming call with the same gate as the HTTP
// surface.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/bizledger/internal/logging"
	"github.com/dmitrijs2005/bizledger/internal/server/gate"
	"github.com/dmitrijs2005/bizledger/internal/server/rbac"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported by the health service alongside the overall status.
const ServiceName = "bizledger.auth"

// Guard decides whether a call may proceed. *gate.Gate implements it.
type Guard interface {
	Check(ctx context.Context, rule rbac.Rule, token string) (*gate.Identity, error)
}

type GRPCServer struct {
	address  string
	guard    Guard
	rules    rbac.Rules
	health   *health.Server
	register []func(*grpc.Server)
	logger   logging.Logger
}

// NewGRPCServer returns a server listening on a. Extra services can be
// attached with Register before Run.
func NewGRPCServer(a string, l logging.Logger, guard Guard) *GRPCServer {
	return &GRPCServer{
		address: a,
		guard:   guard,
		rules:   rbac.GRPCRules,
		health:  health.NewServer(),
		logger:  l.With("module", "grpc_server"),
	}
}

// Register queues fn to attach a service when the server starts.
func (s *GRPCServer) Register(fn func(*grpc.Server)) {
	s.register = append(s.register, fn)
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.gateInterceptor),
		grpc.ChainStreamInterceptor(s.gateStreamInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	for _, fn := range s.register {
		fn(srv)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gPRC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
