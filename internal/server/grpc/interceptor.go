package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/bizledger/internal/common"
	"github.com/dmitrijs2005/bizledger/internal/server/gate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// bearerToken reads the "authorization" metadata value. The "Bearer "
// prefix is optional.
func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationMetadataKey)
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimSpace(values[0])
	if len(v) >= len(common.BearerPrefix) && strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
		v = strings.TrimSpace(v[len(common.BearerPrefix):])
	}
	return v
}

// admit runs the gate for method and returns ctx carrying the caller's
// identity, or a status error.
func (s *GRPCServer) admit(ctx context.Context, method string) (context.Context, error) {
	rule := s.rules.Match("", method)

	id, err := s.guard.Check(ctx, rule, bearerToken(ctx))
	if err != nil {
		switch {
		case errors.Is(err, gate.ErrAccessDenied):
			return nil, status.Error(codes.PermissionDenied, "access denied")
		case errors.Is(err, gate.ErrAuthenticationRequired):
			return nil, status.Error(codes.Unauthenticated, "missing token")
		case errors.Is(err, common.ErrorUnauthorized):
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		default:
			s.logger.Error(ctx, "gate failure", "method", method, "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	if id != nil {
		ctx = gate.WithIdentity(ctx, id)
	}
	return ctx, nil
}

func (s *GRPCServer) gateInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx, err := s.admit(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// gatedStream hands the admitted context to stream handlers.
type gatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (g *gatedStream) Context() context.Context { return g.ctx }

func (s *GRPCServer) gateStreamInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.admit(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &gatedStream{ServerStream: ss, ctx: ctx})
}
