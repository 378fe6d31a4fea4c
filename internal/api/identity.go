package api

import (
	"context"
	"strings"
	"time"

	"github.com/matheus3301/chatter/internal/wire"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
)

type callerKey struct{}

// callerID returns the authenticated user id placed on ctx by the interceptors.
func callerID(ctx context.Context) string {
	id, _ := ctx.Value(callerKey{}).(string)
	return id
}

// authorize resolves the caller of a Messenger method. Calls outside the
// service (health checks) and GetStatus pass through anonymously; RegisterUser
// only needs an identity, everything else a registered one.
func (s *Service) authorize(ctx context.Context, fullMethod string) (context.Context, error) {
	method, ok := strings.CutPrefix(fullMethod, "/"+wire.ServiceName+"/")
	if !ok || method == "GetStatus" {
		return ctx, nil
	}

	id, ok := wire.UserFromIncoming(ctx)
	if !ok {
		return nil, grpcstatus.Errorf(codes.Unauthenticated, "missing %s metadata", wire.UserMetadataKey)
	}
	if method != "RegisterUser" {
		u, err := s.db.GetUser(id)
		if err != nil {
			return nil, internal("load caller", err)
		}
		if u == nil {
			return nil, grpcstatus.Errorf(codes.FailedPrecondition, "user %q is not registered", id)
		}
	}
	return context.WithValue(ctx, callerKey{}, id), nil
}

// UnaryInterceptor authenticates and logs unary calls.
func (s *Service) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx, err := s.authorize(ctx, info.FullMethod)
		if err != nil {
			s.logCall(info.FullMethod, "", start, err)
			return nil, err
		}
		resp, err := handler(ctx, req)
		s.logCall(info.FullMethod, callerID(ctx), start, err)
		return resp, err
	}
}

// StreamInterceptor authenticates streaming calls.
func (s *Service) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx, err := s.authorize(ss.Context(), info.FullMethod)
		if err != nil {
			s.logCall(info.FullMethod, "", start, err)
			return err
		}
		err = handler(srv, &identityStream{ServerStream: ss, ctx: ctx})
		s.logCall(info.FullMethod, callerID(ctx), start, err)
		return err
	}
}

type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context { return s.ctx }

func (s *Service) logCall(method, user string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.Duration("took", time.Since(start)),
	}
	if user != "" {
		fields = append(fields, zap.String("user", user))
	}
	if err != nil {
		code := grpcstatus.Code(err)
		fields = append(fields, zap.String("code", code.String()), zap.Error(err))
		if code == codes.Internal || code == codes.Unknown {
			s.logger.Error("rpc failed", fields...)
			return
		}
		s.logger.Info("rpc rejected", fields...)
		return
	}
	s.logger.Debug("rpc", fields...)
}
