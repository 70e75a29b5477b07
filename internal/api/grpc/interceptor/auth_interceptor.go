package interceptor

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"gearrent-backend/internal/config"
	"gearrent-backend/internal/logger"
	"gearrent-backend/internal/security"
)

type AuthInterceptor struct {
	verifier security.Verifier
}

func NewAuthInterceptor(v security.Verifier) *AuthInterceptor {
	return &AuthInterceptor{verifier: v}
}

// Unary returns a server interceptor function to authenticate and authorize unary RPCs
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		newCtx, err := i.authorize(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// Stream does the same for streaming RPCs such as health Watch and reflection
func (i *AuthInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		newCtx, err := i.authorize(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &identityStream{ServerStream: ss, ctx: newCtx})
	}
}

func (i *AuthInterceptor) authorize(ctx context.Context, method string) (context.Context, error) {
	level := config.GetSecurityLevel(method)

	// Public endpoint - skip auth
	if level == config.SecurityPublic {
		return ctx, nil
	}

	token, err := i.extractToken(ctx)
	if err != nil {
		return nil, err
	}

	id, err := i.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, status.Error(codes.Unauthenticated, "token has expired")
		}
		return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
	}

	if level == config.SecurityAdmin && !id.Admin {
		return nil, status.Error(codes.PermissionDenied, "admin access required")
	}

	return security.WithIdentity(ctx, id), nil
}

func (i *AuthInterceptor) extractToken(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	authHeader := md["authorization"]
	if len(authHeader) == 0 {
		return "", status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	token := authHeader[0]
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}

	return token, nil
}

type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context {
	return s.ctx
}

// UnaryLogging logs every unary call with its duration and status code
func UnaryLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("gRPC call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start))
		return resp, err
	}
}
