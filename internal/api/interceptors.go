package api

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"cabanas/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	requestIDMetadataKey = "x-request-id"
	authorizationKey     = "authorization"
	clientKeyUnknown     = "unknown"

	// callTimeout bounds an RPC whose client set no deadline.
	callTimeout = 15 * time.Second
)

func LoggingUnaryInterceptor(logger *zerolog.Logger) grpc.UnaryServerInterceptor {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "grpc").Logger()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := requestIDFromMetadata(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, requestID))

		start := time.Now()
		resp, err := handler(ctx, req)
		dur := time.Since(start)

		code := codes.OK
		if err != nil {
			code = status.Code(err)
		}

		base.Info().
			Str("request_id", requestID).
			Str("method", info.FullMethod).
			Str("remote", peerHost(ctx)).
			Str("code", code.String()).
			Dur("duration", dur).
			Msg("grpc request")

		return resp, err
	}
}

func TimeoutUnaryInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok || timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

// AuthInterceptor resolves the caller: bearer tokens name the guest, API keys
// unlock admin methods, and every caller is rate limited.
type AuthInterceptor struct {
	identity *IdentityVerifier
	admin    *APIKeyAuth
	limiter  *rateLimiter
}

func NewAuthInterceptor(identity *IdentityVerifier, admin *APIKeyAuth, limiter *rateLimiter) *AuthInterceptor {
	return &AuthInterceptor{identity: identity, admin: admin, limiter: limiter}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)

		if !a.limiter.Allow(a.clientKey(ctx, md)) {
			return nil, grpcError(domain.ErrRateLimited)
		}

		if perm, ok := adminMethods[info.FullMethod]; ok {
			_, err := a.admin.Authorize(first(md.Get(a.admin.apiKeyHeader())), first(md.Get(a.admin.extraHeader())), perm)
			if err != nil {
				if errors.Is(err, errPermissionDenied) || errors.Is(err, errAdminDisabled) {
					return nil, status.Error(codes.PermissionDenied, err.Error())
				}
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
		}

		if raw, present := bearerToken(first(md.Get(authorizationKey))); present {
			userID, err := a.identity.Verify(raw)
			if err != nil {
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
			ctx = WithUser(ctx, userID)
		}

		return handler(ctx, req)
	}
}

func (a *AuthInterceptor) clientKey(ctx context.Context, md metadata.MD) string {
	return a.admin.clientKey(first(md.Get(a.admin.apiKeyHeader())), first(md.Get(a.admin.extraHeader())), peerHost(ctx))
}

// peerHost drops the port so reconnects share a bucket.
func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return clientKeyUnknown
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr == "" {
		return clientKeyUnknown
	}
	return addr
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if id := first(md.Get(requestIDMetadataKey)); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
