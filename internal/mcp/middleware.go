package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/probill/internal/domain/access"
)

type contextKey int

const actorKey contextKey = iota

// actorFromContext returns the actor resolved by the auth middleware.
func actorFromContext(ctx context.Context) access.Actor {
	v, _ := ctx.Value(actorKey).(access.Actor)
	return v
}

// ActorResolver resolves the calling actor and its business from a bearer token.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) (access.Actor, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver ActorResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			actor, err := resolver.Resolve(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}
			if actor.ID == "" || actor.BusinessID == "" {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			ctx = context.WithValue(ctx, actorKey, actor)
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware injects a default actor when auth is disabled.
func noAuthMiddleware(actor access.Actor) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, actorKey, actor)
			return next(ctx, method, req)
		}
	}
}
