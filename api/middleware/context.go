package middleware

import (
	"context"

	pkgauth "github.com/socialsphere/composer-backend/pkg/auth"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxBearerToken contextKey = "bearer_token"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func BearerTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBearerToken).(string); ok {
		return v
	}
	return ""
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithBearerToken injects the caller's raw bearer token into the context so
// outgoing platform calls can be made on the caller's behalf.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBearerToken, token)
}

// ContextTokenSource yields the request's own bearer token for outgoing
// platform calls. Handlers never touch token storage; absence fails before
// any network activity.
func ContextTokenSource() pkgauth.TokenSource {
	return pkgauth.TokenSourceFunc(func(ctx context.Context) (string, error) {
		token := BearerTokenFromContext(ctx)
		if token == "" {
			return "", pkgauth.ErrNoToken
		}
		return token, nil
	})
}
