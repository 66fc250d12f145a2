package auth

import (
	"context"
	"strings"

	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

// TokenSource supplies the bearer token attached to outgoing platform calls.
// It is an injected capability: clients never read token storage directly, so
// tests can swap in a static source and the token lifecycle stays observable.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// ErrNoToken is returned by sources that have no credential for the caller.
var ErrNoToken = pkgerrors.New(pkgerrors.CodeUnauthorized, "no bearer token available")

// StaticTokenSource always yields the same token. Intended for tests and
// single-tenant deployments.
type StaticTokenSource struct {
	Value string
}

func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	token := strings.TrimSpace(s.Value)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, error)

func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}
