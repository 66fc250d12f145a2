package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgauth "github.com/socialsphere/composer-backend/pkg/auth"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
	redisstore "github.com/socialsphere/composer-backend/pkg/redis"
)

const responseBodyReadLimit int64 = 1 << 16

const (
	cacheLinked   = "linked"
	cacheUnlinked = "unlinked"
)

// Cache is the subset of the redis client the provider needs. Lookups may
// fail without breaking the provider; the account service stays the source
// of truth.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Provider answers whether a user's account is linked to a platform. Results
// are cached in redis under a short TTL so repeated publish attempts do not
// hammer the account service.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	tokens     pkgauth.TokenSource
	cache      Cache
	ttl        time.Duration
}

// Option configures optional provider behavior.
type Option func(*Provider)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// WithCache attaches the link-status cache.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(p *Provider) {
		p.cache = cache
		p.ttl = ttl
	}
}

// NewProvider builds a link-status provider for the account service at baseURL.
func NewProvider(baseURL string, tokens pkgauth.TokenSource, opts ...Option) (*Provider, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("links base url is required")
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}

	provider := &Provider{
		baseURL:    strings.TrimRight(trimmed, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	return provider, nil
}

type statusResponse struct {
	Linked bool `json:"linked"`
}

// Linked reports whether userID has connected the given platform. Cache
// errors degrade to a fresh lookup, never to a failure.
func (p *Provider) Linked(ctx context.Context, userID string, platform enums.Platform) (bool, error) {
	if !platform.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown platform %q", platform))
	}

	key := redisstore.LinkKey(userID, platform.String())
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, key); err == nil {
			return cached == cacheLinked, nil
		}
	}

	linked, err := p.fetch(ctx, platform)
	if err != nil {
		return false, err
	}

	if p.cache != nil {
		value := cacheUnlinked
		if linked {
			value = cacheLinked
		}
		// Best effort; a failed cache write only costs the next lookup.
		_ = p.cache.Set(ctx, key, value, p.ttl)
	}
	return linked, nil
}

// RequireLinked gates a publish on the platform link being present.
func (p *Provider) RequireLinked(ctx context.Context, userID string, platform enums.Platform) error {
	linked, err := p.Linked(ctx, userID, platform)
	if err != nil {
		return err
	}
	if !linked {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s account is not linked", platform)).
			WithDetails(map[string]any{"platform": platform.String()})
	}
	return nil
}

func (p *Provider) fetch(ctx context.Context, platform enums.Platform) (bool, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return false, err
	}

	url := fmt.Sprintf("%s/links/%s/status", p.baseURL, platform)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building link status request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling account service")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("account service returned %d", resp.StatusCode)).
			WithDetails(map[string]any{"platform": platform.String(), "status": resp.StatusCode})
	}

	var status statusResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&status); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding link status response")
	}
	return status.Linked, nil
}
