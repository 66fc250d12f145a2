package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/socialsphere/composer-backend/internal/content"
	pkgauth "github.com/socialsphere/composer-backend/pkg/auth"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1 << 20

var errBaseURLRequired = errors.New("generation base url is required")

// Client calls the content generation endpoint that turns raw post text into
// one draft per platform.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     pkgauth.TokenSource
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the generation client. No client-side timeout is imposed;
// callers bound each call through ctx.
func NewClient(baseURL string, tokens pkgauth.TokenSource, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type generateRequest struct {
	Post string `json:"post"`
}

// Generate performs the single atomic transform call. It either returns a
// complete bundle covering every supported platform or an error; there are
// no partial results. Repeated calls with identical text may legitimately
// yield different content.
func (c *Client) Generate(ctx context.Context, postText string) (content.Bundle, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(generateRequest{Post: postText})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding generation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building generation request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGeneration, err, "calling generation endpoint")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGeneration, err, "reading generation response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgerrors.New(pkgerrors.CodeGeneration, fmt.Sprintf("generation endpoint returned %d", resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	bundle, err := content.DecodeBundle(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGeneration, err, "incomplete generation response")
	}
	return bundle, nil
}
