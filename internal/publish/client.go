package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/socialsphere/composer-backend/internal/content"
	"github.com/socialsphere/composer-backend/internal/media"
	pkgauth "github.com/socialsphere/composer-backend/pkg/auth"
	"github.com/socialsphere/composer-backend/pkg/enums"
	pkgerrors "github.com/socialsphere/composer-backend/pkg/errors"
)

// ProgressFunc receives best-effort upload percentages. Values are
// monotonically non-decreasing and only reach 100 on success.
type ProgressFunc func(percent int)

// Receipt confirms a completed publish.
type Receipt struct {
	Platform      enums.Platform `json:"platform"`
	UploadedBytes int64          `json:"uploaded_bytes"`
	CompletedAt   time.Time      `json:"completed_at"`
}

// Client uploads one attachment plus per-platform metadata to the
// platform's publish endpoint.
type Client struct {
	httpClient *http.Client
	endpoints  map[enums.Platform]string
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

// NewClient builds a publish client over the per-platform endpoint map.
// Callers bound each call with ctx; no client-side timeout is imposed.
func NewClient(endpoints map[enums.Platform]string, tokens pkgauth.TokenSource, opts ...Option) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, errors.New("publish endpoints are required")
	}
	for platform, endpoint := range endpoints {
		if !platform.IsValid() {
			return nil, fmt.Errorf("invalid platform %q in endpoint map", platform)
		}
		if strings.TrimSpace(endpoint) == "" {
			return nil, fmt.Errorf("empty endpoint for platform %s", platform)
		}
	}
	if tokens == nil {
		return nil, errors.New("token source is required")
	}

	client := &Client{
		endpoints:  endpoints,
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

// Publish sends the draft and exactly one attachment to the platform's
// endpoint. A nil attachment fails fast before any network activity.
func (c *Client) Publish(ctx context.Context, platform enums.Platform, draft content.Content, attachment *media.Attachment, onProgress ProgressFunc) (*Receipt, error) {
	endpoint, ok := c.endpoints[platform]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("no publish endpoint configured for %s", platform))
	}
	if draft == nil || draft.Platform() != platform {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("draft does not belong to %s", platform))
	}
	if attachment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNoMediaSelected, "an attachment is required to publish")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(0)
	}

	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)

	go func() {
		err := writeForm(form, draft, attachment, onProgress)
		if err != nil {
			pipeWriter.CloseWithError(err)
			return
		}
		pipeWriter.CloseWithError(form.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pipeReader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building publish request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, publishError(platform, err, "calling publish endpoint")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, pkgerrors.New(pkgerrors.CodePublish, fmt.Sprintf("publish endpoint returned %d", resp.StatusCode)).
			WithDetails(map[string]any{"platform": platform.String(), "status": resp.StatusCode})
	}

	if onProgress != nil {
		onProgress(100)
	}

	return &Receipt{
		Platform:      platform,
		UploadedBytes: attachment.Size,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

func writeForm(form *multipart.Writer, draft content.Content, attachment *media.Attachment, onProgress ProgressFunc) error {
	for name, value := range metadataFields(draft) {
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("writing field %s: %w", name, err)
		}
	}

	part, err := form.CreateFormFile("file", attachment.FileName)
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}
	reader := &progressReader{
		inner:  attachment.Open(),
		total:  attachment.Size,
		report: onProgress,
	}
	if _, err := io.Copy(part, reader); err != nil {
		return fmt.Errorf("streaming attachment: %w", err)
	}
	return nil
}

// metadataFields maps a draft variant onto the publish endpoint's form
// fields; list values travel comma-joined, matching the edit affordance.
func metadataFields(draft content.Content) map[string]string {
	switch c := draft.(type) {
	case *content.YouTube:
		return map[string]string{
			"title":         c.Title,
			"description":   c.Description,
			"privacyStatus": c.Privacy.String(),
			"tags":          strings.Join(c.Tags, ","),
		}
	case *content.TikTok:
		return map[string]string{
			"title":       c.Title,
			"description": c.Description,
			"hashtags":    strings.Join(c.Hashtags, ","),
		}
	case *content.Instagram:
		return map[string]string{
			"caption":  c.Caption,
			"hashtags": strings.Join(c.Hashtags, ","),
		}
	case *content.X:
		return map[string]string{
			"tweet":    c.Tweet,
			"hashtags": strings.Join(c.Hashtags, ","),
		}
	}
	return map[string]string{}
}

func publishError(platform enums.Platform, err error, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodePublish, err, message).
		WithDetails(map[string]any{"platform": platform.String()})
}

// progressReader reports file-byte progress while the multipart body is
// consumed. It caps at 99 so that 100 is only ever reported after the
// endpoint acknowledges the upload.
type progressReader struct {
	inner  io.Reader
	total  int64
	read   int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.inner.Read(b)
	p.read += int64(n)
	if p.report != nil && p.total > 0 && n > 0 {
		percent := int(p.read * 100 / p.total)
		if percent > 99 {
			percent = 99
		}
		p.report(percent)
	}
	return n, err
}
