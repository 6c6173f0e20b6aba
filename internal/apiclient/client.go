// Package apiclient is the HTTP request wrapper for the upstream content
// API. It attaches bearer credentials, normalizes non-2xx responses into
// typed failures, and routes 401s through the session's unauthorized
// handler. Retries belong to the query layer, not here.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/session"
)

// maxErrorBody bounds how much of an error response is kept for reporting.
const maxErrorBody = 8 << 10

// Client issues requests against the content API root.
type Client struct {
	base    *url.URL
	httpc   *http.Client
	session *session.Manager
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// New creates a Client for the given API root (scheme://host[/prefix]).
func New(baseURL string, sess *session.Manager, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: base url must be absolute: %s", baseURL)
	}
	c := &Client{
		base:    u,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Raw is a request body whose serialization the caller controls, e.g. a
// multipart payload where the writer generates the boundary.
type Raw struct {
	ContentType string
	Body        io.Reader
}

type routeKey struct{}

// WithRoute annotates ctx with the consumer-visible route the request is
// made on behalf of. The unauthorized handler uses it as the post-login
// return path.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(ctx context.Context) string {
	if r, ok := ctx.Value(routeKey{}).(string); ok {
		return r
	}
	return ""
}

// Do issues a single request. body may be nil, a Raw payload, or any
// JSON-serializable value. The caller owns the response body on 2xx. On
// non-2xx the body is consumed into a typed *apperr.Status; a 401
// additionally triggers the session's unauthorized handler before the error
// is returned.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	var contentType string
	switch b := body.(type) {
	case nil:
	case Raw:
		reader = b.Body
		contentType = b.ContentType
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.HandleUnauthorized(routeFrom(ctx))
	}
	return nil, &apperr.Status{Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
}

// resolve joins path against the API root. Absolute URLs pass through so
// callers can follow upstream-provided links.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return c.base.String() + path
	}
	return c.base.ResolveReference(ref).String()
}
