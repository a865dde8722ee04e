package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fetcher retrieves the current review list. *Client implements it; the sync
// controller depends only on this interface.
type Fetcher interface {
	FetchReviews(ctx context.Context) ([]Review, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// Client talks to the review service HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	DefaultBaseURL   = "http://localhost:8000"
	defaultUserAgent = "reviewdeck/0.1"
	defaultTimeout   = 10 * time.Second

	reviewsPath     = "/api/reviews"
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 256
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for the given base URL. An empty value selects
// DefaultBaseURL; a bare host:port is promoted to http. A path prefix is
// kept so the service may live behind a reverse proxy.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized service address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchReviews retrieves every review, newest first, as ordered by the
// service. Failures are *TransportError, *ResponseError or *ParseError.
func (c *Client) FetchReviews(ctx context.Context) ([]Review, error) {
	if c == nil {
		return nil, &TransportError{Op: "fetch reviews", Err: errors.New("client is nil")}
	}
	var payload []Review
	if err := c.get(ctx, reviewsPath, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, &ParseError{Err: errors.New("expected a JSON array, got null")}
	}
	for i, r := range payload {
		if r.CreatedAt.IsZero() {
			return nil, &ParseError{Err: fmt.Errorf("review %d (id %q) has no created_at", i, string(r.ID))}
		}
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	reqURL := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return &TransportError{Op: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ResponseError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Body:       string(bytes.TrimSpace(snippet)),
		}
	}

	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return &ParseError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &ParseError{Err: errors.New("decode response: unexpected data after JSON value")}
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
