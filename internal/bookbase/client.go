// Package bookbase is a typed client for the bookbase library REST API.
package bookbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bookbase/bookbase-admin/internal/metrics"
)

// CredentialProvider supplies the bearer token for authenticated calls.
// An empty token means no credential is available.
type CredentialProvider interface {
	Credential(ctx context.Context) (string, error)
}

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func(ctx context.Context) (string, error)

// Credential calls f.
func (f CredentialFunc) Credential(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticCredential always returns the same token.
func StaticCredential(token string) CredentialProvider {
	return CredentialFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each request. Ignored when HTTPClient is set.
	Timeout time.Duration
	// RateLimit is the maximum requests per second, 0 means unlimited.
	RateLimit   float64
	Credentials CredentialProvider
	Logger      *slog.Logger
	Metrics     metrics.Recorder
	HTTPClient  *http.Client
}

// Client calls the bookbase API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	credentials CredentialProvider
	logger      *slog.Logger
	metrics     metrics.Recorder
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Client{
		baseURL:     strings.TrimRight(base.String(), "/"),
		httpClient:  httpClient,
		limiter:     limiter,
		credentials: opts.Credentials,
		logger:      logger,
		metrics:     recorder,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping fetches a one-item catalog page to check that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, request{
		op:     "ping",
		method: http.MethodGet,
		path:   "/livros",
		query:  listQuery(0, 1, ""),
	}, nil)
}

// request describes one API call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	auth        bool
}

// do sends req and decodes a JSON response into out. out may be nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: req.op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// send performs req. The caller owns the returned body. Non-2xx responses
// are turned into *APIError and their body is consumed.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	var token string
	if req.auth {
		var err error
		token, err = c.credential(ctx)
		if err != nil {
			return nil, err
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Op: req.op, Err: err}
		}
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		// bytes.Reader lets the transport replay the body on a redirect.
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, &TransportError{Op: req.op, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		c.metrics.ObserveAPIRequest(req.op, "error", duration)
		c.logger.WarnContext(ctx, "bookbase request failed",
			slog.String("op", req.op),
			slog.String("method", req.method),
			slog.String("path", req.path),
			slog.String("error", err.Error()),
		)
		return nil, &TransportError{Op: req.op, Err: err}
	}

	c.metrics.ObserveAPIRequest(req.op, statusClass(resp.StatusCode), duration)
	c.logger.DebugContext(ctx, "bookbase request",
		slog.String("op", req.op),
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status_code", resp.StatusCode),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}
	return resp, nil
}

func (c *Client) credential(ctx context.Context) (string, error) {
	if c.credentials == nil {
		return "", ErrMissingCredential
	}
	token, err := c.credentials.Credential(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// listQuery builds the skip/limit/busca query shared by the list endpoints.
// busca is omitted for a blank term.
func listQuery(skip, limit int, search string) url.Values {
	q := url.Values{}
	q.Set("skip", fmt.Sprint(skip))
	q.Set("limit", fmt.Sprint(limit))
	if term := strings.TrimSpace(search); term != "" {
		q.Set("busca", term)
	}
	return q
}
