package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/agentstation/bookmap/pkg/constants"
	"github.com/agentstation/bookmap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	http     *http.Client
	auth     Authenticator
	apiKey   string
	provider string
	headers  map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// New creates a transport client for provider that authenticates with apiKey.
func New(provider string, auth Authenticator, apiKey string, opts ...Option) *Client {
	if auth == nil {
		auth = NoAuth{}
	}
	c := &Client{
		http:     &http.Client{Timeout: DefaultHTTPTimeout},
		auth:     auth,
		apiKey:   apiKey,
		provider: provider,
		headers:  map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in errors.
func (c *Client) Provider() string {
	return c.provider
}

// Do performs an HTTP request with authentication applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, errors.NewTimeoutError(c.provider, c.http.Timeout.String(), err.Error())
			}
			return nil, &errors.APIError{Provider: c.provider, Message: "request canceled", Endpoint: req.URL.String(), Err: errors.ErrCanceled}
		}
		return nil, &errors.APIError{Provider: c.provider, Message: err.Error(), Endpoint: req.URL.String(), Err: err}
	}
	return resp, nil
}

// PostJSON encodes body as JSON and posts it to url.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapParse("json", "request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &errors.APIError{Provider: c.provider, Message: "create request", Endpoint: url, Err: err}
	}
	return c.Do(req)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.APIError{Provider: c.provider, Message: "create request", Endpoint: url, Err: err}
	}
	return c.Do(req)
}
