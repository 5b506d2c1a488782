// Package adminclient is a Go client for the administrator API. It keeps the
// session tokens, refreshes the access token before it expires and retries
// a request once when the server rejects its token.
package adminclient

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds every request, including refreshes.
const DefaultTimeout = 15 * time.Second

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Timeout is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http.httpClient = hc
		}
	}
}

// WithTenant sends slug as X-Tenant-ID on every request, for deployments
// where the tenant is not encoded in the host name.
func WithTenant(slug string) Option {
	return func(c *Client) {
		c.http.tenant = slug
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.http.userAgent = ua
	}
}

// WithTokenOptions configures the token manager.
func WithTokenOptions(opts ...TokenOption) Option {
	return func(c *Client) {
		c.tokenOpts = append(c.tokenOpts, opts...)
	}
}

type Client struct {
	http      *httpClient
	tokens    *TokenManager
	tokenOpts []TokenOption

	Auth   *AuthService
	Admins *AdminsService
}

func NewClient(baseURL string, opts ...Option) *Client {
	hc := newHTTPClient(baseURL, &http.Client{Timeout: DefaultTimeout})
	c := &Client{http: hc}
	for _, opt := range opts {
		opt(c)
	}
	c.Auth = &AuthService{http: hc}
	c.tokens = NewTokenManager(c.Auth.refresh, c.tokenOpts...)
	hc.tokens = c.tokens
	c.Auth.tokens = c.tokens
	c.Admins = &AdminsService{http: hc}
	return c
}

// Tokens exposes the token manager, e.g. to restore a saved session.
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// State is shorthand for Tokens().State().
func (c *Client) State() State {
	return c.tokens.State()
}
