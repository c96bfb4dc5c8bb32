// Package gateway calls the everp API gateway on behalf of the logged-in user.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"everp/internal/oauth"
	pkgoauth "everp/pkg/oauth"
)

const (
	// DefaultBaseURL is the production gateway.
	DefaultBaseURL = "https://api.everp.co.kr"

	UserInfoPath = "/api/user/info"
	ProfilePath  = "/api/business/profile"

	// DefaultTimeout bounds a single gateway call.
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 4 << 20
)

// Client is a gateway client. It holds no token; each call receives one.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	newID      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the base HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a gateway client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, &oauth.ConfigurationError{Field: "gateway_url", Value: baseURL, Reason: "an http(s) URL with a host is required"}
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchUserInfo returns the identity behind token.
func (c *Client) FetchUserInfo(ctx context.Context, token oauth.RedactedToken) (*UserInfo, error) {
	body, err := c.get(ctx, "userinfo", UserInfoPath, token)
	if err != nil {
		return nil, err
	}

	var envelope APIResponse[UserInfo]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &pkgoauth.DecodeError{Endpoint: "userinfo", Err: err}
	}
	if envelope.Data == nil {
		return nil, &pkgoauth.DecodeError{Endpoint: "userinfo", Err: errors.New("response has no data")}
	}
	if envelope.Data.UserID == "" {
		return nil, &pkgoauth.DecodeError{Endpoint: "userinfo", Err: errors.New("response has no userId")}
	}
	return envelope.Data, nil
}

// FetchProfile returns the business profile behind token.
func (c *Client) FetchProfile(ctx context.Context, token oauth.RedactedToken) (*Profile, error) {
	body, err := c.get(ctx, "profile", ProfilePath, token)
	if err != nil {
		return nil, err
	}

	var envelope APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &pkgoauth.DecodeError{Endpoint: "profile", Err: err}
	}
	if envelope.Data == nil || string(*envelope.Data) == "null" {
		return nil, &pkgoauth.DecodeError{Endpoint: "profile", Err: errors.New("response has no data")}
	}

	profile, err := DecodeProfile(*envelope.Data)
	if err != nil {
		return nil, &pkgoauth.DecodeError{Endpoint: "profile", Err: err}
	}
	return profile, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, token oauth.RedactedToken) ([]byte, error) {
	if token.IsEmpty() {
		return nil, &UnauthorizedError{Endpoint: endpoint}
	}

	target := c.baseURL.JoinPath(path)
	requestID := c.newID()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.authorized(token).Do(req)
	if err != nil {
		c.logger.Debug("Gateway request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return nil, &oauth.NetworkError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &oauth.NetworkError{Op: endpoint, Err: err}
	}

	c.logger.Debug("Gateway response",
		"endpoint", endpoint,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &UnauthorizedError{
			Endpoint:  endpoint,
			Challenge: pkgoauth.ParseWWWAuthenticateFromResponse(resp),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, pkgoauth.NewHTTPError(endpoint, resp.StatusCode, body)
	}
	return body, nil
}

// authorized wraps the base client so requests carry token as bearer.
func (c *Client) authorized(token oauth.RedactedToken) *http.Client {
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: token.Value(),
				TokenType:   "Bearer",
			}),
			Base: c.httpClient.Transport,
		},
	}
}
