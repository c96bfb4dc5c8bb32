package oauth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	pkgoauth "everp/pkg/oauth"
)

// LogoutClient ends the server-side session of an access token.
type LogoutClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// LogoutOption configures a LogoutClient.
type LogoutOption func(*LogoutClient)

// WithLogoutHTTPClient sets the base HTTP client. Its transport is wrapped to
// add the bearer token.
func WithLogoutHTTPClient(httpClient *http.Client) LogoutOption {
	return func(c *LogoutClient) {
		c.httpClient = httpClient
	}
}

// WithLogoutLogger sets the logger.
func WithLogoutLogger(logger *slog.Logger) LogoutOption {
	return func(c *LogoutClient) {
		c.logger = logger
	}
}

// NewLogoutClient creates a client for the given logout endpoint.
func NewLogoutClient(endpoint string, opts ...LogoutOption) (*LogoutClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return nil, &ConfigurationError{Field: "logout_endpoint", Value: endpoint, Reason: "an http(s) URL with a host is required"}
	}

	c := &LogoutClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: pkgoauth.DefaultHTTPTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Logout posts to the logout endpoint with the token as bearer credential.
// The response body is not interpreted. A non-2xx status is a
// *pkgoauth.HTTPError and a transport failure is a *NetworkError.
func (c *LogoutClient) Logout(ctx context.Context, token RedactedToken) error {
	if token.IsEmpty() {
		c.logger.Debug("Skipping remote logout without a token")
		return nil
	}

	client := &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: token.Value(),
				TokenType:   "Bearer",
			}),
			Base: c.httpClient.Transport,
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{Op: "logout", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgoauth.NewHTTPError("logout", resp.StatusCode, body)
	}

	c.logger.Debug("Remote session ended", "status", resp.StatusCode)
	return nil
}
