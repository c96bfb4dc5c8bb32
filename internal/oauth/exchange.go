package oauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	pkgoauth "everp/pkg/oauth"
)

// ExchangeClient turns authorization codes and refresh tokens into access
// tokens. It never retries and never refreshes on its own.
type ExchangeClient struct {
	protocol *pkgoauth.Client
	logger   *slog.Logger
	now      func() time.Time
}

// ExchangeOption configures an ExchangeClient.
type ExchangeOption func(*ExchangeClient)

// WithExchangeLogger sets the logger.
func WithExchangeLogger(logger *slog.Logger) ExchangeOption {
	return func(c *ExchangeClient) {
		c.logger = logger
	}
}

// NewExchangeClient creates an exchange client on top of protocol.
// A nil protocol client gets the package defaults.
func NewExchangeClient(protocol *pkgoauth.Client, opts ...ExchangeOption) *ExchangeClient {
	if protocol == nil {
		protocol = pkgoauth.NewClient()
	}
	c := &ExchangeClient{
		protocol: protocol,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExchangeCode redeems an authorization code with its PKCE verifier.
//
// Errors: *ConfigurationError for an unusable token endpoint,
// *pkgoauth.HTTPError for a non-2xx response, *pkgoauth.DecodeError for a
// body without an access token, *NetworkError for transport failures.
func (c *ExchangeClient) ExchangeCode(ctx context.Context, cfg *AuthorizationConfig, code, verifier string) (*pkgoauth.TokenResponse, error) {
	if code == "" {
		return nil, &CallbackValidationError{Reason: ReasonMissingCode}
	}
	if err := cfg.validateTokenEndpoint(); err != nil {
		return nil, err
	}

	start := c.now()
	token, err := c.protocol.ExchangeCode(ctx, cfg.TokenEndpoint(), code, cfg.RedirectURI(), cfg.ClientID(), verifier)
	if err != nil {
		err = classifyTokenError(err)
		c.logFailure("authorization_code", err)
		return nil, err
	}

	c.logger.Debug("Authorization code exchanged",
		"client_id", cfg.ClientID(),
		"duration", c.now().Sub(start),
		"has_refresh_token", token.RefreshToken != "")
	return token, nil
}

// RefreshAccessToken obtains a new access token from a refresh token.
// It is only ever called on explicit request.
func (c *ExchangeClient) RefreshAccessToken(ctx context.Context, cfg *AuthorizationConfig, refreshToken string) (*pkgoauth.TokenResponse, error) {
	if refreshToken == "" {
		return nil, &ConfigurationError{Field: "refresh_token", Reason: "must not be empty"}
	}
	if err := cfg.validateTokenEndpoint(); err != nil {
		return nil, err
	}

	token, err := c.protocol.RefreshToken(ctx, cfg.TokenEndpoint(), refreshToken, cfg.ClientID())
	if err != nil {
		err = classifyTokenError(err)
		c.logFailure("refresh_token", err)
		return nil, err
	}

	c.logger.Debug("Access token refreshed", "client_id", cfg.ClientID())
	return token, nil
}

func (c *ExchangeClient) logFailure(grant string, err error) {
	var httpErr *pkgoauth.HTTPError
	if errors.As(err, &httpErr) {
		c.logger.Warn("Token request rejected",
			"grant_type", grant,
			"status", httpErr.StatusCode,
			"oauth_error", httpErr.OAuthErrorCode())
		return
	}
	c.logger.Warn("Token request failed", "grant_type", grant, "error", err)
}

// classifyTokenError keeps protocol errors as they are and wraps everything
// else as a NetworkError.
func classifyTokenError(err error) error {
	var httpErr *pkgoauth.HTTPError
	var decodeErr *pkgoauth.DecodeError
	if errors.As(err, &httpErr) || errors.As(err, &decodeErr) {
		return err
	}
	return &NetworkError{Op: "token", Err: err}
}
