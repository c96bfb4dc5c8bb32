// Package login runs one interactive sign-in from start to finish.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"everp/internal/browser"
	"everp/internal/gateway"
	"everp/internal/oauth"
	"everp/internal/session"
	pkgoauth "everp/pkg/oauth"
)

// ErrAlreadyAuthenticated is returned when a login is requested for a
// session that already has a token.
var ErrAlreadyAuthenticated = errors.New("already logged in")

// TokenExchanger redeems an authorization code.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, cfg *oauth.AuthorizationConfig, code, verifier string) (*pkgoauth.TokenResponse, error)
}

// Runner connects the authorization flow, a browser surface, the token
// exchange and the session manager.
type Runner struct {
	cfg       *oauth.AuthorizationConfig
	flow      *oauth.FlowController
	surface   browser.Surface
	exchanger TokenExchanger
	session   *session.Manager
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithFlowController replaces the default flow controller.
func WithFlowController(flow *oauth.FlowController) Option {
	return func(r *Runner) {
		r.flow = flow
	}
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *oauth.AuthorizationConfig, surface browser.Surface, exchanger TokenExchanger, sess *session.Manager, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		surface:   surface,
		exchanger: exchanger,
		session:   sess,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.flow == nil {
		r.flow = oauth.NewFlowController(oauth.WithFlowLogger(r.logger))
	}
	return r
}

// Run performs one login attempt and returns the signed-in user.
//
// The returned user is nil when the token was stored but the identity could
// not be fetched for a reason other than 401. The flow controller is reset
// on every return path, and a failed attempt leaves the session
// unauthenticated without touching the token store.
func (r *Runner) Run(ctx context.Context) (*gateway.UserInfo, error) {
	if !r.session.RequestLogin() {
		return nil, ErrAlreadyAuthenticated
	}
	defer r.flow.Reset()

	user, err := r.run(ctx)
	if err != nil {
		r.session.CancelLogin()
		return nil, err
	}
	return user, nil
}

func (r *Runner) run(ctx context.Context) (*gateway.UserInfo, error) {
	authURL, err := r.flow.Start(r.cfg)
	if err != nil {
		return nil, err
	}
	attempt := r.flow.AttemptID()
	r.logger.Debug("Waiting for authorization redirect", "attempt", attempt)

	var captured redirectCapture
	policy := func(u *url.URL) browser.Decision {
		if !r.flow.MatchesRedirect(u) {
			return browser.Allow
		}
		captured.set(u)
		return browser.Cancel
	}

	if err := r.surface.Load(ctx, authURL, policy); err != nil {
		return nil, err
	}

	var token *pkgoauth.TokenResponse
	handled, err := r.flow.HandleRedirect(captured.get(), func(code, verifier string) error {
		var exchangeErr error
		token, exchangeErr = r.exchanger.ExchangeCode(ctx, r.cfg, code, verifier)
		return exchangeErr
	})
	if !handled {
		return nil, &oauth.CallbackValidationError{Reason: oauth.ReasonStaleCallback}
	}
	if err != nil {
		return nil, err
	}
	// The caller gave up while the exchange was in flight.
	if err := ctx.Err(); err != nil {
		r.logger.Debug("Discarding token of a cancelled login", "attempt", attempt)
		return nil, err
	}

	if err := r.session.HandleAuthSuccess(ctx, token.AccessToken); err != nil {
		return nil, err
	}
	r.logger.Debug("Login completed", "attempt", attempt)

	user, err := r.session.RefreshIdentity(ctx)
	switch {
	case err == nil:
		return user, nil
	case gateway.IsUnauthorized(err):
		return nil, err
	default:
		r.logger.Warn("Logged in, but the user identity is not available yet", "error", err)
		return nil, nil
	}
}

// redirectCapture keeps the first redirect a surface intercepted. Loopback
// surfaces call the policy from server goroutines.
type redirectCapture struct {
	mu sync.Mutex
	u  *url.URL
}

func (c *redirectCapture) set(u *url.URL) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.u == nil {
		copied := *u
		c.u = &copied
	}
}

func (c *redirectCapture) get() *url.URL {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.u
}
